package deploy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Teardown deletes the resource group and everything inside it. A plain run
// asks for confirmation first, force skips the question.
func (d *Deployer) Teardown(ctx context.Context, force, noWait bool) error {
	if err := d.az.EnsureCli(); err != nil {
		return err
	}
	if !force {
		_, _ = fmt.Fprintf(d.out, "Delete resource group %s and every resource in it? [y/N]: ", d.opts.ResourceGroup)
		line, err := bufio.NewReader(d.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
		default:
			d.printf("Aborted.")
			return nil
		}
	}

	d.printf("Deleting resource group %s...", d.opts.ResourceGroup)
	if err := d.az.DeleteGroup(ctx, d.opts.ResourceGroup, noWait); err != nil {
		return fmt.Errorf("delete resource group: %w", err)
	}
	if noWait {
		d.printf("Deletion runs in the background, it can take a few minutes to finish.")
	}
	return nil
}
