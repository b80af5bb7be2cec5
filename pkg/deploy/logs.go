package deploy

import (
	"context"
	"fmt"
)

const (
	VariantContainerApp = "containerapp"
	VariantWebApp       = "webapp"
)

// TailLogs streams the compute host's logs to the terminal until
// interrupted.
func (d *Deployer) TailLogs(ctx context.Context, variant string) error {
	if err := d.az.EnsureCli(); err != nil {
		return err
	}
	switch variant {
	case VariantContainerApp:
		return d.az.TailContainerAppLogs(ctx, d.opts.ContainerApp, d.opts.ResourceGroup)
	case VariantWebApp:
		return d.az.TailWebAppLogs(ctx, d.opts.WebApp, d.opts.ResourceGroup)
	default:
		return fmt.Errorf("unknown variant %q, expected %s or %s", variant, VariantContainerApp, VariantWebApp)
	}
}
