package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner abstracts execution of external CLI tools so that the
// provisioning pipelines can be exercised against a scripted fake.
type CommandRunner interface {
	// Run executes the command and returns its stdout. A nonzero exit
	// surfaces as an error carrying the tool's stderr text.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// RunInteractive executes the command attached to the current
	// terminal, for flows that need user interaction or stream output.
	RunInteractive(ctx context.Context, name string, args ...string) error
	LookPath(name string) (string, error)
}

type osRunner struct{}

// NewCommandRunner returns the os/exec backed runner used in production.
func NewCommandRunner() CommandRunner {
	return &osRunner{}
}

func (r *osRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %s", err.Error(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, err
	}
	return out, nil
}

func (r *osRunner) RunInteractive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (r *osRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
