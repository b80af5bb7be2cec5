package deploy

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Deployer runs the provisioning pipelines. Steps execute strictly in
// order, the first failing step aborts the whole run and nothing attempts
// a rollback, matching the behavior of the shell scripts it replaces.
type Deployer struct {
	az     *AzureService
	opts   *Options
	in     io.Reader
	out    io.Writer
	logger *logrus.Entry
}

func NewDeployer(az *AzureService, opts *Options, in io.Reader, out io.Writer, logger *logrus.Logger) *Deployer {
	if opts == nil {
		opts = DefaultOptions()
	}
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Deployer{
		az:     az,
		opts:   opts,
		in:     in,
		out:    out,
		logger: logger.WithField("model", "deploy"),
	}
}

func (d *Deployer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(d.out, format+"\n", args...)
}

func (d *Deployer) preflight(ctx context.Context) error {
	if err := d.az.EnsureCli(); err != nil {
		return err
	}
	if d.opts.LocalBuild {
		if err := d.az.EnsureDocker(); err != nil {
			return err
		}
	}
	if err := d.az.EnsureLogin(ctx); err != nil {
		return err
	}
	return nil
}

func (d *Deployer) ensureGroup(ctx context.Context) error {
	exists, err := d.az.GroupExists(ctx, d.opts.ResourceGroup)
	if err != nil {
		return fmt.Errorf("check resource group: %w", err)
	}
	if exists {
		d.printf("Resource group %s already exists, skipping.", d.opts.ResourceGroup)
		return nil
	}
	d.printf("Creating resource group %s in %s...", d.opts.ResourceGroup, d.opts.Location)
	if err := d.az.CreateGroup(ctx, d.opts.ResourceGroup, d.opts.Location); err != nil {
		return fmt.Errorf("create resource group: %w", err)
	}
	return nil
}

func (d *Deployer) ensureRegistry(ctx context.Context) error {
	if d.az.RegistryExists(ctx, d.opts.Registry, d.opts.ResourceGroup) {
		d.printf("Container registry %s already exists, skipping.", d.opts.Registry)
		return nil
	}
	d.printf("Creating container registry %s...", d.opts.Registry)
	if err := d.az.CreateRegistry(ctx, d.opts.Registry, d.opts.ResourceGroup); err != nil {
		return fmt.Errorf("create container registry: %w", err)
	}
	return nil
}

// registryImage is the outcome of a push: the fully qualified reference and
// the admin credentials the compute host pulls with.
type registryImage struct {
	Ref      string
	Server   string
	User     string
	Password string
}

// buildAndPush always runs, even when every resource already exists;
// pushing an unchanged tag is the registry's concern, not ours.
func (d *Deployer) buildAndPush(ctx context.Context) (*registryImage, error) {
	server, err := d.az.RegistryLoginServer(ctx, d.opts.Registry)
	if err != nil {
		return nil, fmt.Errorf("resolve registry login server: %w", err)
	}
	ref := server + "/" + d.opts.Image
	if d.opts.LocalBuild {
		d.printf("Building image %s with the local Docker daemon...", ref)
		if err := d.az.RegistryLogin(ctx, d.opts.Registry); err != nil {
			return nil, fmt.Errorf("acr login: %w", err)
		}
		if err := d.az.DockerBuildPush(ctx, ref, d.opts.BuildContext); err != nil {
			return nil, fmt.Errorf("docker build and push: %w", err)
		}
	} else {
		d.printf("Building image %s, this can take a few minutes...", d.opts.Image)
		if err := d.az.BuildImage(ctx, d.opts.Registry, d.opts.Image, d.opts.BuildContext); err != nil {
			return nil, fmt.Errorf("build image: %w", err)
		}
	}
	user, password, err := d.az.RegistryCredentials(ctx, d.opts.Registry)
	if err != nil {
		return nil, fmt.Errorf("fetch registry credentials: %w", err)
	}
	return &registryImage{
		Ref:      ref,
		Server:   server,
		User:     user,
		Password: password,
	}, nil
}
