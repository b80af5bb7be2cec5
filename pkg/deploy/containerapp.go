package deploy

import (
	"context"
	"fmt"
)

// DeployContainerApp provisions the serverless Container Apps variant:
// resource group, registry, cloud-side image build, Container Apps
// environment and the app itself, then prints the public URL.
func (d *Deployer) DeployContainerApp(ctx context.Context) error {
	if err := d.preflight(ctx); err != nil {
		return err
	}
	if err := d.resolveApiKey(); err != nil {
		return err
	}
	if err := d.ensureGroup(ctx); err != nil {
		return err
	}
	if err := d.ensureRegistry(ctx); err != nil {
		return err
	}

	img, err := d.buildAndPush(ctx)
	if err != nil {
		return err
	}

	if d.az.ContainerEnvExists(ctx, d.opts.ContainerEnv, d.opts.ResourceGroup) {
		d.printf("Container Apps environment %s already exists, skipping.", d.opts.ContainerEnv)
	} else {
		d.printf("Creating Container Apps environment %s...", d.opts.ContainerEnv)
		if err := d.az.CreateContainerEnv(ctx, d.opts.ContainerEnv, d.opts.ResourceGroup, d.opts.Location); err != nil {
			return fmt.Errorf("create container environment: %w", err)
		}
	}

	if d.az.ContainerAppExists(ctx, d.opts.ContainerApp, d.opts.ResourceGroup) {
		d.printf("Container app %s already exists, rolling out the new image.", d.opts.ContainerApp)
		if err := d.az.UpdateContainerAppImage(ctx, d.opts.ContainerApp, d.opts.ResourceGroup, img.Ref); err != nil {
			return fmt.Errorf("update container app: %w", err)
		}
	} else {
		d.printf("Creating container app %s...", d.opts.ContainerApp)
		spec := &ContainerAppSpec{
			Name:             d.opts.ContainerApp,
			ResourceGroup:    d.opts.ResourceGroup,
			Environment:      d.opts.ContainerEnv,
			Image:            img.Ref,
			RegistryServer:   img.Server,
			RegistryUser:     img.User,
			RegistryPassword: img.Password,
			ApiKey:           d.opts.ApiKey,
		}
		if err := d.az.CreateContainerApp(ctx, spec); err != nil {
			return fmt.Errorf("create container app: %w", err)
		}
	}

	fqdn, err := d.az.ContainerAppFqdn(ctx, d.opts.ContainerApp, d.opts.ResourceGroup)
	if err != nil {
		return fmt.Errorf("query ingress fqdn: %w", err)
	}

	d.printf("")
	d.printf("Deployment complete.")
	d.printf("Application URL: https://%s", fqdn)
	d.printf("")
	d.printf("Tail logs with:")
	d.printf("  az containerapp logs show --name %s --resource-group %s --follow", d.opts.ContainerApp, d.opts.ResourceGroup)
	d.printf("Tear everything down with:")
	d.printf("  az group delete --name %s --yes --no-wait", d.opts.ResourceGroup)
	return nil
}
