package deploy

import (
	"context"
	"fmt"
	"strconv"
)

// DeployWebApp provisions the Web App for Containers variant. On top of the
// shared group/registry/build steps it creates a storage account with an
// Azure Files share and mounts it at the cache path, so transcripts survive
// container restarts.
func (d *Deployer) DeployWebApp(ctx context.Context) error {
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

	storageExists, err := d.az.StorageAccountExists(ctx, d.opts.StorageAccount)
	if err != nil {
		return fmt.Errorf("check storage account: %w", err)
	}
	if storageExists {
		d.printf("Storage account %s already exists, skipping.", d.opts.StorageAccount)
	} else {
		d.printf("Creating storage account %s...", d.opts.StorageAccount)
		if err := d.az.CreateStorageAccount(ctx, d.opts.StorageAccount, d.opts.ResourceGroup, d.opts.Location); err != nil {
			return fmt.Errorf("create storage account: %w", err)
		}
	}
	storageKey, err := d.az.StorageAccountKey(ctx, d.opts.StorageAccount, d.opts.ResourceGroup)
	if err != nil {
		return fmt.Errorf("fetch storage account key: %w", err)
	}

	shareExists, err := d.az.FileShareExists(ctx, d.opts.StorageAccount, d.opts.ResourceGroup, d.opts.FileShare)
	if err != nil {
		return fmt.Errorf("check file share: %w", err)
	}
	if shareExists {
		d.printf("File share %s already exists, skipping.", d.opts.FileShare)
	} else {
		d.printf("Creating file share %s...", d.opts.FileShare)
		if err := d.az.CreateFileShare(ctx, d.opts.StorageAccount, d.opts.ResourceGroup, d.opts.FileShare); err != nil {
			return fmt.Errorf("create file share: %w", err)
		}
	}

	if d.az.PlanExists(ctx, d.opts.AppServicePlan, d.opts.ResourceGroup) {
		d.printf("App Service plan %s already exists, skipping.", d.opts.AppServicePlan)
	} else {
		d.printf("Creating App Service plan %s...", d.opts.AppServicePlan)
		if err := d.az.CreatePlan(ctx, d.opts.AppServicePlan, d.opts.ResourceGroup); err != nil {
			return fmt.Errorf("create app service plan: %w", err)
		}
	}

	if d.az.WebAppExists(ctx, d.opts.WebApp, d.opts.ResourceGroup) {
		d.printf("Web app %s already exists, rolling out the new image.", d.opts.WebApp)
	} else {
		d.printf("Creating web app %s...", d.opts.WebApp)
		if err := d.az.CreateWebApp(ctx, d.opts.WebApp, d.opts.ResourceGroup, d.opts.AppServicePlan, img.Ref); err != nil {
			return fmt.Errorf("create web app: %w", err)
		}
	}
	// runs for both branches so the registry credentials stay current
	if err := d.az.SetWebAppContainer(ctx, d.opts.WebApp, d.opts.ResourceGroup, img.Ref, img.Server, img.User, img.Password); err != nil {
		return fmt.Errorf("configure web app container: %w", err)
	}

	settings := map[string]string{
		"OPENAI_API_KEY": d.opts.ApiKey,
		"WEBSITES_PORT":  strconv.Itoa(WebAppPort),
		"PORT":           strconv.Itoa(WebAppPort),
	}
	if err := d.az.SetAppSettings(ctx, d.opts.WebApp, d.opts.ResourceGroup, settings); err != nil {
		return fmt.Errorf("apply app settings: %w", err)
	}

	mounted, err := d.az.CacheMountExists(ctx, d.opts.WebApp, d.opts.ResourceGroup, CacheMountID)
	if err != nil {
		return fmt.Errorf("check cache mount: %w", err)
	}
	if mounted {
		d.printf("Cache share already mounted at %s, skipping.", d.opts.MountPath)
	} else {
		d.printf("Mounting file share %s at %s...", d.opts.FileShare, d.opts.MountPath)
		if err := d.az.AddCacheMount(ctx, d.opts.WebApp, d.opts.ResourceGroup, d.opts.StorageAccount, storageKey, d.opts.FileShare, d.opts.MountPath); err != nil {
			return fmt.Errorf("mount cache share: %w", err)
		}
	}

	d.printf("Restarting web app %s...", d.opts.WebApp)
	if err := d.az.RestartWebApp(ctx, d.opts.WebApp, d.opts.ResourceGroup); err != nil {
		return fmt.Errorf("restart web app: %w", err)
	}

	d.printf("")
	d.printf("Deployment complete.")
	d.printf("Application URL: https://%s.azurewebsites.net", d.opts.WebApp)
	d.printf("")
	d.printf("Tail logs with:")
	d.printf("  az webapp log tail --name %s --resource-group %s", d.opts.WebApp, d.opts.ResourceGroup)
	d.printf("Tear everything down with:")
	d.printf("  az group delete --name %s --yes --no-wait", d.opts.ResourceGroup)
	return nil
}
