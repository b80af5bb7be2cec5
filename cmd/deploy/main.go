package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/listenup/listenup-server/pkg/deploy"
	"github.com/listenup/listenup-server/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	cli.VersionPrinter = func(c *cli.Command) {
		fmt.Printf("%s\n", c.Version)
	}

	// flag defaults mirror the resource names the shell scripts hardcoded
	defaults := deploy.DefaultOptions()

	app := &cli.Command{
		Name:        "listenup-deploy",
		Usage:       "Provision the ListenUp server on Azure",
		Description: "Idempotent Azure provisioning, re-runs skip resources that already exist",
		Version:     version.Version,
		Commands: []*cli.Command{
			{
				Name:  "containerapp",
				Usage: "Deploy to Azure Container Apps (public ingress on port 8080)",
				Flags: append(sharedFlags(defaults),
					&cli.StringFlag{Name: "app", Usage: "container app name", Value: defaults.ContainerApp},
					&cli.StringFlag{Name: "env", Usage: "Container Apps environment name", Value: defaults.ContainerEnv},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					opts := sharedOptions(c, defaults)
					opts.ContainerApp = c.String("app")
					opts.ContainerEnv = c.String("env")
					return newDeployer(opts, c.Bool("verbose")).DeployContainerApp(ctx)
				},
			},
			{
				Name:  "webapp",
				Usage: "Deploy to Web App for Containers with an Azure Files cache mount (port 8000)",
				Flags: append(sharedFlags(defaults),
					&cli.StringFlag{Name: "app", Usage: "web app name", Value: defaults.WebApp},
					&cli.StringFlag{Name: "plan", Usage: "App Service plan name", Value: defaults.AppServicePlan},
					&cli.StringFlag{Name: "storage-account", Usage: "storage account name", Value: defaults.StorageAccount},
					&cli.StringFlag{Name: "share", Usage: "file share name", Value: defaults.FileShare},
					&cli.StringFlag{Name: "mount-path", Usage: "in-container mount path for the cache share", Value: defaults.MountPath},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					opts := sharedOptions(c, defaults)
					opts.WebApp = c.String("app")
					opts.AppServicePlan = c.String("plan")
					opts.StorageAccount = c.String("storage-account")
					opts.FileShare = c.String("share")
					opts.MountPath = c.String("mount-path")
					return newDeployer(opts, c.Bool("verbose")).DeployWebApp(ctx)
				},
			},
			{
				Name:  "logs",
				Usage: "Tail the deployed application's logs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "variant", Usage: "containerapp or webapp", Value: deploy.VariantContainerApp},
					&cli.StringFlag{Name: "resource-group", Usage: "resource group name", Value: defaults.ResourceGroup},
					&cli.StringFlag{Name: "app", Usage: "app name, defaults to the variant's stock name"},
					&cli.BoolFlag{Name: "verbose", Usage: "log every az invocation"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					opts := *defaults
					opts.ResourceGroup = c.String("resource-group")
					if app := c.String("app"); app != "" {
						opts.ContainerApp = app
						opts.WebApp = app
					}
					return newDeployer(&opts, c.Bool("verbose")).TailLogs(ctx, c.String("variant"))
				},
			},
			{
				Name:  "teardown",
				Usage: "Delete the resource group and everything in it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "resource-group", Usage: "resource group name", Value: defaults.ResourceGroup},
					&cli.BoolFlag{Name: "force", Usage: "skip the confirmation prompt"},
					&cli.BoolFlag{Name: "no-wait", Usage: "do not wait for the deletion to finish"},
					&cli.BoolFlag{Name: "verbose", Usage: "log every az invocation"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					opts := *defaults
					opts.ResourceGroup = c.String("resource-group")
					return newDeployer(&opts, c.Bool("verbose")).Teardown(ctx, c.Bool("force"), c.Bool("no-wait"))
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		logrus.Fatalln(err)
	}
}

func sharedFlags(defaults *deploy.Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "resource-group", Usage: "resource group name", Value: defaults.ResourceGroup},
		&cli.StringFlag{Name: "location", Usage: "Azure region", Value: defaults.Location},
		&cli.StringFlag{Name: "registry", Usage: "container registry name, must be globally unique", Value: defaults.Registry},
		&cli.StringFlag{Name: "image", Usage: "image name and tag", Value: defaults.Image},
		&cli.StringFlag{Name: "context", Usage: "build context directory", Value: defaults.BuildContext},
		&cli.BoolFlag{Name: "local-build", Usage: "build with the local Docker daemon instead of az acr build"},
		&cli.BoolFlag{Name: "verbose", Usage: "log every az invocation"},
	}
}

func sharedOptions(c *cli.Command, defaults *deploy.Options) *deploy.Options {
	opts := *defaults
	opts.ResourceGroup = c.String("resource-group")
	opts.Location = c.String("location")
	opts.Registry = c.String("registry")
	opts.Image = c.String("image")
	opts.BuildContext = c.String("context")
	opts.LocalBuild = c.Bool("local-build")
	return &opts
}

func newDeployer(opts *deploy.Options, verbose bool) *deploy.Deployer {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	az := deploy.NewAzureService(deploy.NewCommandRunner(), logger)
	return deploy.NewDeployer(az, opts, os.Stdin, os.Stdout, logger)
}
