package deploy

import (
	"fmt"
	"time"
)

const (
	// ContainerAppPort is the port the server container listens on when
	// running as an Azure Container App.
	ContainerAppPort = 8080
	// WebAppPort is the port the Web App for Containers variant binds.
	// App Service routes traffic based on the WEBSITES_PORT setting.
	WebAppPort = 8000

	// CacheMountID identifies the Azure Files mount on the web app.
	CacheMountID = "listenupcache"
)

// Options carries every resource name the pipelines provision.
// DefaultOptions fills in the stock names, so a bare invocation behaves
// like the deploy scripts this tool replaces.
type Options struct {
	ResourceGroup  string
	Location       string
	Registry       string
	StorageAccount string
	ContainerApp   string
	ContainerEnv   string
	WebApp         string
	AppServicePlan string
	Image          string
	FileShare      string
	MountPath      string
	BuildContext   string

	// LocalBuild switches the image step from a cloud-side az acr build to
	// the local Docker daemon (docker build + push). Requires docker in PATH.
	LocalBuild bool

	// ApiKey holds the resolved OPENAI_API_KEY value. Left empty, the
	// pipeline reads it from the environment or prompts for it.
	ApiKey string
}

// DefaultOptions returns the stock resource names. Registry and storage
// account names must be globally unique and lowercase alphanumeric, so both
// get a timestamp suffix.
func DefaultOptions() *Options {
	suffix := time.Now().Unix()
	return &Options{
		ResourceGroup:  "listenup-rg",
		Location:       "eastus",
		Registry:       fmt.Sprintf("listenupacr%d", suffix),
		StorageAccount: fmt.Sprintf("listenupst%d", suffix),
		ContainerApp:   "listenup-app",
		ContainerEnv:   "listenup-env",
		WebApp:         "listenup-web",
		AppServicePlan: "listenup-plan",
		Image:          "listenup:latest",
		FileShare:      "listenup-cache",
		MountPath:      "/app/cache",
		BuildContext:   ".",
	}
}
