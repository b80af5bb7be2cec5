package deploy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	azBin     = "az"
	dockerBin = "docker"
)

// AzureService wraps the Azure CLI. Every call shells out to az; nothing
// talks to the resource-management API directly.
type AzureService struct {
	runner CommandRunner
	logger *logrus.Entry
}

func NewAzureService(runner CommandRunner, logger *logrus.Logger) *AzureService {
	return &AzureService{
		runner: runner,
		logger: logger.WithField("service", "azure"),
	}
}

func (s *AzureService) run(ctx context.Context, args ...string) ([]byte, error) {
	s.logger.Debugln(azBin, strings.Join(args, " "))
	return s.runner.Run(ctx, azBin, args...)
}

// runLine runs a command whose output is a single tsv value.
func (s *AzureService) runLine(ctx context.Context, args ...string) (string, error) {
	out, err := s.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// EnsureCli verifies the az binary is installed.
func (s *AzureService) EnsureCli() error {
	if _, err := s.runner.LookPath(azBin); err != nil {
		return errors.New("the Azure CLI (az) was not found in PATH, install it from https://aka.ms/azure-cli")
	}
	return nil
}

// EnsureDocker verifies the docker binary is installed. Only the
// local-build mode needs it.
func (s *AzureService) EnsureDocker() error {
	if _, err := s.runner.LookPath(dockerBin); err != nil {
		return errors.New("docker was not found in PATH, it is required with --local-build")
	}
	return nil
}

// EnsureLogin checks for an authenticated session and falls back to an
// interactive az login when there is none.
func (s *AzureService) EnsureLogin(ctx context.Context) error {
	if _, err := s.run(ctx, "account", "show"); err == nil {
		return nil
	}
	s.logger.Infoln("no active Azure session, starting az login")
	if err := s.runner.RunInteractive(ctx, azBin, "login"); err != nil {
		return fmt.Errorf("az login: %w", err)
	}
	if _, err := s.run(ctx, "account", "show"); err != nil {
		return fmt.Errorf("azure session still unavailable after login: %w", err)
	}
	return nil
}

func (s *AzureService) GroupExists(ctx context.Context, name string) (bool, error) {
	out, err := s.runLine(ctx, "group", "exists", "--name", name)
	if err != nil {
		return false, err
	}
	exists, err := strconv.ParseBool(out)
	if err != nil {
		return false, fmt.Errorf("unexpected az group exists output %q", out)
	}
	return exists, nil
}

func (s *AzureService) CreateGroup(ctx context.Context, name, location string) error {
	_, err := s.run(ctx, "group", "create", "--name", name, "--location", location)
	return err
}

// RegistryExists reports presence via az acr show; any failure is treated
// as absence, the follow-up create surfaces real problems.
func (s *AzureService) RegistryExists(ctx context.Context, name, resourceGroup string) bool {
	_, err := s.run(ctx, "acr", "show", "--name", name, "--resource-group", resourceGroup)
	return err == nil
}

func (s *AzureService) CreateRegistry(ctx context.Context, name, resourceGroup string) error {
	_, err := s.run(ctx, "acr", "create", "--resource-group", resourceGroup, "--name", name, "--sku", "Basic", "--admin-enabled", "true")
	return err
}

func (s *AzureService) RegistryLoginServer(ctx context.Context, name string) (string, error) {
	return s.runLine(ctx, "acr", "show", "--name", name, "--query", "loginServer", "-o", "tsv")
}

// BuildImage builds and pushes the image with a cloud-side acr build, so a
// local Docker daemon is not required.
func (s *AzureService) BuildImage(ctx context.Context, registry, image, contextDir string) error {
	_, err := s.run(ctx, "acr", "build", "--registry", registry, "--image", image, contextDir)
	return err
}

// RegistryLogin signs the local docker client into the registry.
func (s *AzureService) RegistryLogin(ctx context.Context, name string) error {
	_, err := s.run(ctx, "acr", "login", "--name", name)
	return err
}

// DockerBuildPush builds the fully qualified image reference with the local
// Docker daemon and pushes it. Both commands inherit stdio so build output
// stays visible.
func (s *AzureService) DockerBuildPush(ctx context.Context, ref, contextDir string) error {
	if err := s.runner.RunInteractive(ctx, dockerBin, "build", "-t", ref, contextDir); err != nil {
		return err
	}
	return s.runner.RunInteractive(ctx, dockerBin, "push", ref)
}

type registryCredential struct {
	Username  string `json:"username"`
	Passwords []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"passwords"`
}

func (s *AzureService) RegistryCredentials(ctx context.Context, name string) (string, string, error) {
	out, err := s.run(ctx, "acr", "credential", "show", "--name", name)
	if err != nil {
		return "", "", err
	}
	cred := new(registryCredential)
	if err := json.Unmarshal(out, cred); err != nil {
		return "", "", fmt.Errorf("parse acr credentials: %w", err)
	}
	if len(cred.Passwords) == 0 {
		return "", "", errors.New("registry admin credentials are empty")
	}
	return cred.Username, cred.Passwords[0].Value, nil
}

func (s *AzureService) ContainerEnvExists(ctx context.Context, name, resourceGroup string) bool {
	_, err := s.run(ctx, "containerapp", "env", "show", "--name", name, "--resource-group", resourceGroup)
	return err == nil
}

func (s *AzureService) CreateContainerEnv(ctx context.Context, name, resourceGroup, location string) error {
	_, err := s.run(ctx, "containerapp", "env", "create", "--name", name, "--resource-group", resourceGroup, "--location", location)
	return err
}

func (s *AzureService) ContainerAppExists(ctx context.Context, name, resourceGroup string) bool {
	_, err := s.run(ctx, "containerapp", "show", "--name", name, "--resource-group", resourceGroup)
	return err == nil
}

// ContainerAppSpec carries everything az containerapp create needs.
type ContainerAppSpec struct {
	Name             string
	ResourceGroup    string
	Environment      string
	Image            string
	RegistryServer   string
	RegistryUser     string
	RegistryPassword string
	ApiKey           string
}

func (s *AzureService) CreateContainerApp(ctx context.Context, spec *ContainerAppSpec) error {
	_, err := s.run(ctx, "containerapp", "create",
		"--name", spec.Name,
		"--resource-group", spec.ResourceGroup,
		"--environment", spec.Environment,
		"--image", spec.Image,
		"--registry-server", spec.RegistryServer,
		"--registry-username", spec.RegistryUser,
		"--registry-password", spec.RegistryPassword,
		"--target-port", strconv.Itoa(ContainerAppPort),
		"--ingress", "external",
		"--env-vars",
		fmt.Sprintf("OPENAI_API_KEY=%s", spec.ApiKey),
		fmt.Sprintf("PORT=%d", ContainerAppPort),
	)
	return err
}

func (s *AzureService) UpdateContainerAppImage(ctx context.Context, name, resourceGroup, image string) error {
	_, err := s.run(ctx, "containerapp", "update", "--name", name, "--resource-group", resourceGroup, "--image", image)
	return err
}

func (s *AzureService) ContainerAppFqdn(ctx context.Context, name, resourceGroup string) (string, error) {
	return s.runLine(ctx, "containerapp", "show", "--name", name, "--resource-group", resourceGroup,
		"--query", "properties.configuration.ingress.fqdn", "-o", "tsv")
}

// StorageAccountExists uses the check-name API, the only reliable probe for
// a globally scoped name.
func (s *AzureService) StorageAccountExists(ctx context.Context, name string) (bool, error) {
	out, err := s.runLine(ctx, "storage", "account", "check-name", "--name", name, "--query", "nameAvailable", "-o", "tsv")
	if err != nil {
		return false, err
	}
	available, err := strconv.ParseBool(out)
	if err != nil {
		return false, fmt.Errorf("unexpected check-name output %q", out)
	}
	return !available, nil
}

func (s *AzureService) CreateStorageAccount(ctx context.Context, name, resourceGroup, location string) error {
	_, err := s.run(ctx, "storage", "account", "create", "--name", name, "--resource-group", resourceGroup,
		"--location", location, "--sku", "Standard_LRS")
	return err
}

func (s *AzureService) StorageAccountKey(ctx context.Context, name, resourceGroup string) (string, error) {
	return s.runLine(ctx, "storage", "account", "keys", "list", "--resource-group", resourceGroup,
		"--account-name", name, "--query", "[0].value", "-o", "tsv")
}

func (s *AzureService) FileShareExists(ctx context.Context, account, resourceGroup, name string) (bool, error) {
	out, err := s.runLine(ctx, "storage", "share-rm", "exists", "--resource-group", resourceGroup,
		"--storage-account", account, "--name", name, "--query", "exists", "-o", "tsv")
	if err != nil {
		return false, err
	}
	exists, err := strconv.ParseBool(out)
	if err != nil {
		return false, fmt.Errorf("unexpected share-rm exists output %q", out)
	}
	return exists, nil
}

func (s *AzureService) CreateFileShare(ctx context.Context, account, resourceGroup, name string) error {
	_, err := s.run(ctx, "storage", "share-rm", "create", "--resource-group", resourceGroup,
		"--storage-account", account, "--name", name)
	return err
}

func (s *AzureService) PlanExists(ctx context.Context, name, resourceGroup string) bool {
	_, err := s.run(ctx, "appservice", "plan", "show", "--name", name, "--resource-group", resourceGroup)
	return err == nil
}

func (s *AzureService) CreatePlan(ctx context.Context, name, resourceGroup string) error {
	_, err := s.run(ctx, "appservice", "plan", "create", "--name", name, "--resource-group", resourceGroup,
		"--is-linux", "--sku", "B1")
	return err
}

func (s *AzureService) WebAppExists(ctx context.Context, name, resourceGroup string) bool {
	_, err := s.run(ctx, "webapp", "show", "--name", name, "--resource-group", resourceGroup)
	return err == nil
}

func (s *AzureService) CreateWebApp(ctx context.Context, name, resourceGroup, plan, image string) error {
	_, err := s.run(ctx, "webapp", "create", "--resource-group", resourceGroup, "--plan", plan,
		"--name", name, "--deployment-container-image-name", image)
	return err
}

func (s *AzureService) SetWebAppContainer(ctx context.Context, name, resourceGroup, image, server, user, password string) error {
	_, err := s.run(ctx, "webapp", "config", "container", "set", "--name", name, "--resource-group", resourceGroup,
		"--container-image-name", image,
		"--container-registry-url", "https://"+server,
		"--container-registry-user", user,
		"--container-registry-password", password)
	return err
}

// SetAppSettings applies the given settings in one call. Keys go out in
// sorted order so repeated runs produce identical az invocations.
func (s *AzureService) SetAppSettings(ctx context.Context, name, resourceGroup string, settings map[string]string) error {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []string{"webapp", "config", "appsettings", "set", "--resource-group", resourceGroup, "--name", name, "--settings"}
	for _, k := range keys {
		args = append(args, fmt.Sprintf("%s=%s", k, settings[k]))
	}
	_, err := s.run(ctx, args...)
	return err
}

type storageMount struct {
	Name string `json:"name"`
}

// CacheMountExists checks whether a path mount with the given custom id is
// already attached to the web app.
func (s *AzureService) CacheMountExists(ctx context.Context, name, resourceGroup, customId string) (bool, error) {
	out, err := s.run(ctx, "webapp", "config", "storage-account", "list", "--resource-group", resourceGroup, "--name", name)
	if err != nil {
		return false, err
	}
	var mounts []storageMount
	if err := json.Unmarshal(out, &mounts); err != nil {
		return false, fmt.Errorf("parse storage mounts: %w", err)
	}
	for _, m := range mounts {
		if m.Name == customId {
			return true, nil
		}
	}
	return false, nil
}

func (s *AzureService) AddCacheMount(ctx context.Context, name, resourceGroup, account, accessKey, share, mountPath string) error {
	_, err := s.run(ctx, "webapp", "config", "storage-account", "add",
		"--resource-group", resourceGroup,
		"--name", name,
		"--custom-id", CacheMountID,
		"--storage-type", "AzureFiles",
		"--account-name", account,
		"--share-name", share,
		"--access-key", accessKey,
		"--mount-path", mountPath)
	return err
}

func (s *AzureService) RestartWebApp(ctx context.Context, name, resourceGroup string) error {
	_, err := s.run(ctx, "webapp", "restart", "--name", name, "--resource-group", resourceGroup)
	return err
}

func (s *AzureService) DeleteGroup(ctx context.Context, name string, noWait bool) error {
	args := []string{"group", "delete", "--name", name, "--yes"}
	if noWait {
		args = append(args, "--no-wait")
	}
	_, err := s.run(ctx, args...)
	return err
}

// TailContainerAppLogs streams container app logs to the terminal until
// interrupted.
func (s *AzureService) TailContainerAppLogs(ctx context.Context, name, resourceGroup string) error {
	return s.runner.RunInteractive(ctx, azBin, "containerapp", "logs", "show",
		"--name", name, "--resource-group", resourceGroup, "--follow")
}

// TailWebAppLogs streams web app logs to the terminal until interrupted.
func (s *AzureService) TailWebAppLogs(ctx context.Context, name, resourceGroup string) error {
	return s.runner.RunInteractive(ctx, azBin, "webapp", "log", "tail",
		"--name", name, "--resource-group", resourceGroup)
}
