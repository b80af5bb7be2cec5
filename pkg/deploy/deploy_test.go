package deploy

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"

	"github.com/listenup/listenup-server/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCredentialJson = `{"username":"testacr","passwords":[{"name":"password","value":"secret1"},{"name":"password2","value":"secret2"}]}`

// fakeRunner records every invocation and answers from a scripted respond
// function, so the pipelines can be driven without a real az binary.
type fakeRunner struct {
	calls       [][]string
	respond     func(args []string) (string, error)
	interactive func(name string, args []string) error
	lookPathErr error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.respond != nil {
		out, err := f.respond(args)
		return []byte(out), err
	}
	return nil, nil
}

func (f *fakeRunner) RunInteractive(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.interactive != nil {
		return f.interactive(name, args)
	}
	return nil
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.lookPathErr != nil {
		return "", f.lookPathErr
	}
	return "/usr/bin/" + name, nil
}

// is reports whether args starts with the given prefix.
func is(args []string, prefix ...string) bool {
	if len(args) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if args[i] != p {
			return false
		}
	}
	return true
}

func hasArg(call []string, want string) bool {
	for _, a := range call {
		if a == want {
			return true
		}
	}
	return false
}

// callIndex returns the position of the first az invocation whose args
// start with the given prefix, or -1.
func callIndex(calls [][]string, prefix ...string) int {
	for i, c := range calls {
		if len(c) > 1 && c[0] == azBin && is(c[1:], prefix...) {
			return i
		}
	}
	return -1
}

// respondAllExisting answers every existence probe as if the resource is
// already provisioned.
func respondAllExisting(args []string) (string, error) {
	switch {
	case is(args, "account", "show"):
		return "{}", nil
	case is(args, "group", "exists"):
		return "true", nil
	case is(args, "acr", "show") && hasArg(args, "--query"):
		return "testacr.azurecr.io", nil
	case is(args, "acr", "credential", "show"):
		return testCredentialJson, nil
	case is(args, "containerapp", "show") && hasArg(args, "--query"):
		return "listenup-app.wittyhill-7c1b.eastus.azurecontainerapps.io", nil
	case is(args, "storage", "account", "check-name"):
		return "false", nil
	case is(args, "storage", "account", "keys"):
		return "testkey==", nil
	case is(args, "storage", "share-rm", "exists"):
		return "true", nil
	case is(args, "webapp", "config", "storage-account", "list"):
		return `[{"name":"listenupcache"}]`, nil
	default:
		return "{}", nil
	}
}

// respondAllMissing answers every existence probe as if nothing is
// provisioned yet, creation calls succeed.
func respondAllMissing(args []string) (string, error) {
	switch {
	case is(args, "account", "show"):
		return "{}", nil
	case is(args, "group", "exists"):
		return "false", nil
	case is(args, "acr", "show") && hasArg(args, "--query"):
		return "testacr.azurecr.io", nil
	case is(args, "acr", "show"):
		return "", errors.New("ResourceNotFound")
	case is(args, "acr", "credential", "show"):
		return testCredentialJson, nil
	case is(args, "containerapp", "env", "show"):
		return "", errors.New("ResourceNotFound")
	case is(args, "containerapp", "show") && hasArg(args, "--query"):
		return "listenup-app.wittyhill-7c1b.eastus.azurecontainerapps.io", nil
	case is(args, "containerapp", "show"):
		return "", errors.New("ResourceNotFound")
	case is(args, "storage", "account", "check-name"):
		return "true", nil
	case is(args, "storage", "account", "keys"):
		return "testkey==", nil
	case is(args, "storage", "share-rm", "exists"):
		return "false", nil
	case is(args, "appservice", "plan", "show"):
		return "", errors.New("ResourceNotFound")
	case is(args, "webapp", "show"):
		return "", errors.New("ResourceNotFound")
	case is(args, "webapp", "config", "storage-account", "list"):
		return "[]", nil
	default:
		return "{}", nil
	}
}

func testOptions() *Options {
	return &Options{
		ResourceGroup:  "listenup-rg",
		Location:       "eastus",
		Registry:       "testacr",
		StorageAccount: "testst",
		ContainerApp:   "listenup-app",
		ContainerEnv:   "listenup-env",
		WebApp:         "listenup-web",
		AppServicePlan: "listenup-plan",
		Image:          "listenup:latest",
		FileShare:      "listenup-cache",
		MountPath:      "/app/cache",
		BuildContext:   ".",
		ApiKey:         "sk-test",
	}
}

func newTestDeployer(runner *fakeRunner, opts *Options, in io.Reader) (*Deployer, *bytes.Buffer) {
	logger := logging.NewTestLogger()
	out := new(bytes.Buffer)
	if in == nil {
		in = strings.NewReader("")
	}
	return NewDeployer(NewAzureService(runner, logger), opts, in, out, logger), out
}

func TestDeployContainerApp_RerunPerformsNoCreates(t *testing.T) {
	runner := &fakeRunner{respond: respondAllExisting}
	d, _ := newTestDeployer(runner, testOptions(), nil)

	require.NoError(t, d.DeployContainerApp(context.Background()))

	for _, call := range runner.calls {
		assert.False(t, hasArg(call, "create"), "unexpected create call: %v", call)
	}
	// the existing app still gets the freshly built image
	assert.NotEqual(t, -1, callIndex(runner.calls, "acr", "build"))
	assert.NotEqual(t, -1, callIndex(runner.calls, "containerapp", "update"))
}

func TestDeployContainerApp_FreshRunCreatesInOrder(t *testing.T) {
	runner := &fakeRunner{respond: respondAllMissing}
	d, _ := newTestDeployer(runner, testOptions(), nil)

	require.NoError(t, d.DeployContainerApp(context.Background()))

	group := callIndex(runner.calls, "group", "create")
	registry := callIndex(runner.calls, "acr", "create")
	build := callIndex(runner.calls, "acr", "build")
	env := callIndex(runner.calls, "containerapp", "env", "create")
	app := callIndex(runner.calls, "containerapp", "create")
	require.NotEqual(t, -1, group)
	require.NotEqual(t, -1, registry)
	require.NotEqual(t, -1, build)
	require.NotEqual(t, -1, env)
	require.NotEqual(t, -1, app)
	assert.Less(t, group, registry)
	assert.Less(t, registry, build)
	assert.Less(t, build, env)
	assert.Less(t, env, app)

	createCall := runner.calls[app]
	assert.True(t, hasArg(createCall, "OPENAI_API_KEY=sk-test"))
	assert.True(t, hasArg(createCall, "PORT=8080"))
	assert.True(t, hasArg(createCall, "--ingress"))
}

func TestDeployContainerApp_PrintsIngressUrl(t *testing.T) {
	runner := &fakeRunner{respond: respondAllExisting}
	d, out := newTestDeployer(runner, testOptions(), nil)

	require.NoError(t, d.DeployContainerApp(context.Background()))
	assert.Contains(t, out.String(), "https://listenup-app.wittyhill-7c1b.eastus.azurecontainerapps.io")
}

func TestDeployContainerApp_ReadsApiKeyFromPrompt(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	opts := testOptions()
	opts.ApiKey = ""

	runner := &fakeRunner{respond: respondAllMissing}
	d, out := newTestDeployer(runner, opts, strings.NewReader("sk-prompted\n"))

	require.NoError(t, d.DeployContainerApp(context.Background()))
	assert.Contains(t, out.String(), "Enter your OpenAI API key")

	app := callIndex(runner.calls, "containerapp", "create")
	require.NotEqual(t, -1, app)
	assert.True(t, hasArg(runner.calls[app], "OPENAI_API_KEY=sk-prompted"))
}

func TestDeployContainerApp_EmptyApiKeyAborts(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	opts := testOptions()
	opts.ApiKey = ""

	runner := &fakeRunner{respond: respondAllExisting}
	d, _ := newTestDeployer(runner, opts, strings.NewReader("\n"))

	err := d.DeployContainerApp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
	// no resource step may run without a key
	assert.Equal(t, -1, callIndex(runner.calls, "group"))
	assert.Equal(t, -1, callIndex(runner.calls, "acr"))
}

func TestDeployWebApp_FailureHaltsLaterSteps(t *testing.T) {
	runner := &fakeRunner{}
	runner.respond = func(args []string) (string, error) {
		if is(args, "storage", "account", "create") {
			return "", errors.New("quota exceeded")
		}
		return respondAllMissing(args)
	}
	d, _ := newTestDeployer(runner, testOptions(), nil)

	err := d.DeployWebApp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create storage account")

	assert.Equal(t, -1, callIndex(runner.calls, "storage", "share-rm"))
	assert.Equal(t, -1, callIndex(runner.calls, "appservice"))
	assert.Equal(t, -1, callIndex(runner.calls, "webapp"))
}

func TestDeployWebApp_RerunPerformsNoCreates(t *testing.T) {
	runner := &fakeRunner{respond: respondAllExisting}
	d, _ := newTestDeployer(runner, testOptions(), nil)

	require.NoError(t, d.DeployWebApp(context.Background()))

	for _, call := range runner.calls {
		assert.False(t, hasArg(call, "create"), "unexpected create call: %v", call)
	}
	// the mount with our custom id is present, so no second add
	assert.Equal(t, -1, callIndex(runner.calls, "webapp", "config", "storage-account", "add"))
	// image and settings are always rolled out
	assert.NotEqual(t, -1, callIndex(runner.calls, "webapp", "config", "container", "set"))
	assert.NotEqual(t, -1, callIndex(runner.calls, "webapp", "restart"))
}

func TestDeployWebApp_PrintsExpectedUrl(t *testing.T) {
	runner := &fakeRunner{respond: respondAllExisting}
	opts := testOptions()
	opts.WebApp = "my-listenup"
	d, out := newTestDeployer(runner, opts, nil)

	require.NoError(t, d.DeployWebApp(context.Background()))
	assert.Contains(t, out.String(), "https://my-listenup.azurewebsites.net")
}

func TestDeployWebApp_MountsCacheShareOnFreshRun(t *testing.T) {
	runner := &fakeRunner{respond: respondAllMissing}
	d, _ := newTestDeployer(runner, testOptions(), nil)

	require.NoError(t, d.DeployWebApp(context.Background()))

	add := callIndex(runner.calls, "webapp", "config", "storage-account", "add")
	require.NotEqual(t, -1, add)
	call := runner.calls[add]
	assert.True(t, hasArg(call, "/app/cache"))
	assert.True(t, hasArg(call, "AzureFiles"))
	assert.True(t, hasArg(call, CacheMountID))
	// settings carry the port contract of the App Service variant
	settings := callIndex(runner.calls, "webapp", "config", "appsettings", "set")
	require.NotEqual(t, -1, settings)
	assert.True(t, hasArg(runner.calls[settings], "WEBSITES_PORT=8000"))
	assert.True(t, hasArg(runner.calls[settings], "PORT=8000"))
}

func TestDeploy_MissingAzureCliAborts(t *testing.T) {
	runner := &fakeRunner{lookPathErr: exec.ErrNotFound}
	d, _ := newTestDeployer(runner, testOptions(), nil)

	err := d.DeployContainerApp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Azure CLI")
	assert.Empty(t, runner.calls)
}

func TestDeploy_LocalBuildUsesDocker(t *testing.T) {
	opts := testOptions()
	opts.LocalBuild = true
	runner := &fakeRunner{respond: respondAllExisting}
	d, _ := newTestDeployer(runner, opts, nil)

	require.NoError(t, d.DeployContainerApp(context.Background()))

	assert.NotEqual(t, -1, callIndex(runner.calls, "acr", "login"))
	assert.Equal(t, -1, callIndex(runner.calls, "acr", "build"))

	var built, pushed bool
	for _, call := range runner.calls {
		if call[0] != dockerBin {
			continue
		}
		switch {
		case is(call[1:], "build"):
			built = true
			assert.True(t, hasArg(call, "testacr.azurecr.io/listenup:latest"))
		case is(call[1:], "push"):
			pushed = true
		}
	}
	assert.True(t, built)
	assert.True(t, pushed)
}

func TestEnsureLogin_RunsLoginWhenSessionMissing(t *testing.T) {
	loggedIn := false
	runner := &fakeRunner{}
	runner.respond = func(args []string) (string, error) {
		if is(args, "account", "show") && !loggedIn {
			return "", errors.New("Please run 'az login' to setup account.")
		}
		return respondAllExisting(args)
	}
	runner.interactive = func(name string, args []string) error {
		if name == azBin && is(args, "login") {
			loggedIn = true
		}
		return nil
	}
	d, _ := newTestDeployer(runner, testOptions(), nil)

	require.NoError(t, d.DeployContainerApp(context.Background()))
	assert.NotEqual(t, -1, callIndex(runner.calls, "login"))
}

func TestTeardown_DeclinedConfirmationDeletesNothing(t *testing.T) {
	runner := &fakeRunner{respond: respondAllExisting}
	d, out := newTestDeployer(runner, testOptions(), strings.NewReader("n\n"))

	require.NoError(t, d.Teardown(context.Background(), false, false))
	assert.Equal(t, -1, callIndex(runner.calls, "group", "delete"))
	assert.Contains(t, out.String(), "Aborted.")
}

func TestTeardown_ForceDeletesWithoutPrompt(t *testing.T) {
	runner := &fakeRunner{respond: respondAllExisting}
	d, _ := newTestDeployer(runner, testOptions(), nil)

	require.NoError(t, d.Teardown(context.Background(), true, true))

	del := callIndex(runner.calls, "group", "delete")
	require.NotEqual(t, -1, del)
	assert.True(t, hasArg(runner.calls[del], "--yes"))
	assert.True(t, hasArg(runner.calls[del], "--no-wait"))
}

func TestTailLogs_UnknownVariant(t *testing.T) {
	runner := &fakeRunner{respond: respondAllExisting}
	d, _ := newTestDeployer(runner, testOptions(), nil)

	err := d.TailLogs(context.Background(), "bare-metal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variant")
}
