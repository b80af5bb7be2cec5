package openai

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/listenup/listenup-server/pkg/config"
	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

const (
	defaultTranscribeModel = "whisper-1"
	defaultTranslateModel  = "gpt-4o-mini"
)

// Provider talks to OpenAI-compatible endpoints. Transcription goes through
// a plain HTTP client because the audio endpoint takes a multipart upload;
// translation uses the official SDK.
type Provider struct {
	account *config.ProviderAccount
	service *config.ServiceConfig
	logger  *logrus.Entry

	client  *http.Client
	sdk     openaisdk.Client
	baseURL string
	apiKey  string

	transcribeModel string
	translateModel  string
}

// NewProvider constructs the OpenAI-compatible provider.
func NewProvider(providerAccount *config.ProviderAccount, serviceConfig *config.ServiceConfig, log *logrus.Entry) (*Provider, error) {
	if providerAccount.Credentials.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires api_key")
	}

	base := "https://api.openai.com"
	if ep, ok := providerAccount.Options["endpoint"].(string); ok && ep != "" {
		base = ep
	}

	sdkBase := base
	if !strings.HasSuffix(sdkBase, "/v1") {
		sdkBase += "/v1"
	}

	return &Provider{
		account: providerAccount,
		service: serviceConfig,
		logger:  log,
		// chunk uploads of up to 25MB need far more headroom than a normal
		// API call
		client: &http.Client{Timeout: 10 * time.Minute},
		sdk: openaisdk.NewClient(
			option.WithAPIKey(providerAccount.Credentials.APIKey),
			option.WithBaseURL(sdkBase),
		),
		baseURL:         base,
		apiKey:          providerAccount.Credentials.APIKey,
		transcribeModel: serviceConfig.GetServiceOption("model", defaultTranscribeModel),
		translateModel:  serviceConfig.GetServiceOption("translate_model", defaultTranslateModel),
	}, nil
}

// GetBaseURL returns the configured API endpoint.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

func (p *Provider) apiPath(endpoint string) string {
	if strings.HasSuffix(p.baseURL, "/v1") {
		return p.baseURL + endpoint
	}
	return p.baseURL + "/v1" + endpoint
}
