package google

import (
	"context"
	"fmt"

	"github.com/listenup/listenup-server/pkg/config"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const defaultTranslateModel = "gemini-2.0-flash"

// Provider implements translation on top of Google's Gemini models.
type Provider struct {
	client *genai.Client
	logger *logrus.Entry
	model  string
}

// NewProvider creates a new Google AI provider.
func NewProvider(ctx context.Context, providerAccount *config.ProviderAccount, serviceConfig *config.ServiceConfig, log *logrus.Entry) (*Provider, error) {
	if providerAccount.Credentials.APIKey == "" {
		return nil, fmt.Errorf("google provider requires api_key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: providerAccount.Credentials.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Provider{
		client: client,
		logger: log,
		model:  serviceConfig.GetServiceOption("translate_model", defaultTranslateModel),
	}, nil
}
