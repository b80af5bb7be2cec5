package config

import "fmt"

// InsightsConfig is the main config block for the AI-backed features
// (transcription and translation).
type InsightsConfig struct {
	// The key is the provider type ("openai", "google"), the value is a list of accounts.
	Providers map[string][]ProviderAccount `yaml:"providers"`
	Services  map[string]ServiceConfig     `yaml:"services"`
}

// ProviderAccount defines a single, uniquely identified set of credentials for a provider.
type ProviderAccount struct {
	ID          string                 `yaml:"id"`
	Credentials CredentialsConfig      `yaml:"credentials"`
	Options     map[string]interface{} `yaml:"options"` // Generic options for the provider
}

// ServiceConfig references a provider type and a specific account ID.
type ServiceConfig struct {
	Provider string                 `yaml:"provider"`
	ID       string                 `yaml:"id"`
	Options  map[string]interface{} `yaml:"options"` // Generic options, e.g., model
}

// CredentialsConfig only contains the most common credential fields.
// can use the Options field if needed extra data
type CredentialsConfig struct {
	APIKey string `yaml:"api_key"`
	Region string `yaml:"region"`
}

// GetProviderAccountForService resolves the provider account a named service
// ("transcription", "translation") is configured to use.
func (c *InsightsConfig) GetProviderAccountForService(serviceName string) (*ProviderAccount, *ServiceConfig, error) {
	service, ok := c.Services[serviceName]
	if !ok {
		return nil, nil, fmt.Errorf("no service configured with name: %s", serviceName)
	}

	accounts, ok := c.Providers[service.Provider]
	if !ok || len(accounts) == 0 {
		return nil, nil, fmt.Errorf("no accounts configured for provider: %s", service.Provider)
	}

	// without an explicit account id the first account wins
	if service.ID == "" {
		return &accounts[0], &service, nil
	}

	for i := range accounts {
		if accounts[i].ID == service.ID {
			return &accounts[i], &service, nil
		}
	}
	return nil, nil, fmt.Errorf("no account with id '%s' for provider: %s", service.ID, service.Provider)
}

// GetServiceOption reads a string option of a service config, with a fallback.
func (s *ServiceConfig) GetServiceOption(key, fallback string) string {
	if s.Options == nil {
		return fallback
	}
	if v, ok := s.Options[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// SetProviderAPIKey overrides the api key of every account of the given
// provider type. Used to inject keys from the environment.
func (c *InsightsConfig) SetProviderAPIKey(providerType, apiKey string) {
	if c.Providers == nil {
		c.Providers = make(map[string][]ProviderAccount)
	}
	accounts, ok := c.Providers[providerType]
	if !ok || len(accounts) == 0 {
		c.Providers[providerType] = []ProviderAccount{
			{ID: "default", Credentials: CredentialsConfig{APIKey: apiKey}},
		}
		return
	}
	for i := range accounts {
		accounts[i].Credentials.APIKey = apiKey
	}
}
