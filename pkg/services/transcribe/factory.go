package transcribeservice

import (
	"context"
	"fmt"

	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/transcribe"
	"github.com/listenup/listenup-server/pkg/transcribe/providers/google"
	"github.com/listenup/listenup-server/pkg/transcribe/providers/openai"
	"github.com/sirupsen/logrus"
)

// NewTranscriber is a factory function that creates the configured
// speech-to-text provider.
func NewTranscriber(providerType string, account *config.ProviderAccount, service *config.ServiceConfig, logger *logrus.Logger) (transcribe.Transcriber, error) {
	log := logger.WithFields(logrus.Fields{
		"provider": providerType,
	})
	switch providerType {
	case "openai":
		return openai.NewProvider(account, service, log)
	default:
		return nil, fmt.Errorf("unknown transcription provider type: %s", providerType)
	}
}

// NewTranslator is a factory function that creates the configured
// translation provider.
func NewTranslator(ctx context.Context, providerType string, account *config.ProviderAccount, service *config.ServiceConfig, logger *logrus.Logger) (transcribe.Translator, error) {
	log := logger.WithFields(logrus.Fields{
		"provider": providerType,
	})
	switch providerType {
	case "openai":
		return openai.NewProvider(account, service, log)
	case "google":
		return google.NewProvider(ctx, account, service, log)
	default:
		return nil, fmt.Errorf("unknown translation provider type: %s", providerType)
	}
}
