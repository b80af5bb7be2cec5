package openai

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
)

// TranslateText translates one block of text with a chat completion.
func (p *Provider) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	instruction := fmt.Sprintf(
		"You are a professional translator. Translate the user's text from %s to %s. Reply with the translated text only, no explanations and no quotes.",
		sourceLang, targetLang)

	resp, err := p.sdk.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(p.translateModel),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(instruction),
			openaisdk.UserMessage(text),
		},
		Temperature: openaisdk.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translation response contained no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
