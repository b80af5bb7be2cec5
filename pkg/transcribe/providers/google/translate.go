package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// TranslateText translates one block of text with a single generate call.
func (p *Provider) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Reply with the translated text only, no explanations and no quotes.\n\n%s",
		sourceLang, targetLang, text)

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}

	var textBuilder strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				textBuilder.WriteString(part.Text)
			}
		}
	}

	if textBuilder.Len() == 0 {
		return "", fmt.Errorf("no translation content found in response")
	}
	return strings.TrimSpace(textBuilder.String()), nil
}
