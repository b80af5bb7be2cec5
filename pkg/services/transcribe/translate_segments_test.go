package transcribeservice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/listenup/listenup-server/pkg/transcribe"
	"github.com/stretchr/testify/assert"
)

type fakeTranslator struct {
	failOn string
}

func (f *fakeTranslator) TranslateText(_ context.Context, text, _, _ string) (string, error) {
	if text == f.failOn {
		return "", errors.New("boom")
	}
	return "T:" + text, nil
}

func TestTranslateSegments(t *testing.T) {
	segments := []transcribe.Segment{
		transcribe.NewSegment(0, 0, 2, "first part"),
		transcribe.NewSegment(1, 2, 4, "second part"),
		transcribe.NewSegment(2, 4, 6, "third part"),
	}

	var mu sync.Mutex
	var messages []string
	progress := func(_ float64, status string) {
		mu.Lock()
		messages = append(messages, status)
		mu.Unlock()
	}

	out := TranslateSegments(context.Background(), &fakeTranslator{}, segments, "en", "pt", 2, progress)

	assert.Len(t, out, 3)
	for i, seg := range out {
		assert.Equal(t, "T:"+segments[i].Text, seg.Translation)
	}

	// One call per segment plus the start and finish notifications.
	assert.Len(t, messages, 5)
	assert.Equal(t, "Iniciando traducao...", messages[0])
	assert.Equal(t, "Traducao concluida!", messages[len(messages)-1])
}

func TestTranslateSegments_KeepsGoingOnError(t *testing.T) {
	segments := []transcribe.Segment{
		transcribe.NewSegment(0, 0, 2, "fails here"),
		transcribe.NewSegment(1, 2, 4, "still translated"),
	}

	out := TranslateSegments(context.Background(), &fakeTranslator{failOn: "fails here"}, segments, "en", "pt", 1, nil)

	assert.Equal(t, "[Erro na traducao: boom]", out[0].Translation)
	assert.Equal(t, "T:still translated", out[1].Translation)
}

func TestTranslateSegments_EmptyBatch(t *testing.T) {
	out := TranslateSegments(context.Background(), &fakeTranslator{}, nil, "en", "pt", 4, nil)
	assert.Empty(t, out)
}
