package transcribeservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/listenup/listenup-server/pkg/transcribe"
)

// TranslationProgressFunc receives the batch progress (0-100) with a
// human readable status message.
type TranslationProgressFunc func(progress float64, status string)

// TranslateSegments fills the Translation field of every segment in place,
// running up to workers provider calls in parallel. A failed segment does
// not abort the batch, the error text is stored in its place so the client
// still gets the rest of the transcript.
func TranslateSegments(ctx context.Context, tr transcribe.Translator, segments []transcribe.Segment, sourceLang, targetLang string, workers int, progress TranslationProgressFunc) []transcribe.Segment {
	total := len(segments)
	if total == 0 {
		return segments
	}
	if workers < 1 {
		workers = 1
	}

	if progress != nil {
		progress(0, "Iniciando traducao...")
	}

	wp := workerpool.New(workers)
	var mu sync.Mutex
	done := 0

	for i := range segments {
		wp.Submit(func() {
			translation, err := tr.TranslateText(ctx, segments[i].Text, sourceLang, targetLang)
			if err != nil {
				translation = fmt.Sprintf("[Erro na traducao: %s]", err.Error())
			}

			mu.Lock()
			segments[i].Translation = translation
			done++
			finished := done
			mu.Unlock()

			if progress != nil {
				progress(float64(finished)/float64(total)*100, fmt.Sprintf("Traduzindo: %d/%d", finished, total))
			}
		})
	}
	wp.StopWait()

	if progress != nil {
		progress(100, "Traducao concluida!")
	}
	return segments
}
