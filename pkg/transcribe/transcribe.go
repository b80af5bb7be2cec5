package transcribe

import (
	"context"

	"github.com/listenup/listenup-server/pkg/utils"
)

// RawSegment is a single timestamped span exactly as the speech-to-text
// API returned it, before any splitting or filtering.
type RawSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Segment is a practice-sized piece of the transcript as served to clients.
type Segment struct {
	Id          int64   `json:"id"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	StartMs     int64   `json:"start_ms"`
	EndMs       int64   `json:"end_ms"`
	Text        string  `json:"text"`
	Translation string  `json:"translation"`
	TimeRange   string  `json:"time_range"`
}

// NewSegment builds a Segment with the derived millisecond and display fields.
func NewSegment(id int64, start, end float64, text string) Segment {
	return Segment{
		Id:        id,
		Start:     start,
		End:       end,
		StartMs:   int64(start * 1000),
		EndMs:     int64(end * 1000),
		Text:      text,
		TimeRange: utils.FormatMMSS(start) + " - " + utils.FormatMMSS(end),
	}
}

// Transcriber produces timestamped raw segments from an audio file.
// Implementations must respect the provider's upload size limits themselves
// or document them (see MaxUploadSize on the openai provider).
type Transcriber interface {
	TranscribeFile(ctx context.Context, audioPath, language string) ([]RawSegment, error)
}

// Translator translates a single block of text between two languages.
type Translator interface {
	TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
