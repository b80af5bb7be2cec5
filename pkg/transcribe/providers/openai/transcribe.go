package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/listenup/listenup-server/pkg/transcribe"
)

// verboseTranscription mirrors the verbose_json response of the audio
// transcription endpoint. Only the fields we consume are declared.
type verboseTranscription struct {
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
	Segments []struct {
		Id    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// TranscribeFile uploads a single audio file and returns the timestamped
// segments. The endpoint rejects uploads above 25MB, callers split bigger
// files first (see transcribe.Chunker).
func (p *Provider) TranscribeFile(ctx context.Context, audioPath, language string) ([]transcribe.RawSegment, error) {
	audioFile, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer audioFile.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, audioFile); err != nil {
		return nil, fmt.Errorf("failed to buffer audio file: %w", err)
	}

	_ = w.WriteField("model", p.transcribeModel)
	_ = w.WriteField("language", language)
	_ = w.WriteField("response_format", "verbose_json")
	_ = w.WriteField("timestamp_granularities[]", "segment")
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.apiPath("/audio/transcriptions"), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription request returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed verboseTranscription
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	p.logger.WithField("segments", len(parsed.Segments)).
		Debugln("transcription response received for", filepath.Base(audioPath))

	raws := make([]transcribe.RawSegment, 0, len(parsed.Segments))
	for _, seg := range parsed.Segments {
		raws = append(raws, transcribe.RawSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return raws, nil
}
