package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// MaxUploadSize is the hard upload limit of the transcription API.
	MaxUploadSize = 25 * 1024 * 1024

	// ChunkDuration keeps a 128kbps re-encode safely under MaxUploadSize
	// (mp3 at 128kbps is roughly 1MB per minute).
	ChunkDuration = 20 * time.Minute
)

// Chunk is one uploadable piece of a recording. Offset is the chunk's
// start position in seconds, used to shift segment timestamps back onto
// the full recording's timeline.
type Chunk struct {
	Path   string
	Offset float64
}

// Chunker splits recordings that exceed the transcription upload limit.
type Chunker struct {
	ffmpegBin string
	logger    *logrus.Entry
}

func NewChunker(ffmpegBin string, logger *logrus.Logger) *Chunker {
	return &Chunker{
		ffmpegBin: ffmpegBin,
		logger:    logger.WithField("service", "chunker"),
	}
}

// SplitIfNeeded returns the file itself when it is small enough to upload
// directly, otherwise re-encodes it into fixed-length mp3 chunks inside a
// temp dir. The returned cleanup func removes the temp dir and must always
// be called.
func (c *Chunker) SplitIfNeeded(ctx context.Context, audioPath string) ([]Chunk, func(), error) {
	noop := func() {}

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, noop, err
	}
	if info.Size() <= MaxUploadSize {
		return []Chunk{{Path: audioPath}}, noop, nil
	}

	tmpDir, err := os.MkdirTemp("", "listenup-chunks-")
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() {
		_ = os.RemoveAll(tmpDir)
	}

	c.logger.Infof("audio file is %dMB, splitting into %v chunks", info.Size()/(1024*1024), ChunkDuration)

	pattern := filepath.Join(tmpDir, "chunk_%03d.mp3")
	cmd := exec.CommandContext(ctx, c.ffmpegBin,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", audioPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(int(ChunkDuration.Seconds())),
		"-vn", "-acodec", "libmp3lame", "-b:a", "128k",
		pattern,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("ffmpeg split failed: %s; msg: %s", strings.TrimSpace(string(output)), err.Error())
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	// ReadDir sorts by name, which matches the %03d numbering.
	chunks := make([]Chunk, 0, len(entries))
	for i, entry := range entries {
		chunks = append(chunks, Chunk{
			Path:   filepath.Join(tmpDir, entry.Name()),
			Offset: float64(i) * ChunkDuration.Seconds(),
		})
	}
	if len(chunks) == 0 {
		cleanup()
		return nil, noop, fmt.Errorf("ffmpeg produced no chunks for %s", audioPath)
	}

	return chunks, cleanup, nil
}
