package models

import (
	"context"

	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/services/redis"
	"github.com/listenup/listenup-server/pkg/transcribe"
)

// SegmentsResult is the payload of the segments endpoint: everything the
// player needs for the episode that is currently loaded.
type SegmentsResult struct {
	Segments  []transcribe.Segment `json:"segments"`
	AudioPath string               `json:"audio_path"`
}

// CachedEpisodeResult is the payload served when a client re-opens an
// episode that was processed before.
type CachedEpisodeResult struct {
	Segments []transcribe.Segment `json:"segments"`
	Cached   bool                 `json:"cached"`
}

// GetProcessingStatus reports the state of the pipeline. An idle server
// with no history answers with the ready message.
func (m *EpisodeModel) GetProcessingStatus(ctx context.Context) (*redisservice.ProcessingStatus, error) {
	status, err := m.rs.GetProcessingStatus(ctx)
	if err != nil {
		return nil, err
	}
	if !status.IsProcessing && status.Message == "" && status.Error == "" {
		status.Message = config.MsgReady
	}
	return status, nil
}

// GetCurrentSegments returns the segments and audio of the episode the
// server currently has loaded. Before any processing it is simply empty.
func (m *EpisodeModel) GetCurrentSegments(ctx context.Context) (*SegmentsResult, error) {
	episodeId, audioPath, err := m.rs.GetCurrentEpisode(ctx)
	if err != nil {
		return nil, err
	}

	result := &SegmentsResult{
		Segments:  []transcribe.Segment{},
		AudioPath: audioPath,
	}
	if episodeId == "" {
		return result, nil
	}

	cached, err := m.LoadCache(episodeId)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.Segments != nil {
		result.Segments = cached.Segments
	}
	return result, nil
}

// GetCachedEpisode loads a processed episode from the cache and makes it
// the current one, so the audio endpoint serves its file afterwards.
// Returns nil when the episode was never processed.
func (m *EpisodeModel) GetCachedEpisode(ctx context.Context, episodeId string) (*CachedEpisodeResult, error) {
	cached, err := m.LoadCache(episodeId)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, nil
	}

	if err := m.rs.SetCurrentEpisode(ctx, episodeId, cached.AudioPath); err != nil {
		m.logger.WithError(err).Errorln("failed to set current episode")
	}

	segments := cached.Segments
	if segments == nil {
		segments = []transcribe.Segment{}
	}
	return &CachedEpisodeResult{Segments: segments, Cached: true}, nil
}

// GetCurrentAudioPath returns the playable audio file of the current
// episode, or an empty string when there is none on disk.
func (m *EpisodeModel) GetCurrentAudioPath(ctx context.Context) (string, error) {
	_, audioPath, err := m.rs.GetCurrentEpisode(ctx)
	if err != nil {
		return "", err
	}
	if !fileExists(audioPath) {
		return "", nil
	}
	return audioPath, nil
}
