package redisservice

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	ProcessingStatusKey = Prefix + "processing_status"
	CurrentEpisodeKey   = Prefix + "current_episode"
)

// ProcessingStatus mirrors what the status endpoint reports to the client.
type ProcessingStatus struct {
	Progress     float64 `json:"progress"`
	Message      string  `json:"message"`
	IsProcessing bool    `json:"is_processing"`
	Error        string  `json:"error"`
	EpisodeId    string  `json:"episode_id"`
	SegmentCount int64   `json:"segment_count"`
}

// MarkProcessingStarted resets the status hash for a new pipeline run.
func (s *RedisService) MarkProcessingStarted(ctx context.Context, episodeId string) error {
	pipe := s.rc.TxPipeline()
	pipe.HSet(ctx, ProcessingStatusKey, map[string]interface{}{
		"progress":      0,
		"message":       "",
		"is_processing": 1,
		"error":         "",
		"episode_id":    episodeId,
		"segment_count": 0,
	})
	_, err := pipe.Exec(ctx)
	return err
}

// UpdateProcessingProgress publishes a progress percentage with a user-facing message.
func (s *RedisService) UpdateProcessingProgress(ctx context.Context, progress float64, message string) {
	err := s.rc.HSet(ctx, ProcessingStatusKey, map[string]interface{}{
		"progress": progress,
		"message":  message,
	}).Err()
	if err != nil {
		s.logger.WithError(err).Errorln("failed to update processing progress")
	}
}

// MarkProcessingFinished finalises the status hash. An empty errMsg means success.
func (s *RedisService) MarkProcessingFinished(ctx context.Context, errMsg string, segmentCount int64) error {
	fields := map[string]interface{}{
		"is_processing": 0,
		"segment_count": segmentCount,
	}
	if errMsg != "" {
		fields["error"] = errMsg
	}
	return s.rc.HSet(ctx, ProcessingStatusKey, fields).Err()
}

// GetProcessingStatus reads the full status hash.
// A missing hash yields the idle zero-value status.
func (s *RedisService) GetProcessingStatus(ctx context.Context) (*ProcessingStatus, error) {
	result, err := s.rc.HGetAll(ctx, ProcessingStatusKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return &ProcessingStatus{}, nil
	case err != nil:
		return nil, err
	}

	status := &ProcessingStatus{
		Message:   result["message"],
		Error:     result["error"],
		EpisodeId: result["episode_id"],
	}
	if v, err := strconv.ParseFloat(result["progress"], 64); err == nil {
		status.Progress = v
	}
	if v, err := strconv.ParseInt(result["segment_count"], 10, 64); err == nil {
		status.SegmentCount = v
	}
	status.IsProcessing = result["is_processing"] == "1"

	return status, nil
}

// SetCurrentEpisode records which episode the segments/audio endpoints serve.
func (s *RedisService) SetCurrentEpisode(ctx context.Context, episodeId, audioPath string) error {
	return s.rc.HSet(ctx, CurrentEpisodeKey, map[string]interface{}{
		"episode_id": episodeId,
		"audio_path": audioPath,
	}).Err()
}

// GetCurrentEpisode returns the episode id and audio path of the active episode.
func (s *RedisService) GetCurrentEpisode(ctx context.Context) (episodeId, audioPath string, err error) {
	result, err := s.rc.HGetAll(ctx, CurrentEpisodeKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", "", nil
	case err != nil:
		return "", "", err
	}

	return result["episode_id"], result["audio_path"], nil
}
