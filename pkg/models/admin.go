package models

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/listenup/listenup-server/pkg/config"
	dbservice "github.com/listenup/listenup-server/pkg/services/db"
	redisservice "github.com/listenup/listenup-server/pkg/services/redis"
	"github.com/sirupsen/logrus"
)

var (
	ErrEpisodeNotFound   = errors.New("episode not found")
	ErrEpisodeInProgress = errors.New("episode is currently being processed")
)

// AdminModel serves the authenticated maintenance API: episode listing
// and purging.
type AdminModel struct {
	app    *config.AppConfig
	ds     *dbservice.DatabaseService
	rs     *redisservice.RedisService
	em     *EpisodeModel
	logger *logrus.Entry
}

func NewAdminModel(app *config.AppConfig, ds *dbservice.DatabaseService, rs *redisservice.RedisService, logger *logrus.Logger) *AdminModel {
	if app == nil {
		app = config.GetConfig()
	}
	if ds == nil {
		ds = dbservice.New(app.DB, logger)
	}
	if rs == nil {
		rs = redisservice.New(app.RDS, logger)
	}

	return &AdminModel{
		app:    app,
		ds:     ds,
		rs:     rs,
		em:     NewEpisodeModel(app, ds, rs, logger),
		logger: logger.WithField("model", "admin"),
	}
}

// EpisodeEntry is one row of the admin episode listing.
type EpisodeEntry struct {
	EpisodeId    string  `json:"episode_id"`
	Url          string  `json:"url"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	SegmentCount int64   `json:"segment_count"`
	DurationSec  float64 `json:"duration_sec"`
	HasCache     bool    `json:"has_cache"`
	Created      string  `json:"created"`
}

type EpisodeListResult struct {
	Total    int64          `json:"total"`
	Episodes []EpisodeEntry `json:"episodes"`
}

// ListEpisodes returns a page of the episodes table, newest first by default.
func (m *AdminModel) ListEpisodes(offset, limit uint64, orderBy, status string) (*EpisodeListResult, error) {
	// the order value ends up inside the query, never pass it through raw
	if orderBy != "ASC" {
		orderBy = "DESC"
	}

	episodes, total, err := m.ds.GetEpisodes(offset, limit, orderBy, status)
	if err != nil {
		return nil, err
	}

	result := &EpisodeListResult{
		Total:    total,
		Episodes: make([]EpisodeEntry, 0, len(episodes)),
	}
	for _, episode := range episodes {
		result.Episodes = append(result.Episodes, EpisodeEntry{
			EpisodeId:    episode.EpisodeId,
			Url:          episode.Url,
			Title:        episode.Title,
			Status:       episode.Status,
			SegmentCount: episode.SegmentCount,
			DurationSec:  episode.DurationSec,
			HasCache:     m.em.HasCache(episode.EpisodeId),
			Created:      episode.Created.Format(time.RFC3339),
		})
	}

	return result, nil
}

// PurgeEpisode removes every trace of an episode: the cached transcript,
// the downloaded audio and the DB row. A run that is currently processing
// this episode blocks the purge.
func (m *AdminModel) PurgeEpisode(ctx context.Context, episodeId string) error {
	status, err := m.rs.GetProcessingStatus(ctx)
	if err != nil {
		return err
	}
	if status.IsProcessing && status.EpisodeId == episodeId {
		return ErrEpisodeInProgress
	}

	var found bool
	audioPaths := make(map[string]bool)

	cache, err := m.em.LoadCache(episodeId)
	if err != nil {
		m.logger.WithError(err).Warnln("unreadable cache file, purging anyway")
	}
	if cache != nil {
		found = true
		if cache.AudioPath != "" {
			audioPaths[cache.AudioPath] = true
		}
	}

	row, err := m.ds.GetEpisodeByEpisodeId(episodeId)
	if err != nil {
		return err
	}
	if row != nil {
		found = true
		if row.AudioPath != "" {
			audioPaths[row.AudioPath] = true
		}
	}

	if !found {
		return ErrEpisodeNotFound
	}

	for audioPath := range audioPaths {
		if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
			m.logger.WithError(err).Errorf("failed to remove audio file %s", audioPath)
		}
	}
	if err := os.Remove(m.em.cachePath(episodeId)); err != nil && !os.IsNotExist(err) {
		m.logger.WithError(err).Errorln("failed to remove cache file")
	}

	if _, err := m.ds.DeleteEpisode(episodeId); err != nil {
		return err
	}

	// the segments endpoint must not keep serving a purged episode
	currentId, _, err := m.rs.GetCurrentEpisode(ctx)
	if err == nil && currentId == episodeId {
		if err := m.rs.SetCurrentEpisode(ctx, "", ""); err != nil {
			m.logger.WithError(err).Errorln("failed to clear current episode")
		}
	}

	m.logger.WithField("episodeId", episodeId).Infoln("episode purged")
	return nil
}
