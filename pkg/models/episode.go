package models

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/downloader"
	dbservice "github.com/listenup/listenup-server/pkg/services/db"
	"github.com/listenup/listenup-server/pkg/services/redis"
	"github.com/listenup/listenup-server/pkg/transcribe"
	"github.com/sirupsen/logrus"
)

// EpisodeModel owns the full processing pipeline of a single episode:
// download, transcription, translation and the cache/DB bookkeeping.
type EpisodeModel struct {
	app        *config.AppConfig
	ds         *dbservice.DatabaseService
	rs         *redisservice.RedisService
	downloader *downloader.Downloader
	chunker    *transcribe.Chunker
	logger     *logrus.Entry
}

func NewEpisodeModel(app *config.AppConfig, ds *dbservice.DatabaseService, rs *redisservice.RedisService, logger *logrus.Logger) *EpisodeModel {
	if app == nil {
		app = config.GetConfig()
	}
	if ds == nil {
		ds = dbservice.New(app.DB, logger)
	}
	if rs == nil {
		rs = redisservice.New(app.RDS, logger)
	}

	return &EpisodeModel{
		app:        app,
		ds:         ds,
		rs:         rs,
		downloader: downloader.New(&app.Podcast, logger),
		chunker:    transcribe.NewChunker(app.Podcast.FfmpegBin, logger),
		logger:     logger.WithField("model", "episode"),
	}
}

// GetEpisodeId derives the stable episode id of a feed url.
func GetEpisodeId(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])[:config.EpisodeIdLength]
}

// EpisodeCache is the on-disk record of a fully processed episode.
type EpisodeCache struct {
	Segments  []transcribe.Segment `json:"segments"`
	AudioPath string               `json:"audio_path"`
	Url       string               `json:"url"`
}

func (m *EpisodeModel) cachePath(episodeId string) string {
	return filepath.Join(m.app.Podcast.CachePath, episodeId+config.CacheFileExt)
}

// LoadCache reads the cache record of an episode. A missing file is not an
// error, it simply yields nil.
func (m *EpisodeModel) LoadCache(episodeId string) (*EpisodeCache, error) {
	data, err := os.ReadFile(m.cachePath(episodeId))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	entry := new(EpisodeCache)
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// SaveCache writes the cache record of an episode to disk.
func (m *EpisodeModel) SaveCache(episodeId string, entry *EpisodeCache) error {
	if err := os.MkdirAll(m.app.Podcast.CachePath, os.ModePerm); err != nil {
		return err
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.cachePath(episodeId), data, 0o644)
}

// HasCache reports whether an episode was fully processed before.
func (m *EpisodeModel) HasCache(episodeId string) bool {
	_, err := os.Stat(m.cachePath(episodeId))
	return err == nil
}
