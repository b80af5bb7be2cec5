package models

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/dbmodels"
	dbservice "github.com/listenup/listenup-server/pkg/services/db"
	redisservice "github.com/listenup/listenup-server/pkg/services/redis"
	"github.com/sirupsen/logrus"
)

// JanitorModel performs various background cleanup and maintenance tasks for the application.
type JanitorModel struct {
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	app    *config.AppConfig
	ds     *dbservice.DatabaseService
	rs     *redisservice.RedisService
	em     *EpisodeModel
	logger *logrus.Entry

	// leader election for janitor
	leaderLockVal string
	leaderLockTTL time.Duration
	leaderRenewal time.Duration
}

// NewJanitorModel creates a new JanitorModel.
func NewJanitorModel(mainCtx context.Context, app *config.AppConfig, ds *dbservice.DatabaseService, rs *redisservice.RedisService, em *EpisodeModel, logger *logrus.Logger) *JanitorModel {
	ctx, cancel := context.WithCancel(mainCtx)

	return &JanitorModel{
		ctx:    ctx,
		cancel: cancel,
		app:    app,
		ds:     ds,
		rs:     rs,
		em:     em,
		logger: logger.WithField("model", "janitor"),

		leaderLockTTL: 1 * time.Minute,
		leaderRenewal: 30 * time.Second,
	}
}

// StartJanitor starts the background janitor process.
// It uses a leader election mechanism to ensure only one instance runs the tasks.
func (m *JanitorModel) StartJanitor() {
	m.logger.Infoln("Janitor starting, attempting to acquire leader lock...")

	for {
		select {
		case <-m.ctx.Done():
			m.logger.WithError(m.ctx.Err()).Infoln("Janitor shutdown completed")
			return
		default:
			acquired, lockVal, err := m.rs.AcquireJanitorLeaderLock(m.ctx, m.leaderLockTTL)
			if err != nil {
				m.logger.WithError(err).Errorln("Failed to check for janitor leader lock")
				// Wait before retrying to avoid spamming Redis on error
				time.Sleep(m.leaderRenewal)
				continue
			}

			if acquired {
				m.logger.WithField("lockVal", lockVal).Infoln("Acquired janitor leader lock. Starting tasks.")
				m.mu.Lock()
				m.leaderLockVal = lockVal
				m.mu.Unlock()
				// We are the leader. Run the tasks until we lose the lock or context is canceled.
				m.runJanitorTasks()
				m.logger.Warnln("Stopped being the janitor leader.")
			} else {
				// Not the leader, wait and try again later.
				time.Sleep(m.leaderRenewal)
			}
		}
	}
}

// runJanitorTasks contains the main loop for performing cleanup tasks.
// This is only executed by the instance that holds the leader lock.
func (m *JanitorModel) runJanitorTasks() {
	// Lock renewal ticker
	renewalTicker := time.NewTicker(m.leaderRenewal)
	defer renewalTicker.Stop()

	// Task ticker runs at the highest frequency needed.
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	// Set initial schedules for less frequent tasks.
	nextRowSweep := time.Now().Add(config.WaitBeforeJanitorFirstRun)
	nextDownloadSweep := time.Now().Add(config.WaitBeforeJanitorFirstRun)

	for {
		select {
		case <-m.ctx.Done():
			// Context canceled
			return
		case now := <-ticker.C:
			// These tasks run on their own schedule.
			// The individual guards inside each task ensure safety if the leader changes mid-operation.
			m.checkAbandonedProcessing()

			if now.After(nextRowSweep) {
				m.reconcileEpisodeRows()
				nextRowSweep = time.Now().Add(15 * time.Minute)
			}
			if now.After(nextDownloadSweep) {
				m.cleanupOldDownloads()
				nextDownloadSweep = time.Now().Add(time.Hour)
			}
		case <-renewalTicker.C:
			// Copy the lock value to a local var to avoid holding the lock during a network call.
			m.mu.RLock()
			currentLockVal := m.leaderLockVal
			m.mu.RUnlock()

			// Renew the leader lock.
			renewed, err := m.rs.RenewJanitorLeaderLock(m.ctx, currentLockVal, m.leaderLockTTL)
			if err != nil {
				m.logger.WithError(err).Errorln("Failed to renew janitor leader lock")
			}
			if !renewed {
				// We lost the lock. Stop being the leader and return to the election loop.
				return
			}
		}
	}
}

// checkAbandonedProcessing repairs the status hash after a crashed pipeline.
// The processing lock carries a TTL, so when a job dies without reporting
// back, the lock eventually expires while the status hash still claims a run
// is active. That would block every future process request forever.
func (m *JanitorModel) checkAbandonedProcessing() {
	status, err := m.rs.GetProcessingStatus(m.ctx)
	if err != nil {
		m.logger.WithError(err).Errorln("failed to read processing status")
		return
	}
	if !status.IsProcessing {
		return
	}

	locked, err := m.rs.IsEpisodeProcessing(m.ctx)
	if err != nil {
		m.logger.WithError(err).Errorln("failed to check processing lock")
		return
	}
	if locked {
		// A live job holds the lock, nothing to repair.
		return
	}

	log := m.logger.WithField("task", "abandoned_processing")
	log.WithField("episodeId", status.EpisodeId).Warnln("processing status active without a lock, marking the run as failed")

	m.rs.UpdateProcessingProgress(m.ctx, 0, "Erro: processamento interrompido")
	if err := m.rs.MarkProcessingFinished(m.ctx, "processamento interrompido", 0); err != nil {
		log.WithError(err).Errorln("failed to finalise abandoned processing status")
	}
	if status.EpisodeId != "" {
		if _, err := m.ds.UpdateEpisodeStatus(status.EpisodeId, dbmodels.EpisodeStatusFailed); err != nil {
			log.WithError(err).Errorln("failed to mark abandoned episode row as failed")
		}
	}
}

// reconcileEpisodeRows brings the episodes table back in line with reality:
// rows stuck in processing past the lock TTL become failed, ready rows whose
// cache file is gone are removed, and failed rows past the retention window
// are removed as well.
func (m *JanitorModel) reconcileEpisodeRows() {
	log := m.logger.WithField("task", "episode_row_sweep")

	episodes, err := m.ds.GetEpisodesOlderThan(time.Now().Unix())
	if err != nil {
		log.WithError(err).Errorln("failed to fetch episode rows")
		return
	}

	retention := *m.app.Podcast.DownloadRetention
	for _, episode := range episodes {
		age := time.Since(time.Unix(episode.CreationTime, 0))

		switch episode.Status {
		case dbmodels.EpisodeStatusProcessing:
			// The processing lock TTL is the upper bound of a pipeline run.
			if age > config.ProcessingLockTTL {
				log.WithField("episodeId", episode.EpisodeId).Warnln("episode stuck in processing, marking as failed")
				if _, err := m.ds.UpdateEpisodeStatus(episode.EpisodeId, dbmodels.EpisodeStatusFailed); err != nil {
					log.WithError(err).Errorln("failed to update stuck episode row")
				}
			}
		case dbmodels.EpisodeStatusReady:
			if !m.em.HasCache(episode.EpisodeId) {
				log.WithField("episodeId", episode.EpisodeId).Infoln("cache file gone, removing orphaned episode row")
				if _, err := m.ds.DeleteEpisode(episode.EpisodeId); err != nil {
					log.WithError(err).Errorln("failed to delete orphaned episode row")
				}
			}
		case dbmodels.EpisodeStatusFailed:
			if age > retention {
				if _, err := m.ds.DeleteEpisode(episode.EpisodeId); err != nil {
					log.WithError(err).Errorln("failed to delete expired failed episode row")
				}
			}
		}
	}
}

// cleanupOldDownloads removes downloaded audio files past the retention
// window. Files still referenced by a cached episode are kept so the replay
// path can serve them without re-downloading.
func (m *JanitorModel) cleanupOldDownloads() {
	if m.app.Podcast.KeepDownloads {
		return
	}

	log := m.logger.WithField("task", "download_sweep")

	entries, err := os.ReadDir(m.app.Podcast.DownloadPath)
	if err != nil {
		log.WithError(err).Errorln("failed to read download directory")
		return
	}

	referenced := m.referencedAudioFiles()
	checkTime := time.Now().Add(-*m.app.Podcast.DownloadRetention)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(checkTime) {
			continue
		}
		if referenced[entry.Name()] {
			continue
		}

		fullPath := filepath.Join(m.app.Podcast.DownloadPath, entry.Name())
		if err := os.Remove(fullPath); err != nil {
			log.WithError(err).Errorf("failed to remove expired download %s", fullPath)
			continue
		}
		log.WithField("file", entry.Name()).Infoln("removed expired download")
	}
}

// referencedAudioFiles lists the base names of every audio file a cached
// episode points at.
func (m *JanitorModel) referencedAudioFiles() map[string]bool {
	referenced := make(map[string]bool)

	entries, err := os.ReadDir(m.app.Podcast.CachePath)
	if err != nil {
		m.logger.WithError(err).Errorln("failed to read cache directory")
		return referenced
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), config.CacheFileExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.app.Podcast.CachePath, entry.Name()))
		if err != nil {
			continue
		}
		cache := new(EpisodeCache)
		if err := json.Unmarshal(data, cache); err != nil {
			continue
		}
		if cache.AudioPath != "" {
			referenced[filepath.Base(cache.AudioPath)] = true
		}
	}

	return referenced
}

func (m *JanitorModel) Shutdown() {
	m.logger.Infoln("Janitor shutting down.")
	// Copy the lock value to a local var to avoid holding the lock during a network call.
	m.mu.RLock()
	currentLockVal := m.leaderLockVal
	m.mu.RUnlock()

	if err := m.rs.ReleaseJanitorLeaderLock(m.ctx, currentLockVal); err != nil {
		m.logger.WithError(err).Errorln("failed to release janitor leader lock")
	}
	m.cancel()
}
