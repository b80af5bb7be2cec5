package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/listenup/listenup-server/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJanitorModel(t *testing.T) (*JanitorModel, *config.AppConfig) {
	t.Helper()
	app := newTestAppConfig(t)
	retention := 24 * time.Hour
	app.Podcast.DownloadRetention = &retention

	return &JanitorModel{
		app:    app,
		em:     newTestEpisodeModel(t, app),
		logger: app.Logger.WithField("model", "janitor"),
	}, app
}

func writeDownloadFile(t *testing.T, app *config.AppConfig, name string, age time.Duration) string {
	t.Helper()
	fullPath := filepath.Join(app.Podcast.DownloadPath, name)
	require.NoError(t, os.WriteFile(fullPath, []byte("audio"), 0644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(fullPath, old, old))
	return fullPath
}

func TestCleanupOldDownloads_RemovesExpiredFiles(t *testing.T) {
	m, app := newTestJanitorModel(t)

	expired := writeDownloadFile(t, app, "podcast_0000000001.mp3", 48*time.Hour)
	fresh := writeDownloadFile(t, app, "podcast_0000000002.mp3", time.Hour)

	m.cleanupOldDownloads()

	assert.NoFileExists(t, expired)
	assert.FileExists(t, fresh)
}

func TestCleanupOldDownloads_KeepsReferencedFiles(t *testing.T) {
	m, app := newTestJanitorModel(t)

	referenced := writeDownloadFile(t, app, "podcast_0000000003.mp3", 48*time.Hour)
	orphaned := writeDownloadFile(t, app, "podcast_0000000004.mp3", 48*time.Hour)

	episodeId := GetEpisodeId("https://cdn.example.com/episodes/kept.mp3")
	require.NoError(t, m.em.SaveCache(episodeId, &EpisodeCache{
		Segments:  testSegments(),
		AudioPath: referenced,
		Url:       "https://cdn.example.com/episodes/kept.mp3",
	}))

	m.cleanupOldDownloads()

	assert.FileExists(t, referenced)
	assert.NoFileExists(t, orphaned)
}

func TestCleanupOldDownloads_KeepDownloadsDisablesSweep(t *testing.T) {
	m, app := newTestJanitorModel(t)
	app.Podcast.KeepDownloads = true

	expired := writeDownloadFile(t, app, "podcast_0000000005.mp3", 48*time.Hour)

	m.cleanupOldDownloads()

	assert.FileExists(t, expired)
}

func TestReferencedAudioFiles_SkipsBrokenCacheEntries(t *testing.T) {
	m, app := newTestJanitorModel(t)

	episodeId := GetEpisodeId("https://cdn.example.com/episodes/good.mp3")
	require.NoError(t, m.em.SaveCache(episodeId, &EpisodeCache{
		Segments:  testSegments(),
		AudioPath: filepath.Join(app.Podcast.DownloadPath, "podcast_abcdef0123.mp3"),
	}))
	require.NoError(t, os.WriteFile(filepath.Join(app.Podcast.CachePath, "broken.json"), []byte("{nope"), 0644))

	referenced := m.referencedAudioFiles()

	assert.True(t, referenced["podcast_abcdef0123.mp3"])
	assert.Len(t, referenced, 1)
}
