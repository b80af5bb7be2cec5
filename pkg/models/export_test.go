package models

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/logging"
	"github.com/listenup/listenup-server/pkg/transcribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	validity := 30 * time.Minute
	return &config.AppConfig{
		Logger: logging.NewTestLogger(),
		Client: config.ClientInfo{
			ApiKey:        "testapikey",
			Secret:        "testsecretvalue",
			TokenValidity: &validity,
		},
		Podcast: config.PodcastSettings{
			DownloadPath: t.TempDir(),
			CachePath:    t.TempDir(),
			SourceLang:   "en",
			TargetLang:   "pt",
		},
	}
}

func newTestEpisodeModel(t *testing.T, app *config.AppConfig) *EpisodeModel {
	t.Helper()
	return &EpisodeModel{
		app:    app,
		logger: app.Logger.WithField("model", "episode"),
	}
}

func testSegments() []transcribe.Segment {
	first := transcribe.NewSegment(0, 0, 2.5, "Hello world.")
	first.Translation = "Ola mundo."
	second := transcribe.NewSegment(1, 2.5, 5, "Second line here.")
	return []transcribe.Segment{first, second}
}

func newTestExportModel(t *testing.T) (*ExportModel, string) {
	t.Helper()
	app := newTestAppConfig(t)
	em := newTestEpisodeModel(t, app)

	episodeId := GetEpisodeId("https://cdn.example.com/episodes/sleep.mp3")
	require.NoError(t, em.SaveCache(episodeId, &EpisodeCache{
		Segments: testSegments(),
		Url:      "https://cdn.example.com/episodes/sleep.mp3",
	}))

	return &ExportModel{
		app:    app,
		em:     em,
		logger: app.Logger.WithField("model", "export"),
	}, episodeId
}

func TestExportToken_RoundTrip(t *testing.T) {
	m, episodeId := newTestExportModel(t)

	token, err := m.GetExportToken(episodeId, "srt")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	gotId, gotFormat, status, err := m.VerifyExportToken(token)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, episodeId, gotId)
	assert.Equal(t, "srt", gotFormat)
}

func TestExportToken_RejectsUnknownEpisode(t *testing.T) {
	m, _ := newTestExportModel(t)

	_, err := m.GetExportToken("0000000000000000", "srt")
	assert.ErrorContains(t, err, config.MsgEpisodeNotInCache)
}

func TestExportToken_RejectsUnknownFormat(t *testing.T) {
	m, episodeId := newTestExportModel(t)

	_, err := m.GetExportToken(episodeId, "pdf")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestVerifyExportToken_RejectsExpired(t *testing.T) {
	m, episodeId := newTestExportModel(t)

	// stay clear of the validator's default leeway
	expired := -5 * time.Minute
	m.app.Client.TokenValidity = &expired

	token, err := m.GetExportToken(episodeId, "vtt")
	require.NoError(t, err)

	_, _, status, err := m.VerifyExportToken(token)
	assert.Error(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestVerifyExportToken_RejectsForeignSignature(t *testing.T) {
	m, episodeId := newTestExportModel(t)

	token, err := m.GetExportToken(episodeId, "srt")
	require.NoError(t, err)

	m.app.Client.Secret = "adifferentsecret"
	_, _, status, err := m.VerifyExportToken(token)
	assert.Error(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRenderExport_SRT(t *testing.T) {
	m, episodeId := newTestExportModel(t)

	content, fileName, contentType, err := m.RenderExport(episodeId, "srt")
	require.NoError(t, err)

	assert.Equal(t, episodeId+".srt", fileName)
	assert.Equal(t, "application/x-subrip", contentType)
	assert.Equal(t,
		"1\n00:00:00,000 --> 00:00:02,500\nHello world.\nOla mundo.\n\n"+
			"2\n00:00:02,500 --> 00:00:05,000\nSecond line here.\n\n",
		string(content))
}

func TestRenderExport_VTT(t *testing.T) {
	m, episodeId := newTestExportModel(t)

	content, fileName, contentType, err := m.RenderExport(episodeId, "vtt")
	require.NoError(t, err)

	assert.Equal(t, episodeId+".vtt", fileName)
	assert.Equal(t, "text/vtt", contentType)
	assert.Equal(t,
		"WEBVTT\n\n"+
			"00:00:00.000 --> 00:00:02.500\nHello world.\nOla mundo.\n\n"+
			"00:00:02.500 --> 00:00:05.000\nSecond line here.\n\n",
		string(content))
}

func TestRenderExport_JSON(t *testing.T) {
	m, episodeId := newTestExportModel(t)

	content, fileName, contentType, err := m.RenderExport(episodeId, "json")
	require.NoError(t, err)

	assert.Equal(t, episodeId+".json", fileName)
	assert.Equal(t, "application/json", contentType)

	var segments []transcribe.Segment
	require.NoError(t, json.Unmarshal(content, &segments))
	require.Len(t, segments, 2)
	assert.Equal(t, "Hello world.", segments[0].Text)
	assert.Equal(t, "Ola mundo.", segments[0].Translation)
}
