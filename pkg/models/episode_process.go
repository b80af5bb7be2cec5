package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/dbmodels"
	transcribeservice "github.com/listenup/listenup-server/pkg/services/transcribe"
	"github.com/listenup/listenup-server/pkg/transcribe"
	"golang.org/x/sync/errgroup"
)

// ErrProcessingInProgress is returned when another episode is already
// being processed, only one pipeline runs at a time.
var ErrProcessingInProgress = errors.New(config.MsgProcessingInProgress)

// ProcessResult is the immediate answer of a process request.
type ProcessResult struct {
	Status       string `json:"status"`
	EpisodeId    string `json:"episode_id"`
	SegmentCount int64  `json:"segment_count,omitempty"`
}

// StartProcessing kicks off the pipeline for a feed url. When the episode
// was fully processed before and its audio is still on disk the call
// returns immediately with status "cached". Otherwise the pipeline runs in
// the background and the caller polls the status endpoint.
func (m *EpisodeModel) StartProcessing(ctx context.Context, url string) (*ProcessResult, error) {
	episodeId := GetEpisodeId(url)

	cached, err := m.LoadCache(episodeId)
	if err != nil {
		// a corrupt cache file should not block reprocessing
		m.logger.WithError(err).Warnln("discarding unreadable cache entry, episodeId:", episodeId)
		cached = nil
	}

	if cached != nil && fileExists(cached.AudioPath) {
		return &ProcessResult{
			Status:       "cached",
			EpisodeId:    episodeId,
			SegmentCount: int64(len(cached.Segments)),
		}, nil
	}

	acquired, lockValue, err := m.rs.LockEpisodeProcessing(ctx, config.ProcessingLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrProcessingInProgress
	}

	if err := m.rs.MarkProcessingStarted(ctx, episodeId); err != nil {
		_ = m.rs.UnlockEpisodeProcessing(ctx, lockValue)
		return nil, err
	}

	// the job must outlive the request context
	go m.processEpisode(context.Background(), url, episodeId, lockValue, cached)

	return &ProcessResult{Status: "started", EpisodeId: episodeId}, nil
}

func (m *EpisodeModel) processEpisode(ctx context.Context, url, episodeId, lockValue string, cached *EpisodeCache) {
	var (
		segmentCount int64
		procErr      error
	)

	defer func() {
		errMsg := ""
		if procErr != nil {
			errMsg = procErr.Error()
			m.logger.WithError(procErr).Errorln("episode processing failed, episodeId:", episodeId)
			m.rs.UpdateProcessingProgress(ctx, 0, "Erro: "+errMsg)
			if _, err := m.ds.UpdateEpisodeStatus(episodeId, dbmodels.EpisodeStatusFailed); err != nil {
				m.logger.WithError(err).Errorln("failed to mark episode row as failed")
			}
		}
		if err := m.rs.MarkProcessingFinished(ctx, errMsg, segmentCount); err != nil {
			m.logger.WithError(err).Errorln("failed to finalise processing status")
		}
		if err := m.rs.UnlockEpisodeProcessing(ctx, lockValue); err != nil {
			m.logger.WithError(err).Errorln("failed to release processing lock")
		}
	}()

	if cached != nil {
		segmentCount, procErr = m.replayFromCache(ctx, url, episodeId, cached)
		return
	}

	if _, err := m.ds.InsertOrUpdateEpisode(&dbmodels.Episode{
		EpisodeId: episodeId,
		Url:       url,
		Status:    dbmodels.EpisodeStatusProcessing,
	}); err != nil {
		m.logger.WithError(err).Warnln("failed to record episode row, episodeId:", episodeId)
	}

	// download
	m.rs.UpdateProcessingProgress(ctx, 5, config.MsgDownloading)
	audioPath, err := m.downloader.Download(ctx, url, m.stageProgress(ctx, 5, 15))
	if err != nil {
		procErr = err
		return
	}
	if err := m.rs.SetCurrentEpisode(ctx, episodeId, audioPath); err != nil {
		m.logger.WithError(err).Errorln("failed to set current episode")
	}
	if _, err := m.ds.UpdateEpisodeAudioPath(episodeId, audioPath); err != nil {
		m.logger.WithError(err).Warnln("failed to record audio path, episodeId:", episodeId)
	}

	// transcribe
	m.rs.UpdateProcessingProgress(ctx, 20, config.MsgTranscribing)
	raws, err := m.transcribeAudio(ctx, audioPath)
	if err != nil {
		procErr = err
		return
	}
	segments := transcribe.BuildSegments(raws)

	// translate
	m.rs.UpdateProcessingProgress(ctx, 80, config.MsgTranslating)
	translator, err := m.newTranslator(ctx)
	if err != nil {
		procErr = err
		return
	}
	segments = transcribeservice.TranslateSegments(ctx, translator, segments,
		m.app.Podcast.SourceLang, m.app.Podcast.TargetLang,
		m.app.Podcast.TranslationWorkers, m.stageProgress(ctx, 80, 20))

	if procErr = m.SaveCache(episodeId, &EpisodeCache{
		Segments:  segments,
		AudioPath: audioPath,
		Url:       url,
	}); procErr != nil {
		return
	}

	segmentCount = int64(len(segments))
	if _, err := m.ds.InsertOrUpdateEpisode(&dbmodels.Episode{
		EpisodeId:    episodeId,
		Url:          url,
		AudioPath:    audioPath,
		SegmentCount: segmentCount,
		DurationSec:  segmentsDuration(segments),
		Status:       dbmodels.EpisodeStatusReady,
	}); err != nil {
		m.logger.WithError(err).Warnln("failed to record ready episode row, episodeId:", episodeId)
	}

	m.rs.UpdateProcessingProgress(ctx, 100, fmt.Sprintf("Pronto! %d frases encontradas.", segmentCount))
}

// replayFromCache restores a previously processed episode, fetching the
// audio again when the download was cleaned up in the meantime.
func (m *EpisodeModel) replayFromCache(ctx context.Context, url, episodeId string, cached *EpisodeCache) (int64, error) {
	m.rs.UpdateProcessingProgress(ctx, 100, config.MsgLoadedFromCache)

	audioPath := cached.AudioPath
	if !fileExists(audioPath) {
		m.rs.UpdateProcessingProgress(ctx, 50, config.MsgRedownloadingAudio)

		var err error
		audioPath, err = m.downloader.Download(ctx, url, m.stageProgress(ctx, 50, 45))
		if err != nil {
			return 0, err
		}

		cached.AudioPath = audioPath
		if err := m.SaveCache(episodeId, cached); err != nil {
			return 0, err
		}
	}

	if err := m.rs.SetCurrentEpisode(ctx, episodeId, audioPath); err != nil {
		m.logger.WithError(err).Errorln("failed to set current episode")
	}

	segmentCount := int64(len(cached.Segments))
	if _, err := m.ds.InsertOrUpdateEpisode(&dbmodels.Episode{
		EpisodeId:    episodeId,
		Url:          url,
		AudioPath:    audioPath,
		SegmentCount: segmentCount,
		DurationSec:  segmentsDuration(cached.Segments),
		Status:       dbmodels.EpisodeStatusReady,
	}); err != nil {
		m.logger.WithError(err).Warnln("failed to record replayed episode row, episodeId:", episodeId)
	}

	m.rs.UpdateProcessingProgress(ctx, 100, fmt.Sprintf("Pronto! %d frases (cache)", segmentCount))
	return segmentCount, nil
}

// transcribeAudio runs the speech-to-text provider over the recording,
// splitting it first when it exceeds the provider's upload limit. Chunks
// are transcribed a few at a time and their timestamps shifted back onto
// the full recording's timeline.
func (m *EpisodeModel) transcribeAudio(ctx context.Context, audioPath string) ([]transcribe.RawSegment, error) {
	transcriber, err := m.newTranscriber()
	if err != nil {
		return nil, err
	}

	chunks, cleanup, err := m.chunker.SplitIfNeeded(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	lang := m.app.Podcast.SourceLang
	if len(chunks) == 1 {
		return transcriber.TranscribeFile(ctx, chunks[0].Path, lang)
	}

	results := make([][]transcribe.RawSegment, len(chunks))
	var finished atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i, chunk := range chunks {
		g.Go(func() error {
			raws, err := transcriber.TranscribeFile(gctx, chunk.Path, lang)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i+1, err)
			}
			for j := range raws {
				raws[j].Start += chunk.Offset
				raws[j].End += chunk.Offset
			}
			results[i] = raws

			n := finished.Add(1)
			m.rs.UpdateProcessingProgress(ctx, 20+float64(n)/float64(len(chunks))*55,
				fmt.Sprintf("Transcribing chunk %d/%d...", n, len(chunks)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []transcribe.RawSegment
	for _, raws := range results {
		all = append(all, raws...)
	}
	return all, nil
}

func (m *EpisodeModel) newTranscriber() (transcribe.Transcriber, error) {
	account, service, err := m.app.Insights.GetProviderAccountForService("transcription")
	if err != nil {
		return nil, err
	}
	return transcribeservice.NewTranscriber(service.Provider, account, service, m.app.Logger)
}

func (m *EpisodeModel) newTranslator(ctx context.Context) (transcribe.Translator, error) {
	account, service, err := m.app.Insights.GetProviderAccountForService("translation")
	if err != nil {
		return nil, err
	}
	return transcribeservice.NewTranslator(ctx, service.Provider, account, service, m.app.Logger)
}

// stageProgress maps a sub-task's own 0-100 progress into the pipeline's
// window starting at base, keeping the overall bar monotonic.
func (m *EpisodeModel) stageProgress(ctx context.Context, base, span float64) func(pct float64, status string) {
	return func(pct float64, status string) {
		m.rs.UpdateProcessingProgress(ctx, base+pct*span/100, status)
	}
}

func segmentsDuration(segments []transcribe.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
