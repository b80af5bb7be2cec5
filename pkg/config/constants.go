package config

import "time"

const (
	// EpisodeIdLength is how many hex chars of md5(url) identify an episode.
	EpisodeIdLength = 16
	// DownloadHashLength is how many hex chars of md5(url) go into the audio filename.
	DownloadHashLength = 10

	DownloadFilePrefix = "podcast_"
	CacheFileExt       = ".json"

	DefaultTranslationWorkers = 4

	// all the time.Sleep() values
	WaitBeforeJanitorFirstRun = 30 * time.Second

	ProcessingLockTTL = 30 * time.Minute
)
