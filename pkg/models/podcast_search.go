package models

import (
	"context"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/podcast"
	"github.com/listenup/listenup-server/pkg/services/redis"
	"github.com/sirupsen/logrus"
)

const defaultSearchCacheTTL = 15 * time.Minute

// podcastDirectory is what the model needs from the directory client.
type podcastDirectory interface {
	SearchPodcasts(ctx context.Context, term string) ([]*podcast.PodcastResult, error)
	LookupEpisodes(ctx context.Context, podcastId string) (*podcast.PodcastInfo, []*podcast.EpisodeResult, error)
}

// PodcastModel answers directory queries: free text search plus the
// episode listing behind an Apple Podcasts show url.
type PodcastModel struct {
	app    *config.AppConfig
	rs     *redisservice.RedisService
	em     *EpisodeModel
	client podcastDirectory
	logger *logrus.Entry
}

func NewPodcastModel(app *config.AppConfig, rs *redisservice.RedisService, em *EpisodeModel, logger *logrus.Logger) *PodcastModel {
	if app == nil {
		app = config.GetConfig()
	}
	if rs == nil {
		rs = redisservice.New(app.RDS, logger)
	}
	if em == nil {
		em = NewEpisodeModel(app, nil, rs, logger)
	}

	return &PodcastModel{
		app:    app,
		rs:     rs,
		em:     em,
		client: podcast.NewClient(logger),
		logger: logger.WithField("model", "podcast"),
	}
}

// SearchResult is the directory answer. A show url query fills Podcast
// and Episodes, a free text query fills Podcasts.
type SearchResult struct {
	Podcast  *podcast.PodcastInfo     `json:"podcast,omitempty"`
	Episodes []*podcast.EpisodeResult `json:"episodes,omitempty"`
	Podcasts []*podcast.PodcastResult `json:"podcasts,omitempty"`
}

// Search resolves a query against the directory, serving repeated queries
// from a short-lived cache. The per-episode cached flags are stamped fresh
// on every call, they change whenever an episode finishes processing.
func (m *PodcastModel) Search(ctx context.Context, query string) (*SearchResult, error) {
	if data, err := m.rs.GetCachedSearchResult(ctx, query); err != nil {
		m.logger.WithError(err).Warnln("search cache read failed")
	} else if data != nil {
		result := new(SearchResult)
		if err := json.Unmarshal(data, result); err == nil {
			m.stampCachedFlags(result.Episodes)
			return result, nil
		}
		m.logger.Warnln("discarding unreadable search cache entry for query:", query)
	}

	result, err := m.lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := m.rs.CacheSearchResult(ctx, query, data, m.searchCacheTTL()); err != nil {
			m.logger.WithError(err).Warnln("search cache write failed")
		}
	}

	m.stampCachedFlags(result.Episodes)
	return result, nil
}

func (m *PodcastModel) lookup(ctx context.Context, query string) (*SearchResult, error) {
	if strings.Contains(query, "podcasts.apple.com") {
		if podcastId := podcast.ExtractAppleId(query); podcastId != "" {
			info, episodes, err := m.client.LookupEpisodes(ctx, podcastId)
			switch {
			case err != nil:
				// an unreachable lookup degrades to a term search
				m.logger.WithError(err).Warnln("episode lookup failed for id:", podcastId)
			case info != nil:
				return &SearchResult{Podcast: info, Episodes: episodes}, nil
			}
		}
	}

	podcasts, err := m.client.SearchPodcasts(ctx, query)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Podcasts: podcasts}, nil
}

func (m *PodcastModel) stampCachedFlags(episodes []*podcast.EpisodeResult) {
	for _, ep := range episodes {
		if ep.Url != "" {
			ep.Cached = m.em.HasCache(GetEpisodeId(ep.Url))
		}
	}
}

func (m *PodcastModel) searchCacheTTL() time.Duration {
	if m.app.Podcast.SearchCacheTTL != nil {
		return *m.app.Podcast.SearchCacheTTL
	}
	return defaultSearchCacheTTL
}
