package models

import (
	"context"
	"errors"
	"testing"

	"github.com/listenup/listenup-server/pkg/podcast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	info      *podcast.PodcastInfo
	episodes  []*podcast.EpisodeResult
	podcasts  []*podcast.PodcastResult
	lookupErr error

	lookupCalls []string
	searchCalls []string
}

func (f *fakeDirectory) SearchPodcasts(_ context.Context, term string) ([]*podcast.PodcastResult, error) {
	f.searchCalls = append(f.searchCalls, term)
	return f.podcasts, nil
}

func (f *fakeDirectory) LookupEpisodes(_ context.Context, podcastId string) (*podcast.PodcastInfo, []*podcast.EpisodeResult, error) {
	f.lookupCalls = append(f.lookupCalls, podcastId)
	if f.lookupErr != nil {
		return nil, nil, f.lookupErr
	}
	return f.info, f.episodes, nil
}

func newTestPodcastModel(t *testing.T, dir *fakeDirectory) *PodcastModel {
	t.Helper()
	app := newTestAppConfig(t)
	return &PodcastModel{
		app:    app,
		em:     newTestEpisodeModel(t, app),
		client: dir,
		logger: app.Logger.WithField("model", "podcast"),
	}
}

func TestLookup_AppleUrlListsEpisodes(t *testing.T) {
	dir := &fakeDirectory{
		info: &podcast.PodcastInfo{Name: "Huberman Lab", Artist: "Scicomm Media"},
		episodes: []*podcast.EpisodeResult{
			{Id: "1000111", Title: "Sleep", Url: "https://cdn.example.com/sleep.mp3"},
		},
	}
	m := newTestPodcastModel(t, dir)

	result, err := m.lookup(context.Background(), "https://podcasts.apple.com/us/podcast/huberman-lab/id1535809341")
	require.NoError(t, err)

	require.NotNil(t, result.Podcast)
	assert.Equal(t, "Huberman Lab", result.Podcast.Name)
	assert.Len(t, result.Episodes, 1)
	assert.Empty(t, result.Podcasts)
	assert.Equal(t, []string{"1535809341"}, dir.lookupCalls)
	assert.Empty(t, dir.searchCalls)
}

func TestLookup_FallsBackToTermSearch(t *testing.T) {
	dir := &fakeDirectory{
		lookupErr: errors.New("directory unreachable"),
		podcasts:  []*podcast.PodcastResult{{Id: "42", Name: "Some Show"}},
	}
	m := newTestPodcastModel(t, dir)

	result, err := m.lookup(context.Background(), "https://podcasts.apple.com/us/podcast/x/id42")
	require.NoError(t, err)

	assert.Nil(t, result.Podcast)
	assert.Len(t, result.Podcasts, 1)
	assert.Equal(t, []string{"42"}, dir.lookupCalls)
	assert.Equal(t, []string{"https://podcasts.apple.com/us/podcast/x/id42"}, dir.searchCalls)
}

func TestLookup_PlainTermNeverHitsLookup(t *testing.T) {
	dir := &fakeDirectory{
		podcasts: []*podcast.PodcastResult{{Id: "42", Name: "Some Show"}},
	}
	m := newTestPodcastModel(t, dir)

	result, err := m.lookup(context.Background(), "huberman lab")
	require.NoError(t, err)

	assert.Len(t, result.Podcasts, 1)
	assert.Empty(t, dir.lookupCalls)
}

func TestStampCachedFlags(t *testing.T) {
	m := newTestPodcastModel(t, &fakeDirectory{})

	processedUrl := "https://cdn.example.com/episodes/processed.mp3"
	require.NoError(t, m.em.SaveCache(GetEpisodeId(processedUrl), &EpisodeCache{Url: processedUrl}))

	episodes := []*podcast.EpisodeResult{
		{Id: "1", Url: processedUrl},
		{Id: "2", Url: "https://cdn.example.com/episodes/new.mp3"},
		{Id: "3"},
	}
	m.stampCachedFlags(episodes)

	assert.True(t, episodes[0].Cached)
	assert.False(t, episodes[1].Cached)
	assert.False(t, episodes[2].Cached)
}
