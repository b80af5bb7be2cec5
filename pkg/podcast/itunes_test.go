package podcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/listenup/listenup-server/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
  "resultCount": 2,
  "results": [
    {
      "wrapperType": "track",
      "collectionId": 1535809341,
      "collectionName": "Huberman Lab",
      "artistName": "Scicomm Media",
      "artworkUrl600": "https://example.com/artwork600.jpg",
      "collectionViewUrl": "https://podcasts.apple.com/us/podcast/huberman-lab/id1535809341"
    },
    {
      "wrapperType": "track",
      "collectionId": 360084272,
      "collectionName": "The Joe Rogan Experience",
      "artistName": "Joe Rogan",
      "artworkUrl600": "https://example.com/jre600.jpg",
      "collectionViewUrl": "https://podcasts.apple.com/us/podcast/jre/id360084272"
    }
  ]
}`

const lookupFixture = `{
  "resultCount": 4,
  "results": [
    {
      "wrapperType": "track",
      "collectionId": 1535809341,
      "collectionName": "Huberman Lab",
      "artistName": "Scicomm Media",
      "artworkUrl600": "https://example.com/artwork600.jpg"
    },
    {
      "wrapperType": "podcastEpisode",
      "trackId": 1000111,
      "trackName": "How to Improve Your Sleep",
      "description": "LONG_DESCRIPTION",
      "trackTimeMillis": 1845000,
      "releaseDate": "2024-03-15T10:00:00Z",
      "episodeUrl": "https://cdn.example.com/episodes/sleep.mp3"
    },
    {
      "wrapperType": "podcastEpisode",
      "trackId": 1000112,
      "trackName": "Episode Without Audio"
    },
    {
      "wrapperType": "collection",
      "trackId": 1000113,
      "trackName": "Not An Episode",
      "episodeUrl": "https://cdn.example.com/other.mp3"
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(logging.NewTestLogger())
	client.baseURL = srv.URL
	return client
}

func TestExtractAppleId(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"https://podcasts.apple.com/us/podcast/huberman-lab/id1535809341", "1535809341"},
		{"https://podcasts.apple.com/us/podcast/huberman-lab/id1535809341?i=1000650", "1535809341"},
		{"huberman lab", ""},
		{"https://podcasts.apple.com/us/podcast/no-numeric-part", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractAppleId(tt.query), "query: %q", tt.query)
	}
}

func TestSearchPodcasts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "huberman", r.URL.Query().Get("term"))
		assert.Equal(t, "podcast", r.URL.Query().Get("entity"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(searchFixture))
	})

	podcasts, err := client.SearchPodcasts(context.Background(), "huberman")
	require.NoError(t, err)
	require.Len(t, podcasts, 2)

	assert.Equal(t, "1535809341", podcasts[0].Id)
	assert.Equal(t, "Huberman Lab", podcasts[0].Name)
	assert.Equal(t, "Scicomm Media", podcasts[0].Artist)
	assert.Equal(t, "https://example.com/artwork600.jpg", podcasts[0].Artwork)
	assert.Equal(t, "https://podcasts.apple.com/us/podcast/huberman-lab/id1535809341", podcasts[0].Url)
}

func TestLookupEpisodes(t *testing.T) {
	longDescription := strings.Repeat("In this episode we discuss the science of sleep. ", 10)
	fixture := strings.Replace(lookupFixture, "LONG_DESCRIPTION", longDescription, 1)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lookup", r.URL.Path)
		assert.Equal(t, "1535809341", r.URL.Query().Get("id"))
		assert.Equal(t, "podcastEpisode", r.URL.Query().Get("entity"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(fixture))
	})

	info, episodes, err := client.LookupEpisodes(context.Background(), "1535809341")
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.Equal(t, "Huberman Lab", info.Name)
	assert.Equal(t, "Scicomm Media", info.Artist)

	// The entry without an audio url and the non-episode entry are skipped.
	require.Len(t, episodes, 1)
	ep := episodes[0]
	assert.Equal(t, "1000111", ep.Id)
	assert.Equal(t, "How to Improve Your Sleep", ep.Title)
	assert.Equal(t, int64(1845), ep.Duration)
	assert.Equal(t, "2024-03-15", ep.Date)
	assert.Equal(t, "https://cdn.example.com/episodes/sleep.mp3", ep.Url)
	assert.False(t, ep.Cached)
	assert.True(t, strings.HasSuffix(ep.Description, "..."))
	assert.LessOrEqual(t, len(ep.Description), descriptionMaxLen+3)
}

func TestLookupEpisodes_UnknownId(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resultCount": 0, "results": []}`))
	})

	info, episodes, err := client.LookupEpisodes(context.Background(), "999")
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Empty(t, episodes)
}
