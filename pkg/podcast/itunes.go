package podcast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/listenup/listenup-server/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://itunes.apple.com"

	// Limits the directory API applies per request type.
	searchLimit = 10
	lookupLimit = 50

	descriptionMaxLen = 200
)

var appleIdRe = regexp.MustCompile(`/id(\d+)`)

// PodcastResult is one show from a term search.
type PodcastResult struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Artist  string `json:"artist"`
	Artwork string `json:"artwork"`
	Url     string `json:"url"`
}

// EpisodeResult is one playable episode of a show. Cached is filled by the
// caller, the directory has no idea what we processed before.
type EpisodeResult struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int64  `json:"duration"`
	Date        string `json:"date"`
	Url         string `json:"url"`
	Cached      bool   `json:"cached"`
}

// PodcastInfo describes the show an episode listing belongs to.
type PodcastInfo struct {
	Name    string `json:"name"`
	Artist  string `json:"artist"`
	Artwork string `json:"artwork"`
}

type itunesResult struct {
	WrapperType       string `json:"wrapperType"`
	CollectionId      int64  `json:"collectionId"`
	CollectionName    string `json:"collectionName"`
	ArtistName        string `json:"artistName"`
	ArtworkUrl600     string `json:"artworkUrl600"`
	CollectionViewUrl string `json:"collectionViewUrl"`
	TrackId           int64  `json:"trackId"`
	TrackName         string `json:"trackName"`
	Description       string `json:"description"`
	TrackTimeMillis   int64  `json:"trackTimeMillis"`
	ReleaseDate       string `json:"releaseDate"`
	EpisodeUrl        string `json:"episodeUrl"`
}

type itunesResponse struct {
	ResultCount int64          `json:"resultCount"`
	Results     []itunesResult `json:"results"`
}

// Client queries the public iTunes directory API.
type Client struct {
	client  *http.Client
	logger  *logrus.Entry
	baseURL string
}

func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.WithField("service", "itunes"),
		baseURL: defaultBaseURL,
	}
}

// ExtractAppleId pulls the numeric show id out of an Apple Podcasts URL.
// Returns an empty string when the query carries no id.
func ExtractAppleId(query string) string {
	match := appleIdRe.FindStringSubmatch(query)
	if match == nil {
		return ""
	}
	return match[1]
}

// SearchPodcasts runs a term search and returns matching shows.
func (c *Client) SearchPodcasts(ctx context.Context, term string) ([]*PodcastResult, error) {
	params := url.Values{}
	params.Set("term", term)
	params.Set("entity", "podcast")
	params.Set("limit", strconv.Itoa(searchLimit))

	res, err := c.get(ctx, c.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	podcasts := make([]*PodcastResult, 0, len(res.Results))
	for _, p := range res.Results {
		podcasts = append(podcasts, &PodcastResult{
			Id:      strconv.FormatInt(p.CollectionId, 10),
			Name:    p.CollectionName,
			Artist:  p.ArtistName,
			Artwork: p.ArtworkUrl600,
			Url:     p.CollectionViewUrl,
		})
	}
	return podcasts, nil
}

// LookupEpisodes fetches the episode listing of a show by its directory id.
// The first lookup result describes the show itself, the rest are episodes.
// Returns nil info when the directory knows nothing about the id, callers
// usually fall back to a term search then.
func (c *Client) LookupEpisodes(ctx context.Context, podcastId string) (*PodcastInfo, []*EpisodeResult, error) {
	params := url.Values{}
	params.Set("id", podcastId)
	params.Set("entity", "podcastEpisode")
	params.Set("limit", strconv.Itoa(lookupLimit))

	res, err := c.get(ctx, c.baseURL+"/lookup?"+params.Encode())
	if err != nil {
		return nil, nil, err
	}
	if len(res.Results) == 0 {
		return nil, nil, nil
	}

	info := &PodcastInfo{
		Name:    res.Results[0].CollectionName,
		Artist:  res.Results[0].ArtistName,
		Artwork: res.Results[0].ArtworkUrl600,
	}

	episodes := make([]*EpisodeResult, 0, len(res.Results)-1)
	for _, ep := range res.Results[1:] {
		if ep.WrapperType != "podcastEpisode" || ep.EpisodeUrl == "" {
			continue
		}
		date := ep.ReleaseDate
		if len(date) > 10 {
			date = date[:10]
		}
		episodes = append(episodes, &EpisodeResult{
			Id:          strconv.FormatInt(ep.TrackId, 10),
			Title:       ep.TrackName,
			Description: utils.TruncateWithEllipsis(ep.Description, descriptionMaxLen),
			Duration:    ep.TrackTimeMillis / 1000,
			Date:        date,
			Url:         ep.EpisodeUrl,
		})
	}

	return info, episodes, nil
}

func (c *Client) get(ctx context.Context, requestUrl string) (*itunesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", requestUrl, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("itunes request returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode itunes response: %w", err)
	}
	return &parsed, nil
}
