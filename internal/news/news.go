// Package news reads team and league headlines from RSS feeds.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/mlb-predictor/internal/datasource"
)

var (
	// ErrNoEntries indicates a feed parsed but had nothing in it
	ErrNoEntries = errors.New("feed has no entries")

	// ErrNoSubreddit indicates the team has no known subreddit
	ErrNoSubreddit = errors.New("no subreddit for team")
)

// gameThreadMarkers are matched against reddit titles in order of preference
// across all entries; "Game Thread" also covers pre and post game threads.
var gameThreadMarkers = []string{"Game Thread", "Post Game Thread", "Pre Game Thread"}

// Item is one feed entry.
type Item struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Summary   string     `json:"summary,omitempty"`
	Published *time.Time `json:"published,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
}

// Config holds feed URL templates. TeamNewsURL and RedditURL contain one %s.
type Config struct {
	TeamNewsURL   string
	LeagueNewsURL string
	RedditURL     string
	MaxEntries    int
}

// Client fetches and parses feeds.
type Client struct {
	httpClient *datasource.RateLimitedHTTPClient
	directory  *datasource.Directory
	cache      *datasource.StatsCache
	cfg        Config
	logger     *logrus.Logger
}

// NewClient creates a news client. cache may be nil.
func NewClient(httpClient *datasource.RateLimitedHTTPClient, directory *datasource.Directory, cache *datasource.StatsCache, cfg Config, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 3
	}
	return &Client{
		httpClient: httpClient,
		directory:  directory,
		cache:      cache,
		cfg:        cfg,
		logger:     logger,
	}
}

// TeamNews returns the latest team headlines from mlb.com.
func (c *Client) TeamNews(ctx context.Context, abbr string) ([]Item, error) {
	slug := strings.ToLower(strings.TrimSpace(abbr))
	if f, err := c.directory.ByAbbr(abbr); err == nil {
		slug = f.NewsSlug
	}

	items, err := c.fetch(ctx, fmt.Sprintf(c.cfg.TeamNewsURL, slug))
	if err != nil {
		return nil, err
	}
	return head(items, c.cfg.MaxEntries), nil
}

// LeagueNews returns the latest league-wide headlines.
func (c *Client) LeagueNews(ctx context.Context) ([]Item, error) {
	items, err := c.fetch(ctx, c.cfg.LeagueNewsURL)
	if err != nil {
		return nil, err
	}
	return head(items, c.cfg.MaxEntries), nil
}

// TopRedditPost returns the team subreddit's game thread if one is in the
// feed, otherwise its newest post.
func (c *Client) TopRedditPost(ctx context.Context, abbr string) (*Item, error) {
	f, err := c.directory.ByAbbr(abbr)
	if err != nil || f.Subreddit == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSubreddit, abbr)
	}

	items, err := c.fetch(ctx, fmt.Sprintf(c.cfg.RedditURL, f.Subreddit))
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		for _, marker := range gameThreadMarkers {
			if strings.Contains(item.Title, marker) {
				item := item
				return &item, nil
			}
		}
	}
	return &items[0], nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]Item, error) {
	if c.cache == nil {
		return c.fetchFeed(ctx, url)
	}
	v, err := c.cache.GetOrFetch(ctx, "feed:"+url, func(ctx context.Context) (interface{}, error) {
		return c.fetchFeed(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Item), nil
}

func (c *Client) fetchFeed(ctx context.Context, url string) ([]Item, error) {
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, datasource.NewDataSourceError("rss", datasource.ErrCodeNetworkError, "failed to fetch feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, datasource.NewDataSourceError("rss", datasource.ErrCodeServerError, fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, url), nil)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, datasource.NewDataSourceError("rss", datasource.ErrCodeInvalidData, "failed to parse feed", err)
	}
	if len(feed.Items) == 0 {
		return nil, ErrNoEntries
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := Item{
			Title:     strings.TrimSpace(it.Title),
			Link:      it.Link,
			Summary:   strings.TrimSpace(it.Description),
			Published: it.PublishedParsed,
			ImageURL:  imageURL(it),
		}
		items = append(items, item)
	}

	c.logger.WithFields(logrus.Fields{"url": url, "entries": len(items)}).Debug("Fetched feed")
	return items, nil
}

// imageURL prefers the item's own image and falls back to the first
// media:content entry marked as an image.
func imageURL(it *gofeed.Item) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, content := range it.Extensions["media"]["content"] {
		if content.Attrs["medium"] == "image" && content.Attrs["url"] != "" {
			return content.Attrs["url"]
		}
	}
	return ""
}

func head(items []Item, n int) []Item {
	if len(items) > n {
		return items[:n]
	}
	return items
}
