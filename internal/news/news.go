package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultFeedURL  = "https://news.google.com/rss/search"
	DefaultMaxItems = 5
	defaultTimeout  = 15 * time.Second
)

const maxFeedBytes = 4 << 20

// Item is one headline from a news search.
type Item struct {
	Date   string `json:"date"`
	Title  string `json:"title"`
	Source string `json:"source"`
	Link   string `json:"link"`
}

// Client searches the Google News RSS feed for recent headlines.
type Client struct {
	HTTPClient *http.Client
	FeedURL    string
	MaxItems   int
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		FeedURL:    DefaultFeedURL,
		MaxItems:   DefaultMaxItems,
	}
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Source  string `xml:"source"`
}

// Search returns recent headlines for the query, capped at MaxItems. Dates
// keep only the leading "Mon, 02 Jan 2006" portion of the RSS timestamp.
func (c *Client) Search(ctx context.Context, query string) ([]Item, error) {
	feedURL := c.FeedURL
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	endpoint := fmt.Sprintf("%s?q=%s&hl=en-US&gl=US&ceid=US:en", feedURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch news feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from news feed", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read news feed: %w", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}

	maxItems := c.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	items := make([]Item, 0, maxItems)
	for _, entry := range feed.Channel.Items {
		date := entry.PubDate
		if len(date) > 16 {
			date = date[:16]
		}
		items = append(items, Item{
			Date:   date,
			Title:  entry.Title,
			Source: entry.Source,
			Link:   entry.Link,
		})
		if len(items) >= maxItems {
			break
		}
	}
	return items, nil
}
