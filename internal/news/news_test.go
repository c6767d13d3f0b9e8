package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>"acme corp" - Google News</title>
    <item>
      <title>Acme Corp posts record quarter</title>
      <link>https://example.com/acme-record-quarter</link>
      <pubDate>Mon, 18 Aug 2025 14:02:00 GMT</pubDate>
      <source url="https://example.com">Example Wire</source>
    </item>
    <item>
      <title>Acme Corp expands into Europe</title>
      <link>https://example.com/acme-europe</link>
      <pubDate>Sun, 17 Aug 2025 09:30:00 GMT</pubDate>
      <source url="https://example.com">Example Wire</source>
    </item>
    <item>
      <title>Opinion: what Acme means for the sector</title>
      <link>https://example.com/acme-opinion</link>
      <pubDate>Sat, 16 Aug 2025 08:00:00 GMT</pubDate>
      <source url="https://example.com">Example Wire</source>
    </item>
  </channel>
</rss>`

func TestSearchParsesFeedItems(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(sampleFeedXML))
	}))
	defer server.Close()

	client := NewClient(0)
	client.FeedURL = server.URL

	items, err := client.Search(context.Background(), "acme corp")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotQuery != "acme corp" {
		t.Fatalf("query = %q, want %q", gotQuery, "acme corp")
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}

	first := items[0]
	if first.Title != "Acme Corp posts record quarter" {
		t.Fatalf("title = %q", first.Title)
	}
	if first.Date != "Mon, 18 Aug 2025" {
		t.Fatalf("date = %q, want truncated timestamp", first.Date)
	}
	if first.Source != "Example Wire" {
		t.Fatalf("source = %q", first.Source)
	}
	if first.Link != "https://example.com/acme-record-quarter" {
		t.Fatalf("link = %q", first.Link)
	}
}

func TestSearchCapsAtMaxItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeedXML))
	}))
	defer server.Close()

	client := NewClient(0)
	client.FeedURL = server.URL
	client.MaxItems = 2

	items, err := client.Search(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
}

func TestSearchRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(0)
	client.FeedURL = server.URL

	if _, err := client.Search(context.Background(), "acme"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
