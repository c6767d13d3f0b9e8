package filings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleFilingHTML = `<!DOCTYPE html>
<html>
<head><title>FORM 10-K</title><style>p { color: red; }</style></head>
<body>
<script>var tracking = true;</script>
<h1>Item 1. Business</h1>
<p>We design and sell consulting engagements.</p>

<p>Our priorities include expanding managed services.</p>
</body>
</html>`

func TestDocumentTextStripsMarkupAndScripts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFilingHTML))
	}))
	defer server.Close()

	client := NewClient("crmlens test admin@example.com", 0)
	text, err := client.DocumentText(context.Background(), server.URL, 0)
	if err != nil {
		t.Fatalf("DocumentText() error = %v", err)
	}

	if !strings.Contains(text, "Item 1. Business") {
		t.Fatalf("text missing heading: %q", text)
	}
	if !strings.Contains(text, "expanding managed services") {
		t.Fatalf("text missing body copy: %q", text)
	}
	if strings.Contains(text, "tracking") || strings.Contains(text, "color: red") {
		t.Fatalf("text should not contain script or style content: %q", text)
	}
	if strings.Contains(text, "\n\n") {
		t.Fatalf("blank lines should be collapsed: %q", text)
	}
}

func TestDocumentTextCapsLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + strings.Repeat("priorities ", 100) + "</p></body></html>"))
	}))
	defer server.Close()

	client := NewClient("crmlens test admin@example.com", 0)
	text, err := client.DocumentText(context.Background(), server.URL, 64)
	if err != nil {
		t.Fatalf("DocumentText() error = %v", err)
	}
	if len(text) > 64 {
		t.Fatalf("len(text) = %d, want <= 64", len(text))
	}
}
