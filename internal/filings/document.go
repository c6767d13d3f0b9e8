package filings

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// DefaultDocumentMaxChars bounds how much filing text goes into a model
// prompt. 10-K primary documents routinely run to megabytes of HTML.
const DefaultDocumentMaxChars = 120000

const maxDocumentBytes = 16 << 20

var multiNewlineRe = regexp.MustCompile(`\n{2,}`)

// DocumentText fetches a filing document and extracts its visible text,
// collapsing blank lines and capping the result at maxChars.
func (c *Client) DocumentText(ctx context.Context, url string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultDocumentMaxChars
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	text, err := extractText(string(body))
	if err != nil {
		return "", err
	}
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text, nil
}

func extractText(rawHTML string) (string, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse document html: %w", err)
	}

	var sb strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "head":
				return
			}
		}
		if node.Type == html.TextNode {
			trimmed := strings.TrimSpace(node.Data)
			if trimmed != "" {
				sb.WriteString(trimmed)
				sb.WriteString("\n")
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	text := multiNewlineRe.ReplaceAllString(sb.String(), "\n")
	return strings.TrimSpace(text), nil
}
