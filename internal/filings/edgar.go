package filings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultTickerURL      = "https://www.sec.gov/files/company_tickers.json"
	DefaultSubmissionsURL = "https://data.sec.gov/submissions"
	DefaultMaxItems       = 5
	defaultTimeout        = 20 * time.Second
)

// ErrCompanyNotFound is returned when neither a ticker nor a company-name
// match exists in the EDGAR ticker index.
var ErrCompanyNotFound = fmt.Errorf("company not found in ticker index")

// Filing is one 10-K entry resolved from EDGAR submission history.
type Filing struct {
	FilingDate string `json:"filing_date"`
	Form       string `json:"form"`
	URL        string `json:"url"`
}

// Client looks up company filings via the public SEC EDGAR JSON endpoints.
// EDGAR requires a descriptive User-Agent on every request.
type Client struct {
	HTTPClient     *http.Client
	UserAgent      string
	TickerURL      string
	SubmissionsURL string
	MaxItems       int
}

func NewClient(userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		HTTPClient:     &http.Client{Timeout: timeout},
		UserAgent:      userAgent,
		TickerURL:      DefaultTickerURL,
		SubmissionsURL: DefaultSubmissionsURL,
		MaxItems:       DefaultMaxItems,
	}
}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// ResolveCIK maps a ticker or company name to a zero-padded 10-digit CIK.
// Exact ticker matches win over substring matches on the company title.
func (c *Client) ResolveCIK(ctx context.Context, query string) (string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return "", fmt.Errorf("company query is empty")
	}

	var index map[string]tickerEntry
	if err := c.getJSON(ctx, c.tickerURL(), &index); err != nil {
		return "", fmt.Errorf("fetch ticker index: %w", err)
	}

	for _, entry := range index {
		if strings.ToLower(entry.Ticker) == query {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	for _, entry := range index {
		if strings.Contains(strings.ToLower(entry.Title), query) {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	return "", ErrCompanyNotFound
}

type submissionHistory struct {
	Filings struct {
		Recent struct {
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			AccessionNumber []string `json:"accessionNumber"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// Recent10K returns the most recent 10-K filings for a ticker or company
// name, newest first, capped at MaxItems.
func (c *Client) Recent10K(ctx context.Context, companyOrTicker string) ([]Filing, error) {
	cik, err := c.ResolveCIK(ctx, companyOrTicker)
	if err != nil {
		return nil, err
	}

	var history submissionHistory
	url := fmt.Sprintf("%s/CIK%s.json", c.submissionsURL(), cik)
	if err := c.getJSON(ctx, url, &history); err != nil {
		return nil, fmt.Errorf("fetch submission history: %w", err)
	}

	maxItems := c.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	recent := history.Filings.Recent
	filings := make([]Filing, 0, maxItems)
	for i, form := range recent.Form {
		if !strings.EqualFold(form, "10-K") {
			continue
		}
		if i >= len(recent.FilingDate) || i >= len(recent.AccessionNumber) || i >= len(recent.PrimaryDocument) {
			continue
		}
		// Archive paths use the CIK without leading zeros and the accession
		// number without dashes.
		accession := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		filings = append(filings, Filing{
			FilingDate: recent.FilingDate[i],
			Form:       "10-K",
			URL: fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s",
				strings.TrimLeft(cik, "0"), accession, recent.PrimaryDocument[i]),
		})
		if len(filings) >= maxItems {
			break
		}
	}
	return filings, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (c *Client) tickerURL() string {
	if c.TickerURL != "" {
		return c.TickerURL
	}
	return DefaultTickerURL
}

func (c *Client) submissionsURL() string {
	if c.SubmissionsURL != "" {
		return strings.TrimRight(c.SubmissionsURL, "/")
	}
	return DefaultSubmissionsURL
}
