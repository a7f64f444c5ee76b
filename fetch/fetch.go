// Package fetch pulls full page content for result enrichment. Fetching is
// strictly auxiliary: a failed or slow fetch leaves the hit with its search
// snippet, it never fails the retrieval round.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sweetpotato0/citekit/pkg/logging"
)

// DefaultTimeout bounds one page fetch. Enrichment is cheap to skip, so
// the budget is tight.
const DefaultTimeout = 3 * time.Second

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 1 << 20

// Fetcher retrieves and extracts the readable text of a web page.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a fetcher. A nil client uses http.DefaultClient.
func New(client *http.Client, timeout time.Duration) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client:  client,
		timeout: timeout,
		logger:  logging.WithComponent("fetch"),
	}
}

// PageText fetches the URL and returns its main text content. Errors and
// timeouts return an error the caller should treat as "no enrichment".
func (f *Fetcher) PageText(ctx context.Context, pageURL string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "citekit/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: HTTP %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text, err := HTMLToText(string(body))
	if err != nil {
		return "", err
	}
	f.logger.Debug("page fetched", "url", pageURL, "chars", len(text))
	return text, nil
}

// HTMLToText extracts headings, paragraphs and list items from HTML,
// keeping document structure as lightweight markdown.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	var out []string
	doc.Find("h1,h2,h3,p,li").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(s) {
		case "h1":
			out = append(out, "# "+text)
		case "h2":
			out = append(out, "## "+text)
		case "h3":
			out = append(out, "### "+text)
		case "li":
			out = append(out, "- "+text)
		default:
			out = append(out, text)
		}
	})
	return dedupeParagraphs(out), nil
}

// dedupeParagraphs drops exact duplicate blocks, common in scraped nav/footer text.
func dedupeParagraphs(parts []string) string {
	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, p := range parts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, "\n\n")
}
