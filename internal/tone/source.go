package tone

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Source provides raw style reference rows
type Source interface {
	FetchRows(ctx context.Context) ([]Row, error)
}

// HTTPSource fetches the style reference from a published HTML table, such
// as a spreadsheet shared via "publish to web".
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source reading from the given URL
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url: url,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// normalizeHeader turns a column heading into a lookup key, e.g.
// "Sign Off" -> "sign_off"
func normalizeHeader(h string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), "_")
}

// FetchRows downloads the page and parses the first table into rows. The
// first table row is treated as the header.
func (s *HTTPSource) FetchRows(ctx context.Context) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch style reference: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("style reference returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse style reference page: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table found in style reference page")
	}

	var headers []string
	var rows []Row

	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				headers = append(headers, normalizeHeader(cell.Text()))
			})
			return
		}

		cols := make(map[string]string)
		tr.Find("td").Each(func(j int, cell *goquery.Selection) {
			if j < len(headers) {
				cols[headers[j]] = strings.TrimSpace(cell.Text())
			}
		})

		rows = append(rows, Row{
			Category:    cols["category"],
			Context:     cols["context"],
			Example:     cols["example"],
			Description: cols["description"],
			Level:       cols["level"],
			Phrases:     cols["phrases"],
		})
	})

	return rows, nil
}
