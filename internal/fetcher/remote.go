package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	httpClient "github.com/Alias1177/LottoPredictor/internal/platform/http"
	"github.com/Alias1177/LottoPredictor/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// RemoteSource scrapes the public draw history pages. Pages are served in GB2312.
type RemoteSource struct {
	baseURL string
	client  *httpClient.Client
	logger  zerolog.Logger
}

// NewRemoteSource creates a source for baseURL using client for all requests
func NewRemoteSource(baseURL string, client *httpClient.Client) *RemoteSource {
	return &RemoteSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  log.With().Str("component", "remote_history").Logger(),
	}
}

func (s *RemoteSource) Name() string { return "remote" }

// Remote marks the source as authoritative; its results are persisted in train mode
func (s *RemoteSource) Remote() bool { return true }

// LatestIssue reads the newest issue id from the history landing page
func (s *RemoteSource) LatestIssue(ctx context.Context, v models.VariantConfig) (string, error) {
	url := fmt.Sprintf("%s/%s/history/history.shtml", s.baseURL, v.Code)
	s.logger.Debug().Str("url", url).Msg("Fetching latest issue")

	doc, err := s.document(ctx, url)
	if err != nil {
		return "", err
	}

	wrap := findFirst(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && hasClass(n, "wrap_datachart")
	})
	if wrap == nil {
		return "", fmt.Errorf("%w: wrap_datachart block not found", models.ErrNetworkUnavailable)
	}
	input := findFirst(wrap, func(n *html.Node) bool {
		return n.DataAtom == atom.Input && attr(n, "id") == "end"
	})
	if input == nil {
		return "", fmt.Errorf("%w: latest issue input not found", models.ErrNetworkUnavailable)
	}

	issue := strings.TrimSpace(attr(input, "value"))
	if issue == "" {
		return "", fmt.Errorf("%w: latest issue is empty", models.ErrNetworkUnavailable)
	}
	return issue, nil
}

// History fetches draws between start and end, oldest first
func (s *RemoteSource) History(ctx context.Context, v models.VariantConfig, start, end string) ([]models.DrawRecord, error) {
	url := fmt.Sprintf("%s/%s/history/newinc/history.php?start=%s&end=%s", s.baseURL, v.Code, start, end)
	s.logger.Debug().Str("url", url).Msg("Fetching draw history")

	doc, err := s.document(ctx, url)
	if err != nil {
		return nil, err
	}

	records, err := parseTable(doc, v)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("variant", v.Code).Int("count", len(records)).Msg("Fetched draw history")
	return records, nil
}

func (s *RemoteSource) document(ctx context.Context, url string) (*html.Node, error) {
	body, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrNetworkUnavailable, err)
	}

	doc, err := html.Parse(simplifiedchinese.GBK.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing markup: %w", models.ErrNetworkUnavailable, err)
	}
	return doc, nil
}

// parseTable maps rows of tbody#tdata to records using the variant column layout
func parseTable(doc *html.Node, v models.VariantConfig) ([]models.DrawRecord, error) {
	tbody := findFirst(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Tbody && attr(n, "id") == "tdata"
	})
	if tbody == nil {
		return nil, fmt.Errorf("%w: history table not found", models.ErrNetworkUnavailable)
	}

	var records []models.DrawRecord
	for tr := tbody.FirstChild; tr != nil; tr = tr.NextSibling {
		if tr.Type != html.ElementNode || tr.DataAtom != atom.Tr {
			continue
		}

		var cells []string
		for td := tr.FirstChild; td != nil; td = td.NextSibling {
			if td.Type == html.ElementNode && td.DataAtom == atom.Td {
				cells = append(cells, strings.TrimSpace(text(td)))
			}
		}
		if len(cells) < v.Width() {
			return nil, fmt.Errorf("%w: row has %d cells, want at least %d", models.ErrNetworkUnavailable, len(cells), v.Width())
		}

		rec := models.DrawRecord{
			Issue: cells[v.IssueColumn],
			Red:   append([]string(nil), cells[v.RedColumn:v.RedColumn+v.RedCount]...),
			Blue:  append([]string(nil), cells[v.BlueColumn:v.BlueColumn+v.BlueCount]...),
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: history table is empty", models.ErrNetworkUnavailable)
	}

	sortByIssue(records)
	return records, nil
}

// sortByIssue orders records oldest first; numeric issue ids compare by value
func sortByIssue(records []models.DrawRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, errA := strconv.Atoi(records[i].Issue)
		b, errB := strconv.Atoi(records[j].Issue)
		if errA == nil && errB == nil {
			return a < b
		}
		return records[i].Issue < records[j].Issue
	})
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root.Type == html.ElementNode && match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
