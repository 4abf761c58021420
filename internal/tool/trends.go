package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
)

// TrendsSearcher searches for market trends via the Google Custom Search
// API, with an in-memory cache, a per-run request cap, and a deterministic
// mock fallback when no credentials are configured or the API fails.
type TrendsSearcher struct {
	apiKey      string
	engineID    string
	useAPI      bool
	maxRequests int
	httpClient  *http.Client

	mu       sync.Mutex
	requests int
	cache    map[string][]domain.Trend
}

// TrendsOptions configures the trends search tool.
type TrendsOptions struct {
	APIKey         string
	SearchEngineID string
	UseAPI         bool
	// MaxRequests caps outbound API calls per run; further searches fall
	// back to mock data.
	MaxRequests int
	HTTPClient  *http.Client
}

// NewTrendsSearcher creates the market trends search tool.
func NewTrendsSearcher(opts TrendsOptions) *TrendsSearcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.MaxRequests <= 0 {
		opts.MaxRequests = 3
	}
	return &TrendsSearcher{
		apiKey:      opts.APIKey,
		engineID:    opts.SearchEngineID,
		useAPI:      opts.UseAPI,
		maxRequests: opts.MaxRequests,
		httpClient:  client,
		cache:       make(map[string][]domain.Trend),
	}
}

func (t *TrendsSearcher) Name() string { return "search_market_trends" }

func (t *TrendsSearcher) Description() string {
	return "Search for market trends using the Google API or mock data"
}

// Execute searches for the "topic" argument within "region" and returns up
// to "max_results" trends.
func (t *TrendsSearcher) Execute(ctx context.Context, args Args) Result {
	start := time.Now()

	topic := args.String("topic", "")
	if topic == "" {
		return Fail(apperrors.Tool("topic argument is required")).Timed(start)
	}
	region := args.String("region", "Global")
	maxResults := args.Int("max_results", 5)

	trends, source := t.search(ctx, topic, region, maxResults)
	return Ok(map[string]any{
		"trends": trends,
		"region": region,
		"source": source,
	}).Timed(start)
}

func (t *TrendsSearcher) search(ctx context.Context, topic, region string, maxResults int) ([]domain.Trend, string) {
	cacheKey := topic + "_" + region

	t.mu.Lock()
	if cached, ok := t.cache[cacheKey]; ok {
		t.mu.Unlock()
		return cached, "cache"
	}
	useAPI := t.useAPI && t.apiKey != "" && t.engineID != ""
	overBudget := t.requests >= t.maxRequests
	if useAPI && !overBudget {
		t.requests++
	}
	t.mu.Unlock()

	var trends []domain.Trend
	var source string

	switch {
	case !useAPI:
		trends, source = mockTrends(topic, region), "mock (no API credentials)"
	case overBudget:
		trends, source = mockTrends(topic, region), "mock (request cap reached)"
	default:
		apiTrends, err := t.searchAPI(ctx, topic, region, maxResults)
		if err != nil {
			trends, source = mockTrends(topic, region), "mock (API error)"
		} else {
			trends, source = apiTrends, "google_cse"
		}
	}

	t.mu.Lock()
	t.cache[cacheKey] = trends
	t.mu.Unlock()
	return trends, source
}

type cseResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"items"`
}

func (t *TrendsSearcher) searchAPI(ctx context.Context, topic, region string, maxResults int) ([]domain.Trend, error) {
	q := url.Values{}
	q.Set("key", t.apiKey)
	q.Set("cx", t.engineID)
	q.Set("q", fmt.Sprintf("%s market trends %s", topic, region))
	q.Set("num", fmt.Sprintf("%d", maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/customsearch/v1?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d", resp.StatusCode)
	}

	var parsed cseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	trends := make([]domain.Trend, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		trends = append(trends, domain.Trend{
			Title:   item.Title,
			Snippet: item.Snippet,
			Link:    item.Link,
			Source:  "google_cse",
		})
	}
	return trends, nil
}

// mockTrends returns deterministic placeholder trends so the pipeline stays
// functional without API credentials.
func mockTrends(topic, region string) []domain.Trend {
	return []domain.Trend{
		{
			Title:   fmt.Sprintf("Industry outlook: %s", topic),
			Snippet: fmt.Sprintf("Recent %s reports show shifting demand patterns across key segments.", region),
			Source:  "mock",
		},
		{
			Title:   fmt.Sprintf("Competitive landscape around %s", topic),
			Snippet: "Competitor activity and pricing moves may explain short-term metric deviations.",
			Source:  "mock",
		},
	}
}
