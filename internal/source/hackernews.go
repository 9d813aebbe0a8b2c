package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/oppscan/oppscan/internal/model"
	"github.com/oppscan/oppscan/internal/ratelimit"
)

const (
	hnSourceName = "hackernews"

	// Who-is-hiring threads from the last 60 days.
	hnThreadMaxAge = 60 * 24 * time.Hour
	hnThreadLimit  = 5
)

// hnSearchHit is one story in the Algolia search response.
type hnSearchHit struct {
	ObjectID string `json:"objectID"`
}

type hnSearchResponse struct {
	Hits []hnSearchHit `json:"hits"`
}

// hnItem is a story with its top-level comments.
type hnItem struct {
	Children []hnComment `json:"children"`
}

type hnComment struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// HackerNewsSource text-mines "Ask HN: Who is hiring?" threads via the
// Algolia API. Comments are kept only when they look like a remote AI/ML
// role; company, role, seniority, salary, and URL are extracted from the
// free text.
type HackerNewsSource struct {
	client    *http.Client
	limiter   *ratelimit.HostLimiter
	searchURL string
	itemURL   string // format string taking the story ID
}

// NewHackerNewsSource creates the adapter. All thread fetches go through
// the shared limiter.
func NewHackerNewsSource(client *http.Client, limiter *ratelimit.HostLimiter) *HackerNewsSource {
	return &HackerNewsSource{
		client:    client,
		limiter:   limiter,
		searchURL: "https://hn.algolia.com/api/v1/search",
		itemURL:   "https://hn.algolia.com/api/v1/items/%s",
	}
}

// Name implements model.Source.
func (s *HackerNewsSource) Name() string { return hnSourceName }

// Fetch finds recent Who-is-hiring threads and extracts listings from
// their comments.
func (s *HackerNewsSource) Fetch(ctx context.Context) ([]model.Listing, error) {
	cutoff := time.Now().Add(-hnThreadMaxAge).Unix()

	q := url.Values{}
	q.Set("query", "Ask HN: Who is hiring?")
	q.Set("tags", "story")
	q.Set("numericFilters", fmt.Sprintf("created_at_i>%d", cutoff))
	q.Set("hitsPerPage", fmt.Sprintf("%d", hnThreadLimit))

	var search hnSearchResponse
	if err := s.getJSON(ctx, s.searchURL+"?"+q.Encode(), &search); err != nil {
		return nil, fmt.Errorf("hackernews search: %w", err)
	}

	var listings []model.Listing
	for _, hit := range search.Hits {
		if hit.ObjectID == "" {
			continue
		}
		threadListings, err := s.fetchThread(ctx, hit.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("hackernews thread %s: %w", hit.ObjectID, err)
		}
		listings = append(listings, threadListings...)
	}

	return listings, nil
}

// fetchThread pulls one thread's comments and parses each into a listing.
func (s *HackerNewsSource) fetchThread(ctx context.Context, storyID string) ([]model.Listing, error) {
	itemURL := fmt.Sprintf(s.itemURL, storyID)

	if u, err := url.Parse(itemURL); err == nil {
		if err := s.limiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	var item hnItem
	if err := s.getJSON(ctx, itemURL, &item); err != nil {
		return nil, err
	}

	var listings []model.Listing
	for _, comment := range item.Children {
		if l, ok := s.parseComment(comment); ok {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

func (s *HackerNewsSource) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// parseComment turns a hiring-thread comment into a Listing. Comments
// that don't mention AI/ML work or a remote arrangement are dropped.
func (s *HackerNewsSource) parseComment(c hnComment) (model.Listing, bool) {
	if c.Text == "" {
		return model.Listing{}, false
	}

	plain := stripHTML(c.Text)

	if !ContainsAny(plain, aimlKeywords) {
		return model.Listing{}, false
	}
	if !ContainsAny(plain, remoteKeywords) {
		return model.Listing{}, false
	}

	company := extractHNCompany(c.Text, plain)
	if company == "" {
		return model.Listing{}, false
	}

	role := extractHNRole(plain)
	if role == "" {
		role = "AI/ML Engineer"
	}

	listingURL := firstURL(c.Text)
	if listingURL == "" {
		listingURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", c.ID)
	}

	l := model.Listing{
		Company:      company,
		Role:         role,
		Description:  truncate(plain, 500),
		Location:     model.LocationRemote,
		Seniority:    ExtractSeniority(plain),
		Salary:       ExtractSalary(plain, model.CurrencyUSD),
		URL:          listingURL,
		DiscoveredAt: time.Now().UTC(),
	}
	l.AddSource(hnSourceName)
	return l, true
}

var (
	// "Company Name | Role | ..." at the start of a line.
	hnPipeCompanyRegex = regexp.MustCompile(`(?m)^([A-Z][A-Za-z0-9\s&.]+?)\s*\|`)
	// First bold span, a common convention in hiring comments.
	hnBoldCompanyRegex = regexp.MustCompile(`<b>([^<]+)</b>`)
	// Fallback: leading capitalized word sequence.
	hnLeadingCapsRegex = regexp.MustCompile(`(?m)^([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,3})`)

	hnRoleLabelRegex   = regexp.MustCompile(`(?i)(?:Role|Position|Title):\s*([^\n<]+)`)
	hnRolePatternRegex = regexp.MustCompile(`(?i)\b((?:Senior|Staff|Principal|Lead)?\s*(?:ML|AI|Machine Learning|Data Science|MLOps)\s*Engineer)\b`)
)

func extractHNCompany(raw, plain string) string {
	if m := hnPipeCompanyRegex.FindStringSubmatch(plain); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := hnBoldCompanyRegex.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := hnLeadingCapsRegex.FindStringSubmatch(plain); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractHNRole(plain string) string {
	if m := hnRoleLabelRegex.FindStringSubmatch(plain); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := hnRolePatternRegex.FindStringSubmatch(plain); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
