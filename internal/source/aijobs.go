package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/oppscan/oppscan/internal/model"
)

const aijobsSourceName = "aijobs"

// wpJob is a WordPress job-listing post.
type wpJob struct {
	Title   wpRendered `json:"title"`
	Content wpRendered `json:"content"`
	Link    string     `json:"link"`
	Meta    wpFields   `json:"meta"`
	ACF     wpFields   `json:"acf"`
}

type wpRendered struct {
	Rendered string `json:"rendered"`
}

// wpFields holds the custom fields we care about; WordPress installs vary
// in which of these they populate.
type wpFields struct {
	Company     string `json:"company"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
}

// AIJobsSource fetches listings from the AIJobs.co.uk WordPress REST API.
// Every post is already an AI role; only a remote filter applies.
type AIJobsSource struct {
	client *http.Client
	apiURL string
}

// NewAIJobsSource creates the adapter.
func NewAIJobsSource(client *http.Client) *AIJobsSource {
	return &AIJobsSource{
		client: client,
		apiURL: "https://aijobs.co.uk/wp-json/wp/v2/job-listings",
	}
}

// Name implements model.Source.
func (s *AIJobsSource) Name() string { return aijobsSourceName }

// Fetch retrieves the newest posts and normalizes them into listings.
func (s *AIJobsSource) Fetch(ctx context.Context) ([]model.Listing, error) {
	url := s.apiURL + "?per_page=100&orderby=date&order=desc"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("aijobs fetch: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aijobs fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aijobs fetch: %w", httpError(resp))
	}

	var posts []wpJob
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("aijobs fetch: %w", err)
	}

	var listings []model.Listing
	for _, post := range posts {
		if l, ok := s.parsePost(post); ok {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

// parsePost normalizes one WordPress post. Non-remote roles are dropped.
func (s *AIJobsSource) parsePost(post wpJob) (model.Listing, bool) {
	title := stripHTML(post.Title.Rendered)
	if title == "" {
		return model.Listing{}, false
	}

	description := truncate(stripHTML(post.Content.Rendered), 500)

	company := post.Meta.Company
	if company == "" {
		company = post.ACF.Company
	}
	if company == "" {
		company = post.ACF.CompanyName
	}
	if company == "" {
		company = extractCompanyFromTitle(title)
	}

	locationText := post.Meta.Location
	if locationText == "" {
		locationText = post.ACF.Location
	}
	if locationText == "" {
		locationText = description
	}
	if !ContainsAny(locationText, remoteKeywords) {
		return model.Listing{}, false
	}

	l := model.Listing{
		Company:      company,
		Role:         cleanRoleTitle(title),
		Description:  description,
		Location:     model.LocationRemote,
		Seniority:    ExtractSeniority(title + " " + description),
		Salary:       ExtractSalary(post.Content.Rendered, model.CurrencyGBP),
		URL:          post.Link,
		DiscoveredAt: time.Now().UTC(),
	}
	l.AddSource(aijobsSourceName)
	return l, true
}

// "Company Name - Job Title" or "Company | Job Title".
var wpCompanyPrefixRegex = regexp.MustCompile(`^([A-Z][^\-|]+?)\s*[\-|]\s*`)

func extractCompanyFromTitle(title string) string {
	if m := wpCompanyPrefixRegex.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	return "AI Company"
}

// cleanRoleTitle removes a "Company - " or "Company | " prefix.
func cleanRoleTitle(title string) string {
	if m := wpCompanyPrefixRegex.FindStringIndex(title); m != nil {
		return strings.TrimSpace(title[m[1]:])
	}
	return strings.TrimSpace(title)
}
