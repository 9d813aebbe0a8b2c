package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/oppscan/oppscan/internal/model"
)

const (
	wnSourceName = "workingnomads"
	wnUserAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// WorkingNomadsSource scrapes the Working Nomads development category.
// The board is remote-only, so no remote filtering is needed; the AI/ML
// relevance heuristic is applied to the role title.
type WorkingNomadsSource struct {
	baseURL string
	timeout time.Duration
}

// NewWorkingNomadsSource creates the adapter with the given per-request
// timeout.
func NewWorkingNomadsSource(timeout time.Duration) *WorkingNomadsSource {
	return &WorkingNomadsSource{
		baseURL: "https://www.workingnomads.com/jobs",
		timeout: timeout,
	}
}

// Name implements model.Source.
func (s *WorkingNomadsSource) Name() string { return wnSourceName }

// Fetch scrapes and parses the job listing cards.
func (s *WorkingNomadsSource) Fetch(ctx context.Context) ([]model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("workingnomads fetch: %w", err)
	}

	c := colly.NewCollector(colly.UserAgent(wnUserAgent))
	c.SetRequestTimeout(s.timeout)

	var (
		listings []model.Listing
		fetchErr error
	)

	c.OnHTML(".job-list li, article.job", func(e *colly.HTMLElement) {
		if l, ok := s.parseCard(e); ok {
			listings = append(listings, l)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = &model.HTTPError{StatusCode: r.StatusCode, Err: err}
			return
		}
		fetchErr = err
	})

	if err := c.Visit(s.baseURL + "?category=development"); err != nil {
		return nil, fmt.Errorf("workingnomads fetch: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("workingnomads fetch: %w", fetchErr)
	}
	return listings, nil
}

// parseCard parses one job card. Cards without an AI/ML-relevant title
// are dropped.
func (s *WorkingNomadsSource) parseCard(e *colly.HTMLElement) (model.Listing, bool) {
	role := strings.TrimSpace(e.ChildText("h3, .job-title, a.job-link"))
	if role == "" {
		return model.Listing{}, false
	}
	if !ContainsAny(role, aimlKeywords) {
		return model.Listing{}, false
	}

	company := strings.TrimSpace(e.ChildText(".company, .company-name, h4"))
	if company == "" {
		company = "Unknown Company"
	}

	description := truncate(strings.TrimSpace(e.ChildText(".description, .job-description, p")), 500)

	link := e.ChildAttr("a", "href")
	listingURL := ""
	if link != "" {
		listingURL = e.Request.AbsoluteURL(link)
	}

	l := model.Listing{
		Company:      company,
		Role:         role,
		Description:  description,
		Location:     model.LocationRemote, // the board only lists remote roles
		Seniority:    ExtractSeniority(role),
		Salary:       ExtractSalary(e.ChildText(".salary, .compensation"), model.CurrencyUSD),
		URL:          listingURL,
		DiscoveredAt: time.Now().UTC(),
	}
	l.AddSource(wnSourceName)
	return l, true
}
