package model

import (
	"context"
	"strings"
	"time"
)

// LocationType classifies where a role is performed.
type LocationType string

const (
	LocationRemote LocationType = "remote"
	LocationHybrid LocationType = "hybrid"
	LocationOnsite LocationType = "onsite"
)

// Currency codes supported by salary extraction and conversion.
const (
	CurrencyEUR = "EUR"
	CurrencyUSD = "USD"
	CurrencyGBP = "GBP"
	CurrencyPLN = "PLN"
)

// Seniority is the structured seniority level of a listing.
type Seniority string

const (
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityStaff     Seniority = "staff"
	SeniorityPrincipal Seniority = "principal"
	SeniorityUnknown   Seniority = "unknown"
)

// SalaryRange is an optional compensation range. Min or Max may be zero
// when the source only published one bound.
type SalaryRange struct {
	Min      float64 `json:"min,omitempty" yaml:"min"`
	Max      float64 `json:"max,omitempty" yaml:"max"`
	Currency string  `json:"currency" yaml:"currency"`
}

// Listing is the unified representation of a job posting from any source.
type Listing struct {
	ListingID    string       `json:"listing_id"`
	Company      string       `json:"company"`
	Role         string       `json:"role"`
	Description  string       `json:"description"`
	Location     LocationType `json:"location"`
	Salary       *SalaryRange `json:"salary_range,omitempty"`
	TechStack    []string     `json:"tech_stack"`
	Seniority    Seniority    `json:"seniority"`
	Sources      []string     `json:"sources"`
	DiscoveredAt time.Time    `json:"discovered_at"`
	URL          string       `json:"url"`
}

// DedupKey identifies the same real-world posting across sources and runs:
// company and role, lowercased and trimmed, joined with "::".
func (l Listing) DedupKey() string {
	company := strings.ToLower(strings.TrimSpace(l.Company))
	role := strings.ToLower(strings.TrimSpace(l.Role))
	return company + "::" + role
}

// AddSource appends a source tag if not already present.
func (l *Listing) AddSource(name string) {
	for _, s := range l.Sources {
		if s == name {
			return
		}
	}
	l.Sources = append(l.Sources, name)
}

// Source fetches job listings from one external board. Implementations
// perform their own relevance and remote filtering where the board is too
// broad to filter server-side, and never retry on failure; retry and
// backoff belong to the orchestrator.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Listing, error)
}

// SeenStore persists the set of dedup keys ever published as discovery
// events. Load and Save are distinct operations so the orchestrator owns
// the in-memory set for the duration of a run.
type SeenStore interface {
	Load(ctx context.Context) (map[string]struct{}, error)
	Save(ctx context.Context, keys []string) error
	Close() error
}
