// Package event defines the pipeline's append-only event contracts:
// OpportunityDiscovered and OpportunityScored envelopes and the JSONL
// log they are written to. Events are immutable once published.
package event

import (
	"time"

	"github.com/oppscan/oppscan/internal/model"
)

const (
	TypeDiscovered = "OpportunityDiscovered"
	TypeScored     = "OpportunityScored"

	// Version is the event schema version.
	Version = "v1"

	// Context tags all events with the discovery bounded context.
	Context = "DISC"
)

// Discovered is published once per newly seen listing.
type Discovered struct {
	EventType string        `json:"event_type"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Context   string        `json:"context"`
	Payload   model.Listing `json:"payload"`
}

// NewDiscovered wraps a listing in a Discovered envelope.
func NewDiscovered(l model.Listing, now time.Time) Discovered {
	return Discovered{
		EventType: TypeDiscovered,
		Version:   Version,
		Timestamp: now.UTC(),
		Context:   Context,
		Payload:   l,
	}
}

// Dimension is one facet of a score: the sub-score, the weight it was
// combined with, and a human-readable reason. Reasons carry the matched
// keywords ("2 fintech keywords: fraud, banking") so downstream
// consumers can extract personalization signals without re-scanning text.
type Dimension struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
	Reason string  `json:"reason"`
}

// ScoredPayload carries the score breakdown plus enough listing identity
// for the qualifier to emit a complete candidate. The breakdown is a map
// keyed by dimension name so consumers survive dimension additions.
type ScoredPayload struct {
	ListingID       string               `json:"listing_id"`
	Company         string               `json:"company"`
	Role            string               `json:"role"`
	URL             string               `json:"url"`
	Location        model.LocationType   `json:"location"`
	Salary          *model.SalaryRange   `json:"salary_range,omitempty"`
	TechStack       []string             `json:"tech_stack"`
	Seniority       model.Seniority      `json:"seniority"`
	Score           float64              `json:"score"`
	Verdict         string               `json:"verdict"`
	Breakdown       map[string]Dimension `json:"breakdown"`
	Weights         map[string]float64   `json:"weights"`
	Rejected        bool                 `json:"rejected"`
	RejectionReason string               `json:"rejection_reason,omitempty"`
}

// Scored is published once per evaluated listing, accepted or rejected.
type Scored struct {
	EventType string        `json:"event_type"`
	Version   string        `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Context   string        `json:"context"`
	Payload   ScoredPayload `json:"payload"`
}

// NewScored wraps a payload in a Scored envelope.
func NewScored(p ScoredPayload, now time.Time) Scored {
	return Scored{
		EventType: TypeScored,
		Version:   Version,
		Timestamp: now.UTC(),
		Context:   Context,
		Payload:   p,
	}
}
