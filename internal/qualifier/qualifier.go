// Package qualifier is the boundary between scoring and application
// preparation. It consumes OpportunityScored events and emits
// ApplicationCandidate records for listings worth applying to, translating
// the scorer's vocabulary into the application side's own terms.
package qualifier

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oppscan/oppscan/internal/config"
	"github.com/oppscan/oppscan/internal/event"
	"github.com/oppscan/oppscan/internal/model"
)

// Role types a candidate can be classified as, most specific first.
const (
	RoleFintech    = "fintech"
	RoleMLResearch = "ml_research"
	RolePlatform   = "platform"
	RoleGeneral    = "general"
)

// AuditReference points back at the scored event a candidate was derived
// from. It is opaque to the application side; only auditing reads it.
type AuditReference struct {
	EventType string    `json:"event_type"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	ListingID string    `json:"listing_id"`
}

// Candidate is the application-side record for a qualified listing. It
// carries everything the application flow needs so it never has to reach
// back into discovery data.
type Candidate struct {
	CandidateID    string             `json:"candidate_id"`
	ListingID      string             `json:"listing_id"`
	Company        string             `json:"company"`
	Role           string             `json:"role"`
	URL            string             `json:"url"`
	Score          float64            `json:"score"`
	RoleType       string             `json:"role_type"`
	SeniorityLabel string             `json:"seniority_label"`
	FintechSignals []string           `json:"fintech_signals"`
	AIMLSignals    []string           `json:"aiml_signals"`
	TechStack      []string           `json:"tech_stack"`
	Seniority      model.Seniority    `json:"seniority"`
	Salary         *model.SalaryRange `json:"salary_range,omitempty"`
	Location       model.LocationType `json:"location"`
	QualifiedAt    time.Time          `json:"qualified_at"`
	AuditReference AuditReference     `json:"audit_reference"`
}

// ReadCandidates loads all candidate records from a JSONL file.
func ReadCandidates(path string) ([]Candidate, int, error) {
	return event.Read[Candidate](path)
}

// Qualifier turns scored events into application candidates.
type Qualifier struct {
	threshold      float64
	fintechRole    []string
	fintechCompany []string
	researchRole   []string
	platformRole   []string
	logger         *slog.Logger
}

// New builds a Qualifier from configuration.
func New(cfg config.QualifierConfig, logger *slog.Logger) *Qualifier {
	return &Qualifier{
		threshold:      cfg.ScoreThreshold,
		fintechRole:    cfg.FintechRole,
		fintechCompany: cfg.FintechCompany,
		researchRole:   cfg.ResearchRole,
		platformRole:   cfg.PlatformRole,
		logger:         logger,
	}
}

// Qualify decides whether a scored event's listing becomes a candidate.
// Only accepted verdicts at or above the threshold pass.
func (q *Qualifier) Qualify(ev event.Scored, now time.Time) (Candidate, bool) {
	p := ev.Payload
	if p.Verdict != "accept" || p.Score < q.threshold {
		return Candidate{}, false
	}

	fintechSignals := extractSignals(p.Breakdown, "fintech_bonus")

	return Candidate{
		CandidateID:    uuid.NewString(),
		ListingID:      p.ListingID,
		Company:        p.Company,
		Role:           p.Role,
		URL:            p.URL,
		Score:          p.Score,
		RoleType:       q.classifyRole(p, fintechSignals),
		SeniorityLabel: seniorityLabel(p.Role),
		FintechSignals: fintechSignals,
		AIMLSignals:    extractSignals(p.Breakdown, "ai_ml_relevance"),
		TechStack:      p.TechStack,
		Seniority:      p.Seniority,
		Salary:         p.Salary,
		Location:       p.Location,
		QualifiedAt:    now.UTC(),
		AuditReference: AuditReference{
			EventType: ev.EventType,
			Version:   ev.Version,
			Timestamp: ev.Timestamp,
			ListingID: p.ListingID,
		},
	}, true
}

// classifyRole assigns the most specific role type that matches, checking
// fintech before research before platform. A listing with two or more
// matched fintech keywords is fintech even when its title and company
// give nothing away.
func (q *Qualifier) classifyRole(p event.ScoredPayload, fintechSignals []string) string {
	role := strings.ToLower(p.Role)
	company := strings.ToLower(p.Company)

	if containsAny(role, q.fintechRole) || containsAny(company, q.fintechCompany) || len(fintechSignals) >= 2 {
		return RoleFintech
	}
	if containsAny(role, q.researchRole) {
		return RoleMLResearch
	}
	if containsAny(role, q.platformRole) {
		return RolePlatform
	}
	return RoleGeneral
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// seniorityLabel derives the application-side seniority band from the
// role title, independently of the scorer's seniority dimension.
func seniorityLabel(role string) string {
	lower := strings.ToLower(role)
	switch {
	case strings.Contains(lower, "principal"), strings.Contains(lower, "staff"), strings.Contains(lower, "architect"):
		return "principal"
	case strings.Contains(lower, "senior"), strings.Contains(lower, "sr."), strings.Contains(lower, "sr "):
		return "senior"
	case strings.Contains(lower, "lead"), strings.Contains(lower, "manager"):
		return "lead"
	default:
		return "unknown"
	}
}

// signalRegex matches the keyword list the scorer embeds in dimension
// reasons, e.g. "2 fintech keywords: fraud, banking".
var signalRegex = regexp.MustCompile(`keywords:\s*(.+)$`)

// extractSignals recovers matched keywords from a dimension's reason so
// downstream personalization never re-scans the listing text.
func extractSignals(breakdown map[string]event.Dimension, dimension string) []string {
	d, ok := breakdown[dimension]
	if !ok {
		return nil
	}
	m := signalRegex.FindStringSubmatch(d.Reason)
	if m == nil {
		return nil
	}
	var signals []string
	for _, part := range strings.Split(m[1], ",") {
		if s := strings.TrimSpace(part); s != "" {
			signals = append(signals, s)
		}
	}
	return signals
}

// Summary reports what one qualification pass did.
type Summary struct {
	Considered int
	Qualified  int
	Dropped    int
	Skipped    int
}

// Stage qualifies a batch of scored events, skipping listings already in
// the candidate file.
type Stage struct {
	Qualifier *Qualifier
	Sink      event.Sink
	Logger    *slog.Logger
}

// Run writes one candidate record per newly qualified listing.
func (s *Stage) Run(ctx context.Context, scored []event.Scored, alreadyQualified map[string]struct{}) (*Summary, error) {
	summary := &Summary{}
	now := time.Now().UTC()

	for _, ev := range scored {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, ok := alreadyQualified[ev.Payload.ListingID]; ok {
			summary.Skipped++
			continue
		}
		summary.Considered++

		c, ok := s.Qualifier.Qualify(ev, now)
		if !ok {
			summary.Dropped++
			continue
		}
		if err := s.Sink.Publish(c); err != nil {
			return summary, fmt.Errorf("write candidate: %w", err)
		}
		summary.Qualified++
		s.Logger.Info("candidate qualified",
			"company", c.Company,
			"role", c.Role,
			"score", c.Score,
			"role_type", c.RoleType)
	}

	if err := s.Sink.Flush(); err != nil {
		return summary, fmt.Errorf("flush candidates: %w", err)
	}
	return summary, nil
}
