// Package scorer evaluates discovered listings against hard filters and a
// weighted dimension model, producing OpportunityScored events.
package scorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/oppscan/oppscan/internal/config"
	"github.com/oppscan/oppscan/internal/event"
	"github.com/oppscan/oppscan/internal/model"
)

// ErrMissingListingID is returned when a listing cannot be scored because
// it has no identity to key the result on.
var ErrMissingListingID = errors.New("listing has no listing_id")

const (
	dimRemote    = "remote_match"
	dimRelevance = "ai_ml_relevance"
	dimSeniority = "seniority_match"
	dimSalary    = "salary_match"
	dimFintech   = "fintech_bonus"
)

// keywordMatcher matches one keyword on word boundaries.
type keywordMatcher struct {
	keyword string
	re      *regexp.Regexp
}

func compileKeywords(keywords []string) []keywordMatcher {
	out := make([]keywordMatcher, 0, len(keywords))
	for _, kw := range keywords {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.ToLower(kw)) + `\b`)
		out = append(out, keywordMatcher{keyword: kw, re: re})
	}
	return out
}

func matchKeywords(text string, matchers []keywordMatcher) []string {
	var hits []string
	for _, m := range matchers {
		if m.re.MatchString(text) {
			hits = append(hits, m.keyword)
		}
	}
	return hits
}

// Engine scores listings. Build one per configuration; keyword regexes
// are compiled once at construction.
type Engine struct {
	weights config.Weights
	filters config.HardFilters
	fxToEUR map[string]float64

	high    []keywordMatcher
	medium  []keywordMatcher
	low     []keywordMatcher
	fintech []keywordMatcher

	logger *slog.Logger
}

// NewEngine builds a scoring engine from configuration. A weight vector
// that does not sum to 1.0 is allowed but logged, since it skews totals.
func NewEngine(cfg config.ScoringConfig, logger *slog.Logger) *Engine {
	if sum := cfg.Weights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		logger.Warn("scoring weights do not sum to 1.0", "sum", sum)
	}
	return &Engine{
		weights: cfg.Weights,
		filters: cfg.HardFilters,
		fxToEUR: cfg.FXToEUR,
		high:    compileKeywords(cfg.AIMLKeywords.High),
		medium:  compileKeywords(cfg.AIMLKeywords.Medium),
		low:     compileKeywords(cfg.AIMLKeywords.Low),
		fintech: compileKeywords(cfg.FintechKeywords),
		logger:  logger,
	}
}

// Evaluate scores one listing. Hard-filter rejections still produce a
// payload, with a zeroed breakdown and the rejection reason; the only
// error case is a listing without an ID.
func (e *Engine) Evaluate(l model.Listing) (event.ScoredPayload, error) {
	if l.ListingID == "" {
		return event.ScoredPayload{}, fmt.Errorf("scoring %q at %q: %w", l.Role, l.Company, ErrMissingListingID)
	}

	p := event.ScoredPayload{
		ListingID: l.ListingID,
		Company:   l.Company,
		Role:      l.Role,
		URL:       l.URL,
		Location:  l.Location,
		Salary:    l.Salary,
		TechStack: l.TechStack,
		Seniority: l.Seniority,
		Weights:   e.weightMap(),
	}

	if reason, ok := e.checkHardFilters(l); !ok {
		p.Rejected = true
		p.RejectionReason = reason
		p.Verdict = "reject"
		p.Breakdown = e.zeroBreakdown(reason)
		return p, nil
	}

	text := searchText(l)
	breakdown := map[string]event.Dimension{
		dimRemote:    e.scoreRemote(l),
		dimRelevance: e.scoreRelevance(text),
		dimSeniority: e.scoreSeniority(l),
		dimSalary:    e.scoreSalary(l.Salary),
		dimFintech:   e.scoreFintech(text),
	}

	var total float64
	for _, d := range breakdown {
		total += d.Score * d.Weight
	}
	p.Score = math.Round(total*100) / 100
	p.Verdict = "accept"
	p.Breakdown = breakdown
	return p, nil
}

func (e *Engine) weightMap() map[string]float64 {
	return map[string]float64{
		dimRemote:    e.weights.RemoteMatch,
		dimRelevance: e.weights.AIMLRelevance,
		dimSeniority: e.weights.SeniorityMatch,
		dimSalary:    e.weights.SalaryMatch,
		dimFintech:   e.weights.FintechBonus,
	}
}

// checkHardFilters returns (reason, false) when the listing must be
// rejected outright. A listing without salary data never trips the
// salary floor.
func (e *Engine) checkHardFilters(l model.Listing) (string, bool) {
	if e.filters.RequireRemote && l.Location != model.LocationRemote {
		return fmt.Sprintf("not remote (location: %s)", l.Location), false
	}
	if e.filters.SalaryFloorEUR > 0 && l.Salary != nil {
		minEUR := e.toEUR(l.Salary.Min, l.Salary.Currency)
		if minEUR < e.filters.SalaryFloorEUR {
			return fmt.Sprintf("salary below floor (%.0f EUR < %.0f EUR)", minEUR, e.filters.SalaryFloorEUR), false
		}
	}
	return "", true
}

func (e *Engine) zeroBreakdown(reason string) map[string]event.Dimension {
	out := make(map[string]event.Dimension, 5)
	for name, w := range e.weightMap() {
		out[name] = event.Dimension{Score: 0, Weight: w, Reason: "rejected: " + reason}
	}
	return out
}

func (e *Engine) scoreRemote(l model.Listing) event.Dimension {
	d := event.Dimension{Weight: e.weights.RemoteMatch}
	switch l.Location {
	case model.LocationRemote:
		d.Score = 100
		d.Reason = "fully remote"
	case model.LocationHybrid:
		d.Score = 30
		d.Reason = "hybrid"
	default:
		d.Score = 0
		d.Reason = "onsite"
	}
	return d
}

// scoreRelevance awards points per distinct keyword by tier, capped at 100.
func (e *Engine) scoreRelevance(text string) event.Dimension {
	d := event.Dimension{Weight: e.weights.AIMLRelevance}

	var matched []string
	var points float64
	for _, tier := range []struct {
		matchers []keywordMatcher
		points   float64
	}{
		{e.high, 30},
		{e.medium, 15},
		{e.low, 5},
	} {
		hits := matchKeywords(text, tier.matchers)
		points += float64(len(hits)) * tier.points
		matched = append(matched, hits...)
	}
	d.Score = math.Min(points, 100)

	if len(matched) == 0 {
		d.Reason = "no ai/ml keywords matched"
		return d
	}
	d.Reason = fmt.Sprintf("%d ai/ml keywords: %s", len(matched), strings.Join(matched, ", "))
	return d
}

func (e *Engine) scoreSeniority(l model.Listing) event.Dimension {
	d := event.Dimension{Weight: e.weights.SeniorityMatch}

	sen := l.Seniority
	if sen == "" || sen == model.SeniorityUnknown {
		sen = seniorityFromTitle(l.Role)
	}
	switch sen {
	case model.SeniorityPrincipal, model.SeniorityStaff:
		d.Score = 100
		d.Reason = fmt.Sprintf("%s level", sen)
	case model.SenioritySenior:
		d.Score = 90
		d.Reason = "senior level"
	case model.SeniorityMid:
		d.Score = 50
		d.Reason = "mid level"
	case model.SeniorityJunior:
		d.Score = 20
		d.Reason = "junior level"
	default:
		d.Score = 60
		d.Reason = "seniority unknown"
	}
	return d
}

var titleSeniority = []struct {
	marker string
	level  model.Seniority
}{
	{"principal", model.SeniorityPrincipal},
	{"staff", model.SeniorityStaff},
	{"senior", model.SenioritySenior},
	{"sr.", model.SenioritySenior},
	{"junior", model.SeniorityJunior},
	{"intern", model.SeniorityJunior},
}

// seniorityFromTitle is the fallback when the source adapter could not
// determine seniority.
func seniorityFromTitle(role string) model.Seniority {
	lower := strings.ToLower(role)
	for _, ts := range titleSeniority {
		if strings.Contains(lower, ts.marker) {
			return ts.level
		}
	}
	return model.SeniorityUnknown
}

// scoreSalary bands on the maximum offer in EUR. A listing without salary
// data gets a neutral score rather than a penalty.
func (e *Engine) scoreSalary(sal *model.SalaryRange) event.Dimension {
	d := event.Dimension{Weight: e.weights.SalaryMatch}
	if sal == nil {
		d.Score = 60
		d.Reason = "no salary data"
		return d
	}

	maxEUR := e.toEUR(sal.Max, sal.Currency)
	switch {
	case maxEUR >= 150_000:
		d.Score = 100
	case maxEUR > 130_000:
		d.Score = 85
	case maxEUR >= 120_000:
		d.Score = 70
	default:
		d.Score = 50
	}
	d.Reason = fmt.Sprintf("max %.0f EUR", maxEUR)
	return d
}

func (e *Engine) scoreFintech(text string) event.Dimension {
	d := event.Dimension{Weight: e.weights.FintechBonus}

	hits := matchKeywords(text, e.fintech)
	d.Score = math.Min(float64(len(hits))*5, 20)
	if len(hits) == 0 {
		d.Reason = "no fintech keywords matched"
		return d
	}
	d.Reason = fmt.Sprintf("%d fintech keywords: %s", len(hits), strings.Join(hits, ", "))
	return d
}

// toEUR converts an amount using the configured conversion table. An
// unknown currency is passed through at parity.
func (e *Engine) toEUR(amount float64, currency string) float64 {
	if rate, ok := e.fxToEUR[currency]; ok {
		return amount * rate
	}
	e.logger.Warn("no conversion rate for currency, assuming parity", "currency", currency)
	return amount
}

func searchText(l model.Listing) string {
	parts := []string{l.Role, l.Description}
	parts = append(parts, l.TechStack...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Summary reports what one scoring pass did.
type Summary struct {
	Evaluated int
	Accepted  int
	Rejected  int
	Skipped   int
	Failed    int
}

// Stage scores a batch of discovery events, skipping listings that were
// already scored on a previous run.
type Stage struct {
	Engine *Engine
	Sink   event.Sink
	Logger *slog.Logger
}

// Run evaluates every discovered listing whose ID is not in alreadyScored
// and publishes one OpportunityScored event per evaluation. Listings that
// cannot be scored are logged and counted, not fatal.
func (s *Stage) Run(ctx context.Context, discovered []event.Discovered, alreadyScored map[string]struct{}) (*Summary, error) {
	summary := &Summary{}
	now := time.Now().UTC()

	for _, d := range discovered {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, ok := alreadyScored[d.Payload.ListingID]; ok && d.Payload.ListingID != "" {
			summary.Skipped++
			continue
		}

		p, err := s.Engine.Evaluate(d.Payload)
		if err != nil {
			s.Logger.Error("scoring failed", "company", d.Payload.Company, "role", d.Payload.Role, "error", err)
			summary.Failed++
			continue
		}
		if err := s.Sink.Publish(event.NewScored(p, now)); err != nil {
			return summary, fmt.Errorf("publish score event: %w", err)
		}

		summary.Evaluated++
		if p.Rejected {
			summary.Rejected++
			s.Logger.Info("listing rejected", "company", p.Company, "role", p.Role, "reason", p.RejectionReason)
		} else {
			summary.Accepted++
			s.Logger.Info("listing scored", "company", p.Company, "role", p.Role, "score", p.Score)
		}
	}

	if err := s.Sink.Flush(); err != nil {
		return summary, fmt.Errorf("flush score events: %w", err)
	}
	return summary, nil
}
