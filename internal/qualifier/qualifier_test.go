package qualifier

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/oppscan/oppscan/internal/config"
	"github.com/oppscan/oppscan/internal/event"
	"github.com/oppscan/oppscan/internal/model"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultQualifier() *Qualifier {
	return New(config.DefaultQualifier(), discard())
}

func scoredEvent(score float64, verdict string) event.Scored {
	return event.NewScored(event.ScoredPayload{
		ListingID: "l-1",
		Company:   "FinML Bank",
		Role:      "Senior ML Engineer - Fraud Detection",
		URL:       "https://example.com/jobs/1",
		Location:  model.LocationRemote,
		Seniority: model.SenioritySenior,
		Score:     score,
		Verdict:   verdict,
		Breakdown: map[string]event.Dimension{
			"ai_ml_relevance": {Score: 45, Weight: 0.30, Reason: "2 ai/ml keywords: ml engineer, ml"},
			"fintech_bonus":   {Score: 10, Weight: 0.05, Reason: "2 fintech keywords: fraud, banking"},
		},
	}, time.Now())
}

func TestQualifyAcceptsAboveThreshold(t *testing.T) {
	c, ok := defaultQualifier().Qualify(scoredEvent(77.25, "accept"), time.Now())
	if !ok {
		t.Fatal("expected qualification")
	}
	if c.CandidateID == "" {
		t.Error("candidate id not assigned")
	}
	if c.ListingID != "l-1" || c.Company != "FinML Bank" {
		t.Errorf("candidate = %+v", c)
	}
	if c.RoleType != RoleFintech {
		t.Errorf("role type = %q, want fintech", c.RoleType)
	}
	if c.SeniorityLabel != "senior" {
		t.Errorf("seniority label = %q", c.SeniorityLabel)
	}
	if len(c.FintechSignals) != 2 || c.FintechSignals[0] != "fraud" || c.FintechSignals[1] != "banking" {
		t.Errorf("fintech signals = %v", c.FintechSignals)
	}
	if len(c.AIMLSignals) != 2 || c.AIMLSignals[0] != "ml engineer" {
		t.Errorf("aiml signals = %v", c.AIMLSignals)
	}
	if c.AuditReference.EventType != event.TypeScored || c.AuditReference.ListingID != "l-1" {
		t.Errorf("audit reference = %+v", c.AuditReference)
	}
}

func TestQualifyDropsBelowThreshold(t *testing.T) {
	if _, ok := defaultQualifier().Qualify(scoredEvent(59.9, "accept"), time.Now()); ok {
		t.Error("score below threshold must not qualify")
	}
}

func TestQualifyDropsRejectedVerdict(t *testing.T) {
	if _, ok := defaultQualifier().Qualify(scoredEvent(95, "reject"), time.Now()); ok {
		t.Error("rejected verdict must not qualify regardless of score")
	}
}

func TestClassifyRoleCascade(t *testing.T) {
	q := defaultQualifier()
	cases := []struct {
		role    string
		company string
		signals []string
		want    string
	}{
		{"ML Engineer - Payment Systems", "Acme", nil, RoleFintech},
		{"ML Engineer", "Revolut", nil, RoleFintech},
		{"Machine Learning Engineer", "Acme", []string{"fraud", "banking"}, RoleFintech},
		{"Machine Learning Engineer", "Acme", []string{"fraud"}, RoleGeneral},
		{"Research Scientist, NLP", "Acme", nil, RoleMLResearch},
		{"ML Platform Engineer", "Acme", nil, RolePlatform},
		{"Machine Learning Engineer", "Acme", nil, RoleGeneral},
	}
	for _, c := range cases {
		p := event.ScoredPayload{Role: c.role, Company: c.company}
		if got := q.classifyRole(p, c.signals); got != c.want {
			t.Errorf("classifyRole(%q, %q, %v) = %q, want %q", c.role, c.company, c.signals, got, c.want)
		}
	}
}

func TestQualifyFintechBySignalsAlone(t *testing.T) {
	ev := event.NewScored(event.ScoredPayload{
		ListingID: "l-2",
		Company:   "Acme",
		Role:      "Machine Learning Engineer",
		Location:  model.LocationRemote,
		Score:     88,
		Verdict:   "accept",
		Breakdown: map[string]event.Dimension{
			"fintech_bonus": {Score: 10, Weight: 0.05, Reason: "2 fintech keywords: fraud, banking"},
		},
	}, time.Now())

	c, ok := defaultQualifier().Qualify(ev, time.Now())
	if !ok {
		t.Fatal("expected qualification")
	}
	if c.RoleType != RoleFintech {
		t.Errorf("role type = %q, want fintech", c.RoleType)
	}
	if len(c.FintechSignals) != 2 {
		t.Errorf("fintech signals = %v", c.FintechSignals)
	}
}

func TestSeniorityLabel(t *testing.T) {
	cases := map[string]string{
		"Principal Engineer":      "principal",
		"Staff ML Engineer":       "principal",
		"Solutions Architect":     "principal",
		"Senior Data Scientist":   "senior",
		"Sr. ML Engineer":         "senior",
		"Engineering Manager, ML": "lead",
		"Tech Lead":               "lead",
		"Machine Learning Dev":    "unknown",
	}
	for role, want := range cases {
		if got := seniorityLabel(role); got != want {
			t.Errorf("seniorityLabel(%q) = %q, want %q", role, got, want)
		}
	}
}

func TestExtractSignalsNoMatchReason(t *testing.T) {
	breakdown := map[string]event.Dimension{
		"fintech_bonus": {Reason: "no fintech keywords matched"},
	}
	if got := extractSignals(breakdown, "fintech_bonus"); got != nil {
		t.Errorf("signals = %v, want nil", got)
	}
	if got := extractSignals(breakdown, "ai_ml_relevance"); got != nil {
		t.Errorf("signals for missing dimension = %v, want nil", got)
	}
}

func TestStageRunSkipsAlreadyQualified(t *testing.T) {
	sinkPath := filepath.Join(t.TempDir(), "candidates.jsonl")
	sink, err := event.OpenJSONL(sinkPath)
	if err != nil {
		t.Fatalf("OpenJSONL: %v", err)
	}
	defer sink.Close()

	scored := []event.Scored{
		scoredEvent(80, "accept"),
	}
	stage := &Stage{Qualifier: defaultQualifier(), Sink: sink, Logger: discard()}

	summary, err := stage.Run(context.Background(), scored, map[string]struct{}{"l-1": {}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 1 || summary.Qualified != 0 {
		t.Errorf("summary = %+v", summary)
	}

	summary, err = stage.Run(context.Background(), scored, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Qualified != 1 {
		t.Errorf("summary = %+v", summary)
	}

	candidates, skipped, err := ReadCandidates(sinkPath)
	if err != nil {
		t.Fatalf("ReadCandidates: %v", err)
	}
	if skipped != 0 || len(candidates) != 1 {
		t.Fatalf("candidates = %v (skipped %d)", candidates, skipped)
	}
	if candidates[0].ListingID != "l-1" {
		t.Errorf("candidate = %+v", candidates[0])
	}
}
