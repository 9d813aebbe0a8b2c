package notify

import (
	"log/slog"

	"github.com/oppscan/oppscan/internal/qualifier"
)

// Notifier announces newly qualified candidates.
type Notifier interface {
	Notify(candidates []qualifier.Candidate) error
}

// Ensure LogNotifier implements Notifier.
var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes new candidates to the given logger as structured
// messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each candidate via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each candidate with company, role, score, role type, and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(candidates []qualifier.Candidate) error {
	for _, c := range candidates {
		args := []any{
			"company", c.Company,
			"role", c.Role,
			"score", c.Score,
			"role_type", c.RoleType,
			"url", c.URL,
		}
		if c.Salary != nil {
			args = append(args, "salary_min", c.Salary.Min, "salary_max", c.Salary.Max, "currency", c.Salary.Currency)
		}
		n.logger.Info("new candidate", args...)
	}
	return nil
}
