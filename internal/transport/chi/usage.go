package chi

import (
	"context"
	"net/http"
	"time"

	domusage "github.com/kailas-cloud/studyplan/internal/domain/usage"
)

// UsageReporter builds token usage reports.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

type usageResponse struct {
	Period      string       `json:"period"`
	PeriodStart time.Time    `json:"period_start"`
	PeriodEnd   time.Time    `json:"period_end"`
	TokensUsed  int64        `json:"tokens_used"`
	Budget      budgetStatus `json:"budget"`
}

type budgetStatus struct {
	TokensLimit     *int64     `json:"tokens_limit,omitempty"`
	TokensRemaining *int64     `json:"tokens_remaining,omitempty"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// WithUsage enables GET /api/usage.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// GetUsage handles GET /api/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeError(w, http.StatusNotFound, "Usage reporting is disabled")
		return
	}

	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period")
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	b := report.Budget()

	resp := usageResponse{
		Period:      string(report.Period()),
		PeriodStart: time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEnd:   time.UnixMilli(report.PeriodEnd()).UTC(),
		TokensUsed:  report.TokensUsed(),
		Budget:      budgetStatus{IsExhausted: b.IsExhausted()},
	}
	if !b.Unlimited() {
		limit, remaining := b.TokensLimit(), b.TokensRemaining()
		resp.Budget.TokensLimit = &limit
		resp.Budget.TokensRemaining = &remaining
	}
	if b.ResetsAt() > 0 {
		resetsAt := time.UnixMilli(b.ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}
