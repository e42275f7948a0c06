package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/studyplan/internal/domain/usage"
	"github.com/kailas-cloud/studyplan/internal/domain/usage/budget"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (no budget configured).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now().UTC()
	var start, end time.Time
	var limit, used, remaining int64 = 0, 0, -1

	switch period {
	case domusage.PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		if s.br != nil {
			limit = s.br.MonthlyLimit()
			used = s.br.MonthlyUsed()
			remaining = s.br.RemainingMonthly()
		}
	default:
		period = domusage.PeriodDay
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
		if s.br != nil {
			limit = s.br.DailyLimit()
			used = s.br.DailyUsed()
			remaining = s.br.RemainingDaily()
		}
	}

	exhausted := limit > 0 && remaining <= 0
	b := budget.New(limit, remaining, exhausted, end.UnixMilli())

	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), used, b)
}
