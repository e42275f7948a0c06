// Package usage describes language-model token consumption over a period.
package usage

import (
	"fmt"

	"github.com/kailas-cloud/studyplan/internal/domain/usage/budget"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodMonth:
		return Period(s), nil
	default:
		return "", fmt.Errorf("unknown period %q (want day or month)", s)
	}
}

// Report is a token usage report for a time period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	tokensUsed  int64
	budget      budget.Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end, tokensUsed int64, b budget.Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		tokensUsed:  tokensUsed,
		budget:      b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// TokensUsed returns the tokens consumed in the period.
func (r *Report) TokensUsed() int64 { return r.tokensUsed }

// Budget returns the budget status.
func (r *Report) Budget() budget.Budget { return r.budget }
