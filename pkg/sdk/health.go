package studyplan

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/studyplan/internal/usecase/health"
)

// HealthStatus is the aggregated health of the session store and the model backend.
type HealthStatus struct {
	Status string            // "ok", "degraded"
	Checks map[string]string // "database", "llm" -> "ok"/"error"
}

// OK reports whether every component is healthy.
func (h HealthStatus) OK() bool { return h.Status == string(healthuc.Healthy) }

// Health pings the session store and reports whether a model is configured.
// A degraded client still answers with fixed replies.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	h := HealthStatus{Status: string(report.Status), Checks: checks}
	c.obs.observe("health", start, nil, "status", h.Status)
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
