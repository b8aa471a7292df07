package health

import (
	"context"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult holds the outcome of a single component check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Report aggregates component checks into an overall status.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service performs health checks against the search engine.
type Service struct {
	engine  EnginePinger
	timeout time.Duration
}

func NewService(engine EnginePinger) *Service {
	return &Service{
		engine:  engine,
		timeout: 2 * time.Second,
	}
}

// Check pings the engine and reports overall service health.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	checks := make(map[string]CheckResult)

	if err := s.engine.Ping(ctx); err != nil {
		checks["engine"] = CheckResult{Status: StatusUnhealthy, Message: err.Error()}
	} else {
		checks["engine"] = CheckResult{Status: StatusHealthy}
	}

	overall := StatusHealthy
	for _, c := range checks {
		if c.Status == StatusUnhealthy {
			overall = StatusUnhealthy
			break
		}
		if c.Status == StatusDegraded {
			overall = StatusDegraded
		}
	}

	return Report{Status: overall, Checks: checks}
}
