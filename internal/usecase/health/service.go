package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component failed.
	Degraded Status = "degraded"
	// Unhealthy indicates a required component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

type component struct {
	name     string
	pinger   Pinger
	required bool
}

// Service coordinates health checks.
type Service struct {
	components []component
	timeout    time.Duration
}

// New creates a Service with no components.
func New() *Service {
	return &Service{timeout: 2 * time.Second}
}

// Require adds a component whose failure makes the service unhealthy.
func (s *Service) Require(name string, p Pinger) *Service {
	s.components = append(s.components, component{name: name, pinger: p, required: true})
	return s
}

// Optional adds a component whose failure only degrades the service.
func (s *Service) Optional(name string, p Pinger) *Service {
	s.components = append(s.components, component{name: name, pinger: p})
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.components))
	status := Healthy

	for _, c := range s.components {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := c.pinger.Ping(pctx)
		cancel()
		if err == nil {
			checks[c.name] = CheckOK
			continue
		}
		checks[c.name] = CheckError
		switch {
		case c.required:
			status = Unhealthy
		case status == Healthy:
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}
