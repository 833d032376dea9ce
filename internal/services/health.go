package services

import (
	"context"
	"sort"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthReport struct {
	Success  bool              `json:"success"`
	Services map[string]string `json:"services"`
}

type HealthService interface {
	Check(ctx context.Context) HealthReport
}

type healthService struct {
	log     *logger.Logger
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthService(log *logger.Logger, checks map[string]Pinger) HealthService {
	if log == nil {
		log = logger.NewNop()
	}
	return &healthService{
		log:     log.With("service", "HealthService"),
		checks:  checks,
		timeout: 3 * time.Second,
	}
}

func (s *healthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{Success: true, Services: map[string]string{}}
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.checks[name].Ping(pctx)
		cancel()
		if err != nil {
			s.log.Warn("Health check failed", "dependency", name, "error", err)
			report.Services[name] = "disconnected"
			report.Success = false
			continue
		}
		report.Services[name] = "connected"
	}
	return report
}
