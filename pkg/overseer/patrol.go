package overseer

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/foreman/pkg/metrics"
	"github.com/cuemby/foreman/pkg/types"
)

// RunPatrolOnly runs the health patrol by itself, without the control loop
// or cost tailer, for the standalone "patrol" controller. A panic inside
// a cycle is recovered and logged rather than propagated.
func (s *Supervisor) RunPatrolOnly(ctx context.Context) error {
	return s.runGuarded(ctx, "patrol", s.runPatrol)
}

// runPatrol runs the full diagnostic battery on a fixed interval,
// emitting a health_alert signal to the overseer topic whenever any
// check reports warn or worse. A panic or error inside one cycle never
// stops the next tick from running fresh.
func (s *Supervisor) runPatrol(ctx context.Context) error {
	ticker := time.NewTicker(s.patrolInterval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.patrolInterval).Msg("health patrol started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("health patrol stopped")
			return nil
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						s.logger.Error().Interface("panic", r).Msg("recovered from panic in patrol cycle, continuing")
					}
				}()
				s.patrolOnce(ctx)
			}()
		}
	}
}

func (s *Supervisor) patrolOnce(ctx context.Context) {
	metrics.ReconciliationCyclesTotal.Inc()

	results := s.RunAll(ctx, s.patrolAutoFix)

	var alerts []Diagnostic
	for _, d := range results {
		if d.Status == SeverityOK {
			continue
		}
		metrics.HealthAlertsTotal.WithLabelValues(d.Name, string(d.Status)).Inc()
		alerts = append(alerts, d)
	}
	if len(alerts) == 0 {
		return
	}

	summary := fmt.Sprintf("%d check(s) at warn/error: %s", len(alerts), alerts[0].Name)
	if err := s.bus.Send(&types.Signal{From: "patrol", To: Topic, Subject: "health_alert", Body: summary}); err != nil {
		s.logger.Error().Err(err).Msg("failed to publish health_alert signal")
	}
}
