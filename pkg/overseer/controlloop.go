package overseer

import (
	"context"

	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/cuemby/foreman/pkg/types"
)

const (
	subjectJobComplete    = "job_complete"
	subjectJobFailed      = "job_failed"
	subjectBudgetExceeded = "budget_exceeded"
)

// runControlLoop subscribes to the overseer topic and reacts to signals
// until ctx is done.
func (s *Supervisor) runControlLoop(ctx context.Context) error {
	sub := s.bus.Subscribe(Topic)
	defer s.bus.Unsubscribe(Topic, sub)

	s.logger.Info().Msg("control loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("control loop stopped")
			return nil
		case sig, ok := <-sub:
			if !ok {
				return nil
			}
			s.react(ctx, sig.From, sig.Subject)
			_ = s.bus.MarkRead(sig.ID)
		}
	}
}

func (s *Supervisor) react(ctx context.Context, workerID, subject string) {
	switch subject {
	case subjectJobComplete:
		s.clearRetryState(workerID)
	case subjectJobFailed:
		s.retry(ctx, workerID)
	default:
		s.logger.Debug().Str("worker_id", workerID).Str("subject", subject).Msg("signal ignored")
	}
}

func (s *Supervisor) clearRetryState(workerID string) {
	worker, err := s.workers.Get(workerID)
	if err != nil {
		return
	}
	s.mu.Lock()
	delete(s.retryCounts, worker.WorkItemID)
	s.mu.Unlock()
}

// retry implements the retry protocol: look up the failed worker's item,
// check the retry count and budget, reset the item, and spawn a fresh
// attached worker. Each give-up path only logs — a single item's retry
// exhaustion never stops the control loop.
func (s *Supervisor) retry(ctx context.Context, workerID string) {
	w, err := s.workers.Get(workerID)
	if err != nil {
		s.logger.Debug().Str("worker_id", workerID).Msg("worker not found, cannot retry")
		return
	}
	itemID := w.WorkItemID
	if itemID == "" {
		return
	}
	item, err := s.items.Get(itemID)
	if err != nil {
		s.logger.Warn().Err(err).Str("item_id", itemID).Msg("work item not found, giving up")
		return
	}

	s.mu.Lock()
	n := s.retryCounts[itemID]
	s.mu.Unlock()
	if n >= s.maxRetries {
		s.logger.Warn().Str("item_id", itemID).Int("retries", n).Msg("retry limit exhausted")
		return
	}

	status, err := s.costs.Check(item.GoalID)
	if err != nil && ferrors.Is(err, ferrors.BudgetExceeded) {
		s.logger.Warn().Str("goal_id", item.GoalID).Float64("spent", status.Spent).Msg("budget exceeded, giving up retry")
		_ = s.bus.Send(&types.Signal{From: itemID, To: Topic, Subject: subjectBudgetExceeded, Body: item.GoalID})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("goal_id", item.GoalID).Msg("budget check failed, giving up retry")
		return
	}

	if err := s.items.Reset(ctx, itemID); err != nil {
		s.logger.Error().Err(err).Str("item_id", itemID).Msg("reset failed, giving up retry")
		return
	}

	if _, err := s.workers.SpawnAttached(ctx, itemID, "retry-"+itemID); err != nil {
		s.logger.Error().Err(err).Str("item_id", itemID).Msg("retry spawn failed")
		return
	}

	s.mu.Lock()
	s.retryCounts[itemID] = n + 1
	s.mu.Unlock()
	s.logger.Info().Str("item_id", itemID).Int("retries", n+1).Msg("retry spawned")
}
