package cost

import (
	"fmt"
	"math"
	"time"

	"github.com/cuemby/foreman/pkg/bus"
	"github.com/cuemby/foreman/pkg/ferrors"
	"github.com/cuemby/foreman/pkg/ids"
	"github.com/cuemby/foreman/pkg/log"
	"github.com/cuemby/foreman/pkg/metrics"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/cuemby/foreman/pkg/workitem"
	"github.com/rs/zerolog"
)

// CostsTopic is the best-effort, unstable cost-update signal recipient.
// No consumer ships in the core; the topic exists for future dashboards.
const CostsTopic = "costs"

// Status is the result of a budget check.
type Status struct {
	OK        bool
	Remaining float64
	Spent     float64
}

// Pipeline records CostEntry data and answers per-goal budget queries.
type Pipeline struct {
	s      *store.Store
	bus    *bus.Bus
	items  *workitem.Engine
	table  PricingTable
	budget float64 // global default budget_usd, overridden per-goal by Goal.BudgetUSD
	logger zerolog.Logger
}

// New returns a Pipeline. globalBudgetUSD is the [costs] budget_usd
// default consulted when a Goal carries no per-goal override.
func New(s *store.Store, b *bus.Bus, items *workitem.Engine, table PricingTable, globalBudgetUSD float64) *Pipeline {
	return &Pipeline{s: s, bus: b, items: items, table: table, budget: globalBudgetUSD, logger: log.WithComponent("cost")}
}

// Record inserts a CostEntry for workerID. If attrs.CostUSD is absent, the
// cost is computed from the token counts and model using the configured
// pricing table. The entry is also published on the cost-update topic,
// best-effort.
func (p *Pipeline) Record(workerID string, attrs Attrs) (*types.CostEntry, error) {
	costUSD := Calculate(attrs, p.table)
	if attrs.CostUSD != nil {
		costUSD = *attrs.CostUSD
	}
	entry := &types.CostEntry{
		WorkerID:         workerID,
		InputTokens:      attrs.InputTokens,
		OutputTokens:     attrs.OutputTokens,
		CacheReadTokens:  attrs.CacheReadTokens,
		CacheWriteTokens: attrs.CacheWriteTokens,
		CostUSD:          costUSD,
		Model:            attrs.Model,
		RecordedAt:       time.Now(),
	}
	if err := store.Insert[types.CostEntry, *types.CostEntry](p.s, store.CostEntries, ids.PrefixCostEntry, entry); err != nil {
		return nil, err
	}

	model := attrs.Model
	if model == "" {
		model = p.table.DefaultModel
	}
	metrics.CostUSDTotal.WithLabelValues(model).Add(costUSD)
	metrics.TokensTotal.WithLabelValues(model, "input").Add(float64(attrs.InputTokens))
	metrics.TokensTotal.WithLabelValues(model, "output").Add(float64(attrs.OutputTokens))
	metrics.TokensTotal.WithLabelValues(model, "cache_read").Add(float64(attrs.CacheReadTokens))
	metrics.TokensTotal.WithLabelValues(model, "cache_write").Add(float64(attrs.CacheWriteTokens))

	if p.bus != nil {
		_ = p.bus.Send(&types.Signal{
			From: workerID, To: CostsTopic, Subject: "cost_recorded", Body: entry.ID,
		})
	}
	return entry, nil
}

// SpentFor sums cost_usd over every CostEntry whose worker is referenced
// by any work item of goalID.
func (p *Pipeline) SpentFor(goalID string) (float64, error) {
	goalItems, err := p.items.ListByGoal(goalID)
	if err != nil {
		return 0, err
	}
	workerIDs := make(map[string]bool, len(goalItems))
	for _, item := range goalItems {
		if item.WorkerID != "" {
			workerIDs[item.WorkerID] = true
		}
	}
	entries, err := store.All[types.CostEntry, *types.CostEntry](p.s, store.CostEntries)
	if err != nil {
		return 0, err
	}
	var spent float64
	for _, e := range entries {
		if workerIDs[e.WorkerID] {
			spent += e.CostUSD
		}
	}
	return spent, nil
}

// BudgetFor returns goalID's configured budget: its own override if set,
// else the pipeline's global default.
func (p *Pipeline) BudgetFor(goalID string) (float64, error) {
	goal, err := store.Fetch[types.Goal, *types.Goal](p.s, store.Goals, goalID)
	if err != nil {
		return 0, err
	}
	if goal.BudgetUSD != nil {
		return *goal.BudgetUSD, nil
	}
	return p.budget, nil
}

// Check reports whether goalID still has budget headroom. A negative
// remaining yields a BudgetExceeded error carrying the spent amount.
func (p *Pipeline) Check(goalID string) (Status, error) {
	budget, err := p.BudgetFor(goalID)
	if err != nil {
		return Status{}, err
	}
	spent, err := p.SpentFor(goalID)
	if err != nil {
		return Status{}, err
	}
	remaining := round6(budget - spent)
	if remaining < 0 {
		return Status{OK: false, Remaining: remaining, Spent: spent},
			ferrors.New(ferrors.BudgetExceeded, fmt.Sprintf("goal %s: spent %.6f of %.6f", goalID, spent, budget))
	}
	return Status{OK: true, Remaining: remaining, Spent: spent}, nil
}

func round6(v float64) float64 {
	return math.Round(v*1_000_000) / 1_000_000
}
