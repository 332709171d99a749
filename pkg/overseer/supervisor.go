package overseer

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/foreman/pkg/bus"
	"github.com/cuemby/foreman/pkg/config"
	"github.com/cuemby/foreman/pkg/cost"
	"github.com/cuemby/foreman/pkg/log"
	"github.com/cuemby/foreman/pkg/sandbox"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/worker"
	"github.com/cuemby/foreman/pkg/workitem"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Topic is the bus topic the control loop subscribes to.
var Topic = bus.Topic(bus.KindOverseer, "")

const defaultMaxRetries = 3

// Config parameterizes a Supervisor.
type Config struct {
	MaxRetries     int           // default 3
	PatrolInterval time.Duration // default 30s
	PatrolAutoFix  bool
	LLMCommand     string
}

// Supervisor owns the overseer's ephemeral state and runs the control
// loop, health patrol, and cost tailer as supervised siblings. Only the
// supervisor mutates retryCounts; the store remains the sole
// cross-process consistency surface.
type Supervisor struct {
	store    *store.Store
	bus      *bus.Bus
	items    *workitem.Engine
	workers  *worker.Engine
	sandbox  *sandbox.Manager
	costs    *cost.Pipeline
	tailer   *cost.Tailer
	paths    config.Paths
	logger   zerolog.Logger

	maxRetries     int
	patrolInterval time.Duration
	patrolAutoFix  bool
	llmCommand     string

	mu          sync.Mutex
	retryCounts map[string]int
}

// New returns a Supervisor. tailer may be nil to skip cost tailing (e.g.
// a dedicated process already runs it).
func New(s *store.Store, b *bus.Bus, items *workitem.Engine, workers *worker.Engine, sb *sandbox.Manager, costs *cost.Pipeline, tailer *cost.Tailer, paths config.Paths, cfg Config) *Supervisor {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	interval := cfg.PatrolInterval
	if interval == 0 {
		interval = 30 * time.Second
	}
	return &Supervisor{
		store: s, bus: b, items: items, workers: workers, sandbox: sb, costs: costs, tailer: tailer,
		paths:          paths,
		logger:         log.WithComponent("overseer"),
		maxRetries:     maxRetries,
		patrolInterval: interval,
		patrolAutoFix:  cfg.PatrolAutoFix,
		llmCommand:     cfg.LLMCommand,
		retryCounts:    make(map[string]int),
	}
}

// Run starts the control loop, the health patrol, and (if configured) the
// cost tailer as sibling goroutines, blocking until ctx is canceled or one
// of them returns a non-recovered error. A panic inside any sibling is
// recovered and logged rather than propagated, so the remaining siblings
// keep running.
func (s *Supervisor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.runGuarded(ctx, "control-loop", s.runControlLoop) })
	g.Go(func() error { return s.runGuarded(ctx, "patrol", s.runPatrol) })
	if s.tailer != nil {
		g.Go(func() error {
			return s.runGuarded(ctx, "cost-tailer", func(ctx context.Context) error {
				done := make(chan struct{})
				go func() {
					<-ctx.Done()
					close(done)
				}()
				s.tailer.Run(done)
				return nil
			})
		})
	}

	return g.Wait()
}

func (s *Supervisor) runGuarded(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("loop", name).Msg("recovered from panic, loop stopped")
			err = nil
		}
	}()
	return fn(ctx)
}
