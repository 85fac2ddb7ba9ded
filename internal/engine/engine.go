package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/hostfolio/payouts/internal/clock"
	"github.com/hostfolio/payouts/internal/config"
	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
	"github.com/hostfolio/payouts/internal/observability/metrics"
	notificationdomain "github.com/hostfolio/payouts/internal/notification/domain"
	"github.com/hostfolio/payouts/internal/period"
	scheduledomain "github.com/hostfolio/payouts/internal/schedule/domain"
	statementdomain "github.com/hostfolio/payouts/internal/statement/domain"
)

type Params struct {
	fx.In

	Config        config.Config
	Log           *zap.Logger
	Clock         clock.Clock
	Schedules     scheduledomain.Service
	Listings      listingdomain.Service
	Statements    statementdomain.Service
	Notifications notificationdomain.Service
}

// Engine polls enabled schedules once a minute and fires the ones whose
// configured minute, in Eastern time, is the current one.
type Engine struct {
	log           *zap.Logger
	clock         clock.Clock
	schedules     scheduledomain.Service
	listings      listingdomain.Service
	statements    statementdomain.Service
	notifications notificationdomain.Service

	tickInterval time.Duration

	mu         sync.Mutex
	running    bool
	lastTickAt *time.Time
	lastFires  map[string]FireResult
}

func New(p Params) *Engine {
	interval := time.Duration(p.Config.EngineTickSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &Engine{
		log:           p.Log.Named("engine"),
		clock:         p.Clock,
		schedules:     p.Schedules,
		listings:      p.Listings,
		statements:    p.Statements,
		notifications: p.Notifications,
		tickInterval:  interval,
		lastFires:     map[string]FireResult{},
	}
}

// Run polls until ctx is canceled. Each tick is independent; a failed tick
// is logged and the loop keeps going.
func (e *Engine) Run(ctx context.Context) {
	e.setRunning(true)
	defer e.setRunning(false)

	e.log.Info("engine.start", zap.Duration("tick_interval", e.tickInterval))

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine.stop")
			return
		case <-ticker.C:
			if err := e.RunOnce(ctx); err != nil {
				e.log.Error("engine.tick.error", zap.Error(err))
			}
		}
	}
}

// RunOnce evaluates every enabled schedule against the current minute and
// fires the due ones.
func (e *Engine) RunOnce(ctx context.Context) error {
	now := e.clock.Now().In(period.Location())
	metrics.Engine().IncTick()
	e.markTick(now)

	scheds, err := e.schedules.ListEnabled(ctx)
	if err != nil {
		return err
	}

	for _, sched := range scheds {
		if !e.due(sched, now) {
			continue
		}
		res := e.fire(ctx, sched, now)
		e.recordFire(res)
	}
	return nil
}

// TriggerManual fires the named schedule immediately, bypassing the due
// checks. The resolved period is still the previous complete window.
func (e *Engine) TriggerManual(ctx context.Context, tag string) (FireResult, error) {
	sched, err := e.schedules.GetByTag(ctx, tag)
	if err != nil {
		return FireResult{}, err
	}
	now := e.clock.Now().In(period.Location())
	res := e.fire(ctx, sched, now)
	e.recordFire(res)
	return res, nil
}

type Status struct {
	Running      bool                  `json:"running"`
	TickInterval string                `json:"tick_interval"`
	LastTickAt   *time.Time            `json:"last_tick_at,omitempty"`
	LastFires    map[string]FireResult `json:"last_fires"`
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	fires := make(map[string]FireResult, len(e.lastFires))
	for tag, res := range e.lastFires {
		fires[tag] = res
	}
	return Status{
		Running:      e.running,
		TickInterval: e.tickInterval.String(),
		LastTickAt:   e.lastTickAt,
		LastFires:    fires,
	}
}

func (e *Engine) setRunning(v bool) {
	e.mu.Lock()
	e.running = v
	e.mu.Unlock()
}

func (e *Engine) markTick(now time.Time) {
	e.mu.Lock()
	t := now
	e.lastTickAt = &t
	e.mu.Unlock()
}

func (e *Engine) recordFire(res FireResult) {
	e.mu.Lock()
	e.lastFires[res.Tag] = res
	e.mu.Unlock()
}
