package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anyongjin/cron"
	"golang.org/x/sync/errgroup"

	"stockdash/internal/util"
)

// Syncer asks the backend to refresh a code's stored market data.
// *backend.Client implements it.
type Syncer interface {
	SyncCode(ctx context.Context, code string) error
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	Schedule        string // cron spec with a seconds field
	MarketHoursOnly bool
	Codes           []string
	Calendar        *util.TradingCalendar
	Concurrency     int
}

// Poller periodically syncs watched codes and reloads their views into a
// Board. Ticks may overlap; the Board's sequencing keeps the newest result.
type Poller struct {
	syncer          Syncer
	board           *Board
	cal             *util.TradingCalendar
	spec            string
	schedule        cron.Schedule
	marketHoursOnly bool
	concurrency     int
	logger          *slog.Logger

	codesMu sync.RWMutex
	codes   []string

	ticks   atomic.Int64
	skipped atomic.Int64

	// Now returns the current time; replaced in tests.
	Now func() time.Time
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewPoller validates opts.Schedule and creates a Poller.
func NewPoller(syncer Syncer, board *Board, opts PollerOptions, logger *slog.Logger) (*Poller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Schedule == "" {
		opts.Schedule = "0 * * * * *"
	}
	schedule, err := cronParser.Parse(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parsing poll schedule %q: %w", opts.Schedule, err)
	}
	if opts.Calendar == nil {
		loc, _ := util.LoadMarketLocation("")
		opts.Calendar = util.NewTradingCalendar(loc)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	p := &Poller{
		syncer:          syncer,
		board:           board,
		cal:             opts.Calendar,
		spec:            opts.Schedule,
		schedule:        schedule,
		marketHoursOnly: opts.MarketHoursOnly,
		concurrency:     opts.Concurrency,
		logger:          logger,
		Now:             time.Now,
	}
	p.SetCodes(opts.Codes)
	return p, nil
}

// SetCodes replaces the watched codes.
func (p *Poller) SetCodes(codes []string) {
	cp := append([]string(nil), codes...)
	p.codesMu.Lock()
	p.codes = cp
	p.codesMu.Unlock()
}

// Codes returns a copy of the watched codes.
func (p *Poller) Codes() []string {
	p.codesMu.RLock()
	defer p.codesMu.RUnlock()
	return append([]string(nil), p.codes...)
}

// Watch adds code to the watched set if absent.
func (p *Poller) Watch(code string) {
	p.codesMu.Lock()
	defer p.codesMu.Unlock()
	for _, c := range p.codes {
		if c == code {
			return
		}
	}
	p.codes = append(p.codes, code)
}

// Tick runs one poll: sync then reload each watched code. A failed sync is
// logged and the code's views are still reloaded from what the backend has.
// It reports whether the tick ran; ticks outside market hours are skipped
// when the Poller is restricted to them.
func (p *Poller) Tick(ctx context.Context) (bool, error) {
	now := p.Now()
	if p.marketHoursOnly && !p.cal.IsMarketOpen(now) {
		p.skipped.Add(1)
		p.logger.Debug("poll skipped outside market hours", "at", now)
		return false, nil
	}
	n := p.ticks.Add(1)
	codes := p.Codes()
	start := time.Now()

	var (
		errMu sync.Mutex
		errs  []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, code := range codes {
		g.Go(func() error {
			if err := p.syncer.SyncCode(gctx, code); err != nil {
				p.logger.Warn("sync failed", "code", code, "tick", n, "error", err)
			}
			if _, err := p.board.RefreshCode(gctx, code); err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		p.logger.Warn("poll finished with errors", "tick", n, "codes", len(codes), "error", err)
	} else {
		p.logger.Info("poll finished", "tick", n, "codes", len(codes), "elapsed", time.Since(start))
	}
	return true, err
}

// Run schedules Tick until ctx is cancelled. Each scheduled tick runs on its
// own goroutine, so a slow tick does not delay the next one.
func (p *Poller) Run(ctx context.Context) error {
	c := cron.New(cron.WithSeconds(), cron.WithLogger(p.logger))
	if _, err := c.Add(p.spec, func() {
		p.Tick(ctx)
	}); err != nil {
		return fmt.Errorf("scheduling poll: %w", err)
	}
	p.logger.Info("poller started", "schedule", p.spec, "codes", len(p.Codes()),
		"market_hours_only", p.marketHoursOnly, "next", p.NextRun())
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done() // wait for running ticks
	p.logger.Info("poller stopped", "ticks", p.ticks.Load(), "skipped", p.skipped.Load())
	return nil
}

// NextRun returns when the schedule fires next. With market hours only, a
// fire time while the market is closed is pushed to the next open.
func (p *Poller) NextRun() time.Time {
	next := p.schedule.Next(p.Now())
	if p.marketHoursOnly && !p.cal.IsMarketOpen(next) {
		next = p.schedule.Next(p.cal.NextOpen(next).Add(-time.Nanosecond))
	}
	return next
}

// Countdown returns the time left until NextRun.
func (p *Poller) Countdown() time.Duration {
	d := p.NextRun().Sub(p.Now())
	if d < 0 {
		return 0
	}
	return d
}

// Ticks returns how many ticks have run and how many were skipped.
func (p *Poller) Ticks() (ran, skipped int64) {
	return p.ticks.Load(), p.skipped.Load()
}
