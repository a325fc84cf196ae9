package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"stockdash/internal/chart"
	"stockdash/internal/domain"
	"stockdash/internal/util"
)

// Source supplies upstream records for a code within a time window.
type Source interface {
	Quotes(ctx context.Context, code string, start, end time.Time) ([]domain.Quote, error)
	Trends(ctx context.Context, code string, start, end time.Time) ([]domain.Trend, error)
	Klines(ctx context.Context, code string, period int, start, end time.Time) ([]domain.Kline, error)
}

// View names.
const (
	ViewIntraday = "intraday"
	ViewFiveDay  = "five-day"
	ViewDaily    = "daily"
)

// Overview bundles the three chart views of one code.
type Overview struct {
	Code     string       `json:"code"`
	Intraday IntradayView `json:"intraday"`
	FiveDay  FiveDayView  `json:"fiveDay"`
	Daily    DailyView    `json:"daily"`
}

// Loader fetches records from a Source and shapes them into views.
type Loader struct {
	src         Source
	cal         *util.TradingCalendar
	opts        ViewOptions
	fiveDayDays int
	dailyDays   int
	logger      *slog.Logger

	// Now returns the current time; replaced in tests.
	Now func() time.Time
}

// NewLoader creates a Loader. fiveDayDays and dailyDays are the calendar-day
// lookbacks of the five-day and daily views.
func NewLoader(src Source, opts ViewOptions, fiveDayDays, dailyDays int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if fiveDayDays <= 0 {
		fiveDayDays = 7
	}
	if dailyDays <= 0 {
		dailyDays = 120
	}
	return &Loader{
		src:         src,
		cal:         util.NewTradingCalendar(opts.Location),
		opts:        opts,
		fiveDayDays: fiveDayDays,
		dailyDays:   dailyDays,
		logger:      logger,
		Now:         time.Now,
	}
}

// Window returns the [start, end] time range a view loads at now. Every
// window ends at 23:59:59 of today.
func (l *Loader) Window(view string, now time.Time) (time.Time, time.Time) {
	today := l.cal.At(now, util.Clock{})
	end := today.Add(24*time.Hour - time.Second)
	switch view {
	case ViewFiveDay:
		return today.AddDate(0, 0, -l.fiveDayDays), end
	case ViewDaily:
		return today.AddDate(0, 0, -l.dailyDays), end
	default:
		return l.cal.SessionDate(now), end
	}
}

// Intraday loads today's session from minute trends, falling back to quote
// snapshots when no trends are stored.
func (l *Loader) Intraday(ctx context.Context, code string) (IntradayView, error) {
	start, end := l.Window(ViewIntraday, l.Now())
	loc := l.cal.Location()

	trends, err := l.src.Trends(ctx, code, start, end)
	if err != nil {
		return IntradayView{}, fmt.Errorf("loading trends for %s: %w", code, err)
	}
	bars := chart.FromTrends(trends, loc)
	var prevClose float64
	if len(bars) > 0 {
		first := earliestTrend(trends, loc)
		prevClose = chart.PreviousCloseFromTrend(first.Price.Float(), first.Pct.Float())
	} else {
		quotes, err := l.src.Quotes(ctx, code, start, end)
		if err != nil {
			return IntradayView{}, fmt.Errorf("loading quotes for %s: %w", code, err)
		}
		bars, prevClose = quoteBars(quotes, loc)
	}

	l.logger.Debug("intraday loaded", "code", code, "bars", len(bars))
	return BuildIntraday(code, bars, prevClose, l.opts), nil
}

// FiveDay loads recent sessions from quote snapshots, falling back to
// minute trends.
func (l *Loader) FiveDay(ctx context.Context, code string) (FiveDayView, error) {
	start, end := l.Window(ViewFiveDay, l.Now())
	loc := l.cal.Location()

	quotes, err := l.src.Quotes(ctx, code, start, end)
	if err != nil {
		return FiveDayView{}, fmt.Errorf("loading quotes for %s: %w", code, err)
	}
	bars, prevClose := quoteBars(quotes, loc)
	if len(bars) == 0 {
		trends, err := l.src.Trends(ctx, code, start, end)
		if err != nil {
			return FiveDayView{}, fmt.Errorf("loading trends for %s: %w", code, err)
		}
		bars = chart.FromTrends(trends, loc)
		if len(bars) > 0 {
			first := earliestTrend(trends, loc)
			prevClose = chart.PreviousCloseFromTrend(first.Price.Float(), first.Pct.Float())
		}
	}

	l.logger.Debug("five-day loaded", "code", code, "bars", len(bars))
	return BuildFiveDay(code, bars, prevClose, l.opts), nil
}

// Daily loads daily klines, falling back to aggregating quote snapshots.
func (l *Loader) Daily(ctx context.Context, code string) (DailyView, error) {
	start, end := l.Window(ViewDaily, l.Now())
	loc := l.cal.Location()

	klines, err := l.src.Klines(ctx, code, domain.PeriodDay, start, end)
	if err != nil {
		return DailyView{}, fmt.Errorf("loading klines for %s: %w", code, err)
	}
	bars := chart.FromKlines(klines, loc)
	if len(bars) == 0 {
		quotes, err := l.src.Quotes(ctx, code, start, end)
		if err != nil {
			return DailyView{}, fmt.Errorf("loading quotes for %s: %w", code, err)
		}
		ticks, _ := quoteBars(quotes, loc)
		bars = chart.AggregateDaily(ticks, loc)
	}

	l.logger.Debug("daily loaded", "code", code, "bars", len(bars))
	return BuildDaily(code, bars, l.opts), nil
}

// View loads a single view by name.
func (l *Loader) View(ctx context.Context, code, view string) (any, error) {
	switch view {
	case ViewIntraday:
		return l.Intraday(ctx, code)
	case ViewFiveDay:
		return l.FiveDay(ctx, code)
	case ViewDaily:
		return l.Daily(ctx, code)
	}
	return nil, fmt.Errorf("unknown view %q", view)
}

// Overview loads all three views concurrently.
func (l *Loader) Overview(ctx context.Context, code string) (*Overview, error) {
	ov := &Overview{Code: code}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := l.Intraday(gctx, code)
		ov.Intraday = v
		return err
	})
	g.Go(func() error {
		v, err := l.FiveDay(gctx, code)
		ov.FiveDay = v
		return err
	})
	g.Go(func() error {
		v, err := l.Daily(gctx, code)
		ov.Daily = v
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ov, nil
}

// quoteBars adapts snapshots and derives the previous close from the
// earliest one.
func quoteBars(quotes []domain.Quote, loc *time.Location) ([]domain.CanonicalBar, float64) {
	bars := chart.FromQuotes(quotes, loc)
	if len(bars) == 0 {
		return bars, 0
	}
	var first *domain.Quote
	var firstTS int64
	for i := range quotes {
		ts, ok := chart.ParseTime(quotes[i].SnapshotTime, loc)
		if !ok {
			continue
		}
		if first == nil || ts < firstTS {
			first, firstTS = &quotes[i], ts
		}
	}
	return bars, chart.PreviousCloseFromQuote(*first)
}

func earliestTrend(trends []domain.Trend, loc *time.Location) domain.Trend {
	var first domain.Trend
	var firstTS int64
	found := false
	for _, tr := range trends {
		ts, ok := chart.ParseTime(tr.Datetime, loc)
		if !ok {
			continue
		}
		if !found || ts < firstTS {
			first, firstTS, found = tr, ts, true
		}
	}
	return first
}
