package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"stockdash/internal/domain"
)

type call struct {
	kind       string
	start, end time.Time
}

type fakeSource struct {
	mu     sync.Mutex
	calls  []call
	quotes []domain.Quote
	trends []domain.Trend
	klines []domain.Kline
	err    error
}

func (f *fakeSource) record(kind string, start, end time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind, start, end})
}

func (f *fakeSource) Quotes(_ context.Context, _ string, start, end time.Time) ([]domain.Quote, error) {
	f.record("quotes", start, end)
	return f.quotes, f.err
}

func (f *fakeSource) Trends(_ context.Context, _ string, start, end time.Time) ([]domain.Trend, error) {
	f.record("trends", start, end)
	return f.trends, f.err
}

func (f *fakeSource) Klines(_ context.Context, _ string, _ int, start, end time.Time) ([]domain.Kline, error) {
	f.record("klines", start, end)
	return f.klines, f.err
}

func newTestLoader(src Source, now time.Time) *Loader {
	l := NewLoader(src, opts, 7, 120, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.Now = func() time.Time { return now }
	return l
}

func TestLoaderWindow(t *testing.T) {
	l := newTestLoader(&fakeSource{}, time.Time{})
	morning := time.Date(2024, 6, 4, 8, 30, 0, 0, cst)
	afternoon := time.Date(2024, 6, 4, 14, 0, 0, 0, cst)
	end := time.Date(2024, 6, 4, 23, 59, 59, 0, cst)

	tests := []struct {
		view      string
		now       time.Time
		wantStart time.Time
	}{
		{ViewIntraday, morning, time.Date(2024, 6, 3, 0, 0, 0, 0, cst)},
		{ViewIntraday, afternoon, time.Date(2024, 6, 4, 0, 0, 0, 0, cst)},
		{ViewFiveDay, afternoon, time.Date(2024, 5, 28, 0, 0, 0, 0, cst)},
		{ViewDaily, afternoon, time.Date(2024, 2, 5, 0, 0, 0, 0, cst)},
	}
	for _, tt := range tests {
		start, gotEnd := l.Window(tt.view, tt.now)
		if !start.Equal(tt.wantStart) {
			t.Errorf("Window(%s, %v) start = %v, want %v", tt.view, tt.now, start, tt.wantStart)
		}
		if !gotEnd.Equal(end) {
			t.Errorf("Window(%s) end = %v, want %v", tt.view, gotEnd, end)
		}
	}
}

func TestLoaderIntradayFromTrends(t *testing.T) {
	src := &fakeSource{trends: []domain.Trend{
		{Datetime: "2024-06-04 09:31", Price: 11, Pct: 10, Volume: 100, Amount: 1100},
		{Datetime: "2024-06-04 09:32", Price: 11.5, Pct: 15, Volume: 100, Amount: 1150},
	}}
	l := newTestLoader(src, time.Date(2024, 6, 4, 10, 0, 0, 0, cst))

	v, err := l.Intraday(context.Background(), "600519")
	if err != nil {
		t.Fatalf("Intraday: %v", err)
	}
	if v.PreviousClose < 9.999 || v.PreviousClose > 10.001 {
		t.Errorf("PreviousClose = %v, want 10", v.PreviousClose)
	}
	if len(v.Points) != 2 {
		t.Errorf("len(Points) = %d, want 2", len(v.Points))
	}
	for _, c := range src.calls {
		if c.kind == "quotes" {
			t.Error("quotes should not be fetched when trends exist")
		}
	}
}

func TestLoaderIntradayFallsBackToQuotes(t *testing.T) {
	src := &fakeSource{quotes: []domain.Quote{
		{SnapshotTime: "2024-06-04 10:00:00", LatestPrice: 10.2, PreviousClosePrice: 10, Volume: 5},
	}}
	l := newTestLoader(src, time.Date(2024, 6, 4, 10, 30, 0, 0, cst))

	v, err := l.Intraday(context.Background(), "600519")
	if err != nil {
		t.Fatalf("Intraday: %v", err)
	}
	if v.PreviousClose != 10 || len(v.Points) != 1 {
		t.Errorf("view = %+v", v)
	}
}

func TestLoaderDailyAggregatesQuotes(t *testing.T) {
	src := &fakeSource{quotes: []domain.Quote{
		{SnapshotTime: "2024-06-03 09:30:00", LatestPrice: 10, Volume: 100},
		{SnapshotTime: "2024-06-03 10:00:00", LatestPrice: 10.5, Volume: 200},
		{SnapshotTime: "2024-06-03 14:00:00", LatestPrice: 9.8, Volume: 150},
	}}
	l := newTestLoader(src, time.Date(2024, 6, 4, 10, 0, 0, 0, cst))

	v, err := l.Daily(context.Background(), "600519")
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if len(v.Candles) != 1 {
		t.Fatalf("len(Candles) = %d, want 1", len(v.Candles))
	}
	c := v.Candles[0]
	if c.Open != 10 || c.Close != 9.8 || c.High != 10.5 || c.Low != 9.8 || c.Volume != 450 {
		t.Errorf("candle = %+v", c)
	}
}

func TestLoaderOverviewPropagatesError(t *testing.T) {
	boom := errors.New("backend down")
	l := newTestLoader(&fakeSource{err: boom}, time.Date(2024, 6, 4, 10, 0, 0, 0, cst))

	if _, err := l.Overview(context.Background(), "600519"); !errors.Is(err, boom) {
		t.Errorf("Overview error = %v, want %v", err, boom)
	}
}

func TestLoaderOverview(t *testing.T) {
	src := &fakeSource{
		quotes: []domain.Quote{{SnapshotTime: "2024-06-04 10:00:00", LatestPrice: 10, PreviousClosePrice: 9.9}},
		klines: []domain.Kline{{Date: "2024-06-03", Open: 9.8, Close: 9.9, High: 10, Low: 9.7, Volume: 1000}},
	}
	l := newTestLoader(src, time.Date(2024, 6, 4, 10, 30, 0, 0, cst))

	ov, err := l.Overview(context.Background(), "600519")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if ov.Code != "600519" || len(ov.FiveDay.Points) != 1 || len(ov.Daily.Candles) != 1 {
		t.Errorf("overview = %+v", ov)
	}
	if _, err := l.View(context.Background(), "600519", "weekly"); err == nil {
		t.Error("View(weekly) should fail")
	}
}
