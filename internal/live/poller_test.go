package live

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"stockdash/internal/dashboard"
	"stockdash/internal/util"
)

type fakeSyncer struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (f *fakeSyncer) SyncCode(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	return f.err
}

func (f *fakeSyncer) synced() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.codes...)
	sort.Strings(out)
	return out
}

func shanghai(t *testing.T) *time.Location {
	t.Helper()
	loc, err := util.LoadMarketLocation(util.DefaultMarketZone)
	if err != nil {
		t.Fatalf("LoadMarketLocation: %v", err)
	}
	return loc
}

func newTestPoller(t *testing.T, s Syncer, b *Board, opts PollerOptions, now time.Time) *Poller {
	t.Helper()
	opts.Calendar = util.NewTradingCalendar(now.Location())
	p, err := NewPoller(s, b, opts, nil)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	p.Now = func() time.Time { return now }
	return p
}

func TestPollerTick(t *testing.T) {
	loc := shanghai(t)
	monday := time.Date(2024, 6, 3, 10, 0, 0, 0, loc)
	s := &fakeSyncer{err: errors.New("upstream down")}
	b := NewBoard(staticLoader("v"), nil)
	p := newTestPoller(t, s, b, PollerOptions{MarketHoursOnly: true, Codes: []string{"600519", "000001"}}, monday)

	ran, err := p.Tick(context.Background())
	if !ran || err != nil {
		t.Fatalf("Tick = %v, %v; want true, nil", ran, err)
	}
	if got := s.synced(); len(got) != 2 || got[0] != "000001" || got[1] != "600519" {
		t.Errorf("synced = %v", got)
	}
	// Views reload even when the sync fails.
	if _, ok := b.Get("600519", dashboard.ViewIntraday); !ok {
		t.Error("600519 intraday not loaded")
	}
	if got := len(b.Snapshot()); got != 6 {
		t.Errorf("len(Snapshot) = %d, want 6", got)
	}
}

func TestPollerSkipsClosedMarket(t *testing.T) {
	loc := shanghai(t)
	saturday := time.Date(2024, 6, 1, 10, 0, 0, 0, loc)
	s := &fakeSyncer{}
	p := newTestPoller(t, s, NewBoard(staticLoader("v"), nil),
		PollerOptions{MarketHoursOnly: true, Codes: []string{"600519"}}, saturday)

	ran, err := p.Tick(context.Background())
	if ran || err != nil {
		t.Errorf("Tick = %v, %v; want false, nil", ran, err)
	}
	if len(s.synced()) != 0 {
		t.Error("closed market tick should not sync")
	}
	if r, sk := p.Ticks(); r != 0 || sk != 1 {
		t.Errorf("Ticks = %d, %d; want 0, 1", r, sk)
	}
}

func TestPollerTickReportsLoadErrors(t *testing.T) {
	loc := shanghai(t)
	monday := time.Date(2024, 6, 3, 10, 0, 0, 0, loc)
	boom := errors.New("boom")
	b := NewBoard(viewFunc(func(ctx context.Context, code, view string) (any, error) {
		return nil, boom
	}), nil)
	p := newTestPoller(t, &fakeSyncer{}, b, PollerOptions{Codes: []string{"600519"}}, monday)

	if _, err := p.Tick(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestPollerNextRun(t *testing.T) {
	loc := shanghai(t)
	tests := []struct {
		name        string
		now         time.Time
		marketHours bool
		want        time.Time
	}{
		{"every minute", time.Date(2024, 6, 3, 10, 0, 30, 0, loc), false, time.Date(2024, 6, 3, 10, 1, 0, 0, loc)},
		{"lunch break", time.Date(2024, 6, 3, 12, 0, 0, 0, loc), true, time.Date(2024, 6, 3, 13, 0, 0, 0, loc)},
		{"friday close", time.Date(2024, 6, 7, 15, 30, 0, 0, loc), true, time.Date(2024, 6, 10, 9, 30, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPoller(t, &fakeSyncer{}, NewBoard(staticLoader("v"), nil),
				PollerOptions{MarketHoursOnly: tt.marketHours}, tt.now)
			if got := p.NextRun(); !got.Equal(tt.want) {
				t.Errorf("NextRun = %v, want %v", got, tt.want)
			}
			if got := p.Countdown(); got != tt.want.Sub(tt.now) {
				t.Errorf("Countdown = %v, want %v", got, tt.want.Sub(tt.now))
			}
		})
	}
}

func TestPollerCodes(t *testing.T) {
	p, err := NewPoller(&fakeSyncer{}, NewBoard(staticLoader("v"), nil), PollerOptions{Codes: []string{"600519"}}, nil)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	p.Watch("000001")
	p.Watch("600519")
	if got := p.Codes(); len(got) != 2 || got[1] != "000001" {
		t.Errorf("Codes = %v, want [600519 000001]", got)
	}
}

func TestNewPollerBadSchedule(t *testing.T) {
	if _, err := NewPoller(&fakeSyncer{}, NewBoard(staticLoader("v"), nil), PollerOptions{Schedule: "every minute"}, nil); err == nil {
		t.Error("NewPoller should reject an invalid schedule")
	}
}

func TestPollerRun(t *testing.T) {
	loc := shanghai(t)
	s := &fakeSyncer{}
	b := NewBoard(staticLoader("v"), nil)
	p := newTestPoller(t, s, b, PollerOptions{Schedule: "* * * * * *", Codes: []string{"600519"}},
		time.Date(2024, 6, 3, 10, 0, 0, 0, loc))

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ran, _ := p.Ticks(); ran < 1 {
		t.Errorf("ticks = %d, want at least 1", ran)
	}
	if len(s.synced()) < 1 {
		t.Error("Run should sync watched codes")
	}
	if _, ok := b.Get("600519", dashboard.ViewDaily); !ok {
		t.Error("600519 daily not loaded")
	}
}
