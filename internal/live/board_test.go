package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockdash/internal/dashboard"
)

type viewFunc func(ctx context.Context, code, view string) (any, error)

func (f viewFunc) View(ctx context.Context, code, view string) (any, error) { return f(ctx, code, view) }

func staticLoader(data string) ViewLoader {
	return viewFunc(func(ctx context.Context, code, view string) (any, error) {
		return data + ":" + code + ":" + view, nil
	})
}

func TestBoardStaleRefreshDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var (
		mu    sync.Mutex
		calls int
	)
	loader := viewFunc(func(ctx context.Context, code, view string) (any, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return "old", nil
		}
		return "new", nil
	})
	b := NewBoard(loader, nil)
	ctx := context.Background()

	type result struct {
		entry   Entry
		applied bool
		err     error
	}
	slow := make(chan result, 1)
	go func() {
		e, applied, err := b.Refresh(ctx, "600519", dashboard.ViewIntraday)
		slow <- result{e, applied, err}
	}()
	<-started

	fast, applied, err := b.Refresh(ctx, "600519", dashboard.ViewIntraday)
	if err != nil || !applied || fast.Data != "new" {
		t.Fatalf("fast Refresh = %v, %v, %v; want new, true, nil", fast.Data, applied, err)
	}
	close(release)
	r := <-slow
	if r.err != nil || r.applied {
		t.Errorf("slow Refresh = %v, %v; want false, nil", r.applied, r.err)
	}
	// The discarded refresh hands back the newer stored entry.
	if r.entry.Data != "new" {
		t.Errorf("slow Refresh entry = %v, want new", r.entry.Data)
	}

	e, ok := b.Get("600519", dashboard.ViewIntraday)
	if !ok || e.Data != "new" {
		t.Errorf("Get = %+v, %v; want data new", e, ok)
	}
	if got := b.Stale(); got != 1 {
		t.Errorf("Stale = %d, want 1", got)
	}
}

func TestBoardSupersededRefreshKeepsOwnResult(t *testing.T) {
	gates := map[string]chan struct{}{"a": make(chan struct{}), "b": make(chan struct{})}
	started := make(chan string, 2)
	loader := viewFunc(func(ctx context.Context, code, view string) (any, error) {
		name := ctx.Value(gateKey{}).(string)
		started <- name
		<-gates[name]
		return name, nil
	})
	b := NewBoard(loader, nil)

	type result struct {
		entry   Entry
		applied bool
		err     error
	}
	run := func(name string) <-chan result {
		ch := make(chan result, 1)
		go func() {
			ctx := context.WithValue(context.Background(), gateKey{}, name)
			e, applied, err := b.Refresh(ctx, "600519", dashboard.ViewIntraday)
			ch <- result{e, applied, err}
		}()
		return ch
	}

	first := run("a")
	<-started
	second := run("b")
	<-started

	// The older refresh finishes first while nothing is stored yet.
	close(gates["a"])
	r := <-first
	if r.err != nil || r.applied || r.entry.Data != "a" {
		t.Errorf("first Refresh = %v, %v, %v; want a, false, nil", r.entry.Data, r.applied, r.err)
	}
	if _, ok := b.Get("600519", dashboard.ViewIntraday); ok {
		t.Error("superseded refresh should not store an entry")
	}

	close(gates["b"])
	r = <-second
	if r.err != nil || !r.applied || r.entry.Data != "b" {
		t.Errorf("second Refresh = %v, %v, %v; want b, true, nil", r.entry.Data, r.applied, r.err)
	}
}

type gateKey struct{}

func TestBoardRefreshError(t *testing.T) {
	boom := errors.New("boom")
	b := NewBoard(viewFunc(func(ctx context.Context, code, view string) (any, error) {
		return nil, boom
	}), nil)
	if _, _, err := b.Refresh(context.Background(), "600519", dashboard.ViewDaily); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if _, ok := b.Get("600519", dashboard.ViewDaily); ok {
		t.Error("failed refresh should not store an entry")
	}
}

func TestBoardRefreshCodeAndSnapshot(t *testing.T) {
	b := NewBoard(staticLoader("v"), nil)
	fixed := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	b.Now = func() time.Time { return fixed }
	ctx := context.Background()

	for _, code := range []string{"600519", "000001"} {
		entries, err := b.RefreshCode(ctx, code)
		if err != nil {
			t.Fatalf("RefreshCode(%s): %v", code, err)
		}
		if len(entries) != len(Views) || entries[0].View != dashboard.ViewIntraday || entries[2].Data != "v:"+code+":daily" {
			t.Errorf("RefreshCode(%s) = %+v", code, entries)
		}
	}

	snap := b.Snapshot()
	if len(snap) != 6 {
		t.Fatalf("len(Snapshot) = %d, want 6", len(snap))
	}
	want := []struct{ code, view string }{
		{"000001", dashboard.ViewIntraday},
		{"000001", dashboard.ViewFiveDay},
		{"000001", dashboard.ViewDaily},
		{"600519", dashboard.ViewIntraday},
		{"600519", dashboard.ViewFiveDay},
		{"600519", dashboard.ViewDaily},
	}
	for i, w := range want {
		if snap[i].Code != w.code || snap[i].View != w.view {
			t.Errorf("Snapshot[%d] = %s/%s, want %s/%s", i, snap[i].Code, snap[i].View, w.code, w.view)
		}
		if !snap[i].UpdatedAt.Equal(fixed) {
			t.Errorf("Snapshot[%d].UpdatedAt = %v, want %v", i, snap[i].UpdatedAt, fixed)
		}
	}

	b.Forget("000001")
	if got := len(b.Snapshot()); got != 3 {
		t.Errorf("len(Snapshot) after Forget = %d, want 3", got)
	}
}

func TestBoardSubscribe(t *testing.T) {
	b := NewBoard(staticLoader("v"), nil)
	id, ch := b.Subscribe(4)
	if b.Subscribers() != 1 {
		t.Errorf("Subscribers = %d, want 1", b.Subscribers())
	}

	if _, _, err := b.Refresh(context.Background(), "600519", dashboard.ViewDaily); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	select {
	case evt := <-ch:
		if evt.Type != EventUpdate || len(evt.Entries) != 1 || evt.Entries[0].View != dashboard.ViewDaily {
			t.Errorf("event = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	b.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	if b.Subscribers() != 0 {
		t.Errorf("Subscribers = %d, want 0", b.Subscribers())
	}
}

func TestBoardSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBoard(staticLoader("v"), nil)
	_, ch := b.Subscribe(1)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, _, err := b.Refresh(ctx, "600519", dashboard.ViewIntraday); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}
	if got := len(ch); got != 1 {
		t.Errorf("buffered events = %d, want 1", got)
	}
}
