// Package live keeps the latest chart views of watched codes in memory,
// refreshes them on a schedule, and fans updates out to subscribers.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stockdash/internal/dashboard"
)

// Event types.
const (
	EventSnapshot = "snapshot"
	EventUpdate   = "update"
)

// Views lists the views a Board keeps per code, in display order.
var Views = []string{dashboard.ViewIntraday, dashboard.ViewFiveDay, dashboard.ViewDaily}

// Entry is the stored result of one view load.
type Entry struct {
	Code      string    `json:"code"`
	View      string    `json:"view"`
	Data      any       `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event is sent to subscribers. A snapshot carries every entry; an update
// carries the entries that changed.
type Event struct {
	Type    string  `json:"type"`
	Entries []Entry `json:"entries"`
}

// ViewLoader loads one named chart view. *dashboard.Loader implements it.
type ViewLoader interface {
	View(ctx context.Context, code, view string) (any, error)
}

// Board holds the latest view per (code, view). Overlapping refreshes of the
// same view are ordered by a Sequencer so an older load never replaces a
// newer one.
type Board struct {
	loader ViewLoader
	seq    *Sequencer
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]Entry

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event

	// Now stamps entries; replaced in tests.
	Now func() time.Time
}

// NewBoard creates an empty Board backed by loader.
func NewBoard(loader ViewLoader, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		loader:  loader,
		seq:     NewSequencer(),
		logger:  logger,
		entries: make(map[string]Entry),
		subs:    make(map[int]chan Event),
		Now:     time.Now,
	}
}

func entryKey(code, view string) string { return code + "/" + view }

// Refresh loads one view and stores it unless a newer refresh of the same
// view began in the meantime. It returns the entry the caller should show:
// its own result when stored, otherwise the newest stored entry, or its own
// result if nothing newer has been stored yet. applied reports whether the
// result was stored.
func (b *Board) Refresh(ctx context.Context, code, view string) (e Entry, applied bool, err error) {
	t := b.seq.Begin(entryKey(code, view))
	data, err := b.loader.View(ctx, code, view)
	if err != nil {
		return Entry{}, false, fmt.Errorf("refreshing %s %s: %w", code, view, err)
	}

	entry := Entry{Code: code, View: view, Data: data, UpdatedAt: b.Now()}
	applied = b.seq.Commit(t, func() {
		b.mu.Lock()
		b.entries[t.Key] = entry
		b.mu.Unlock()
		// Publishing under the commit keeps per-view events in commit order.
		b.publish(Event{Type: EventUpdate, Entries: []Entry{entry}})
	})
	if applied {
		return entry, true, nil
	}
	b.logger.Debug("discarded stale view", "code", code, "view", view, "seq", t.Seq)
	if stored, ok := b.Get(code, view); ok {
		return stored, false, nil
	}
	return entry, false, nil
}

// RefreshCode refreshes every view of code concurrently and returns the
// resulting entries in Views order.
func (b *Board) RefreshCode(ctx context.Context, code string) ([]Entry, error) {
	out := make([]Entry, len(Views))
	var g errgroup.Group
	for i, view := range Views {
		g.Go(func() error {
			e, _, err := b.Refresh(ctx, code, view)
			out[i] = e
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the stored view, if any.
func (b *Board) Get(code, view string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[entryKey(code, view)]
	return e, ok
}

// Snapshot returns every stored entry ordered by code, then view.
func (b *Board) Snapshot() []Entry {
	b.mu.RLock()
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	b.mu.RUnlock()

	rank := make(map[string]int, len(Views))
	for i, v := range Views {
		rank[v] = i
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return rank[out[i].View] < rank[out[j].View]
	})
	return out
}

// Forget drops every stored view of code.
func (b *Board) Forget(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, view := range Views {
		delete(b.entries, entryKey(code, view))
	}
}

// Stale returns how many refresh results were discarded as outdated.
func (b *Board) Stale() uint64 { return b.seq.Stale() }

func (b *Board) publish(evt Event) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Slow subscriber, drop event.
		}
	}
}

// Subscribe creates a subscription channel for board events.
func (b *Board) Subscribe(bufSize int) (id int, ch <-chan Event) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	id = b.nextSubID
	b.nextSubID++
	c := make(chan Event, bufSize)
	b.subs[id] = c
	return id, c
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Board) Unsubscribe(id int) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Board) Subscribers() int {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	return len(b.subs)
}
