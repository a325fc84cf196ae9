package main

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/dashboard"
	"stockdash/pkg/stockdash"
)

func sizedModel(t *testing.T) watchModel {
	t.Helper()
	m := newWatchModel(stockdash.NewClient("http://127.0.0.1:1"), "gain")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return next.(watchModel)
}

func sampleList() *stockdash.StockList {
	return &stockdash.StockList{Sort: "GAIN", Count: 2, Rows: []stockdash.StockRow{
		{Code: "600519", Name: "Moutai", Pct: 1.2, PriceLabel: "1688.50", PctLabel: "+1.20%"},
		{Code: "000001", Name: "PAB", Pct: -0.5, PriceLabel: "11.20", PctLabel: "-0.50%"},
	}}
}

func TestWatchModelSortCycles(t *testing.T) {
	m := sizedModel(t)
	if m.sortMode != dashboard.SortGain {
		t.Fatalf("sortMode = %d, want %d", m.sortMode, dashboard.SortGain)
	}
	for i := 0; i < dashboard.SortModeCount; i++ {
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
		if cmd == nil {
			t.Fatal("sort key should trigger a fetch")
		}
		m = next.(watchModel)
	}
	if m.sortMode != dashboard.SortGain {
		t.Errorf("sortMode after full cycle = %d, want %d", m.sortMode, dashboard.SortGain)
	}
}

func TestWatchModelSelection(t *testing.T) {
	m := sizedModel(t)
	next, _ := m.Update(stocksMsg{seq: m.seq, list: sampleList()})
	m = next.(watchModel)

	down := tea.KeyMsg{Type: tea.KeyDown}
	for i := 0; i < 3; i++ {
		next, _ = m.Update(down)
		m = next.(watchModel)
	}
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(watchModel)
	if m.selected != 0 {
		t.Errorf("selected = %d, want 0", m.selected)
	}

	// A shorter list clamps the selection.
	m.selected = 1
	short := &stockdash.StockList{Count: 1, Rows: sampleList().Rows[:1]}
	next, _ = m.Update(stocksMsg{seq: m.seq, list: short})
	m = next.(watchModel)
	if m.selected != 0 {
		t.Errorf("selected after shrink = %d, want 0", m.selected)
	}
}

func TestWatchModelRender(t *testing.T) {
	m := sizedModel(t)
	if got := newWatchModel(nil, "").View(); got != "Loading..." {
		t.Errorf("View before size = %q, want Loading...", got)
	}

	next, _ := m.Update(stocksMsg{seq: m.seq, list: sampleList()})
	m = next.(watchModel)
	content := m.renderContent()
	for _, want := range []string{"600519", "000001", "+1.20%", "-0.50%"} {
		if !strings.Contains(content, want) {
			t.Errorf("content missing %q", want)
		}
	}
	if !strings.Contains(m.View(), "sort: GAIN") {
		t.Error("header should show the sort mode")
	}

	// A failed refresh keeps the last rows and shows the error.
	next, _ = m.Update(stocksMsg{seq: m.seq, err: errors.New("connection refused")})
	m = next.(watchModel)
	content = m.renderContent()
	if !strings.Contains(content, "connection refused") || !strings.Contains(content, "600519") {
		t.Errorf("content after error = %q", content)
	}
}

func TestWatchModelDropsSupersededFetch(t *testing.T) {
	m := newWatchModel(stockdash.NewClient("http://127.0.0.1:1"), "")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m = next.(watchModel)
	first := m.seq

	// Changing the sort starts a newer fetch while the first is in flight.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m = next.(watchModel)
	if m.seq == first {
		t.Fatal("sort key should start a new fetch")
	}

	byCode := &stockdash.StockList{Sort: "CODE", Count: 1, Rows: []stockdash.StockRow{{Code: "000001"}}}
	next, _ = m.Update(stocksMsg{seq: first, list: byCode})
	m = next.(watchModel)
	if m.list != nil {
		t.Errorf("list = %+v, want the older response ignored", m.list)
	}

	next, _ = m.Update(stocksMsg{seq: m.seq, list: sampleList()})
	m = next.(watchModel)
	if m.list == nil || m.list.Sort != "GAIN" {
		t.Errorf("list = %+v, want the GAIN response", m.list)
	}
	if !strings.Contains(m.View(), "sort: GAIN") {
		t.Error("header should match the rows' sort")
	}
}

func TestWatchModelQuit(t *testing.T) {
	m := sizedModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("贵州茅台股份有限公司", 4); got != "贵州茅台" {
		t.Errorf("truncate = %q, want 贵州茅台", got)
	}
	if got := truncate("PAB", 10); got != "PAB" {
		t.Errorf("truncate = %q, want PAB", got)
	}
}
