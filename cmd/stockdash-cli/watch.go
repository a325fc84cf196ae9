package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stockdash/internal/dashboard"
	"stockdash/pkg/stockdash"
)

const watchRefresh = 5 * time.Second

// Styles. Gains are red and losses green, as on CN exchanges.
var (
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	codeStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	highlightBG    = lipgloss.Color("236")
)

func hlStyle(s lipgloss.Style, hl bool) lipgloss.Style {
	if hl {
		return s.Background(highlightBG)
	}
	return s
}

// Messages.
type tickMsg time.Time

// stocksMsg carries the fetch numbered seq. Only the latest fetch is shown.
type stocksMsg struct {
	seq  int
	list *stockdash.StockList
	err  error
}

type watchModel struct {
	client   *stockdash.Client
	sortMode int
	seq      int // number of the latest fetch
	list     *stockdash.StockList
	err      error
	selected int
	fetched  time.Time

	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

// newWatchModel returns a model whose first fetch, started by Init, is
// number 1.
func newWatchModel(c *stockdash.Client, sort string) watchModel {
	return watchModel{client: c, sortMode: dashboard.ParseSortMode(sort), seq: 1}
}

func tickCmd() tea.Cmd {
	return tea.Tick(watchRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// nextFetch makes a new fetch the latest and returns its command.
func (m *watchModel) nextFetch() tea.Cmd {
	m.seq++
	return m.fetchCmd(m.seq)
}

func (m watchModel) fetchCmd(seq int) tea.Cmd {
	c, sort := m.client, dashboard.SortModeLabel(m.sortMode)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), watchRefresh)
		defer cancel()
		list, err := c.Stocks(ctx, sort)
		return stocksMsg{seq: seq, list: list, err: err}
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(m.seq), tickCmd())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			m.sortMode = (m.sortMode + 1) % dashboard.SortModeCount
			m.selected = 0
			cmd := m.nextFetch()
			return m, cmd
		case "r":
			cmd := m.nextFetch()
			return m, cmd
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.refreshContent()
				m.ensureVisible()
			}
			return m, nil
		case "down", "j":
			if m.list != nil && m.selected < len(m.list.Rows)-1 {
				m.selected++
				m.refreshContent()
				m.ensureVisible()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 2 // header + footer
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshContent()
		return m, nil

	case tickMsg:
		cmd := m.nextFetch()
		return m, tea.Batch(cmd, tickCmd())

	case stocksMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.err = msg.err
		if msg.err == nil {
			m.list = msg.list
			m.fetched = time.Now()
			if m.selected >= len(m.list.Rows) {
				m.selected = max(len(m.list.Rows)-1, 0)
			}
		}
		m.refreshContent()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *watchModel) refreshContent() {
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
}

// ensureVisible scrolls so the selected row is on screen. Row i sits on
// content line i+1, below the column header.
func (m *watchModel) ensureVisible() {
	line := m.selected + 1
	if line < m.viewport.YOffset {
		m.viewport.SetYOffset(line)
	} else if line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

func (m watchModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	count := 0
	if m.list != nil {
		count = m.list.Count
	}
	updated := "never"
	if !m.fetched.IsZero() {
		updated = m.fetched.Format(time.TimeOnly)
	}
	headerText := fmt.Sprintf(" stockdash  %s stocks    updated: %s    sort: %s ",
		dashboard.FormatInt(int64(count)), updated, dashboard.SortModeLabel(m.sortMode))
	headerBar := headerStyle.Render(padOrTrunc(headerText, m.width))

	footerLeft := " q quit  s sort  r refresh  up/dn select  pgup/dn scroll"
	footerRight := fmt.Sprintf("%.0f%% ", m.viewport.ScrollPercent()*100)
	gap := max(m.width-len(footerLeft)-len(footerRight), 0)
	footerBar := footerStyle.Render(padOrTrunc(footerLeft+strings.Repeat(" ", gap)+footerRight, m.width))

	return headerBar + "\n" + m.viewport.View() + "\n" + footerBar
}

func (m watchModel) renderContent() string {
	var b strings.Builder
	b.WriteString(colHeaderStyle.Render(fmt.Sprintf("  %-3s %-8s %-10s %10s %8s %10s %10s",
		"#", "Code", "Name", "Price", "Chg%", "Amount", "Volume")))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(lossStyle.Render("  error: " + m.err.Error()))
		b.WriteString("\n")
	}
	if m.list == nil || len(m.list.Rows) == 0 {
		b.WriteString(dimStyle.Render("  (no stocks)"))
		b.WriteString("\n")
		return b.String()
	}

	for i, r := range m.list.Rows {
		hl := i == m.selected
		pctStyle := dimStyle
		switch {
		case r.Pct > 0:
			pctStyle = gainStyle
		case r.Pct < 0:
			pctStyle = lossStyle
		}
		b.WriteString(hlStyle(dimStyle, hl).Render(fmt.Sprintf("  %-3d ", i+1)))
		b.WriteString(hlStyle(codeStyle, hl).Render(fmt.Sprintf("%-8s ", r.Code)))
		b.WriteString(hlStyle(lipgloss.NewStyle(), hl).Render(fmt.Sprintf("%-10s ", truncate(r.Name, 10))))
		b.WriteString(hlStyle(pctStyle, hl).Render(fmt.Sprintf("%10s %8s ", r.PriceLabel, r.PctLabel)))
		b.WriteString(hlStyle(dimStyle, hl).Render(fmt.Sprintf("%10s %10s", r.AmountLabel, r.VolumeLabel)))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func padOrTrunc(s string, width int) string {
	n := len(s)
	if n >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-n)
}

func watch(c *stockdash.Client, sort string) error {
	p := tea.NewProgram(newWatchModel(c, sort), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
