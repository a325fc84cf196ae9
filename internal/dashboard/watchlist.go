package dashboard

import (
	"sort"
	"strings"

	"stockdash/internal/domain"
)

// WatchRow is one watch-list entry with display labels.
type WatchRow struct {
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Market        int              `json:"market"`
	Price         float64          `json:"price"`
	Pct           float64          `json:"pct"`
	Amount        float64          `json:"amount"`
	Volume        float64          `json:"volume"`
	Direction     domain.Direction `json:"direction"`
	PriceLabel    string           `json:"priceLabel"`
	PctLabel      string           `json:"pctLabel"`
	AmountLabel   string           `json:"amountLabel"`
	VolumeLabel   string           `json:"volumeLabel"`
	TurnoverLabel string           `json:"turnoverLabel"`
}

// MarketGroup holds the rows of one exchange.
type MarketGroup struct {
	Name  string      `json:"name"`
	Count int         `json:"count"`
	Rows  []*WatchRow `json:"rows"`
}

// Sort modes for the watch list.
const (
	SortCode      = 0 // by code (default)
	SortGain      = 1 // by pct, descending
	SortLoss      = 2 // by pct, ascending
	SortAmount    = 3 // by turnover amount
	SortVolume    = 4 // by share volume
	SortModeCount = 5
)

// SortModeLabel returns a short label for the given sort mode.
func SortModeLabel(mode int) string {
	switch mode {
	case SortCode:
		return "CODE"
	case SortGain:
		return "GAIN"
	case SortLoss:
		return "LOSS"
	case SortAmount:
		return "AMT"
	case SortVolume:
		return "VOL"
	default:
		return "?"
	}
}

// ParseSortMode maps a query value such as "gain" to a sort mode.
func ParseSortMode(s string) int {
	for m := 0; m < SortModeCount; m++ {
		if strings.EqualFold(SortModeLabel(m), s) {
			return m
		}
	}
	switch strings.ToLower(s) {
	case "pct", "gainers":
		return SortGain
	case "losers":
		return SortLoss
	case "amount":
		return SortAmount
	case "volume":
		return SortVolume
	}
	return SortCode
}

// NewWatchRow builds the display row for a stock.
func NewWatchRow(s domain.Stock) *WatchRow {
	pct := s.Pct.Float()
	dir := domain.DirectionFlat
	switch {
	case pct > 0:
		dir = domain.DirectionUp
	case pct < 0:
		dir = domain.DirectionDown
	}
	return &WatchRow{
		Code:          s.Code,
		Name:          s.Name,
		Market:        s.Market,
		Price:         s.Price.Float(),
		Pct:           pct,
		Amount:        s.Amount.Float(),
		Volume:        s.Volume.Float(),
		Direction:     dir,
		PriceLabel:    FormatPrice(s.Price.Float()),
		PctLabel:      SignPrefix(pct) + FormatChangePercent(pct),
		AmountLabel:   FormatAmount(s.Amount.Float()),
		VolumeLabel:   FormatVolume(s.Volume.Float()),
		TurnoverLabel: FormatChangePercent(s.Turnover.Float()),
	}
}

// BuildWatchList converts stocks to rows sorted by mode.
func BuildWatchList(stocks []domain.Stock, mode int) []*WatchRow {
	rows := make([]*WatchRow, len(stocks))
	for i, s := range stocks {
		rows[i] = NewWatchRow(s)
	}
	SortRows(rows, mode)
	return rows
}

// SortRows sorts rows in place. Ties fall back to code order.
func SortRows(rows []*WatchRow, mode int) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i], rows[j]
		switch mode {
		case SortGain:
			if ri.Pct != rj.Pct {
				return ri.Pct > rj.Pct
			}
		case SortLoss:
			if ri.Pct != rj.Pct {
				return ri.Pct < rj.Pct
			}
		case SortAmount:
			if ri.Amount != rj.Amount {
				return ri.Amount > rj.Amount
			}
		case SortVolume:
			if ri.Volume != rj.Volume {
				return ri.Volume > rj.Volume
			}
		}
		return ri.Code < rj.Code
	})
}

// MarketName returns the exchange label for a backend market code.
func MarketName(market int) string {
	if market == domain.MarketSH {
		return "SH"
	}
	return "SZ"
}

// GroupByMarket splits rows into SH and SZ groups, keeping their order and
// omitting empty groups.
func GroupByMarket(rows []*WatchRow) []MarketGroup {
	byName := map[string][]*WatchRow{}
	for _, r := range rows {
		name := MarketName(r.Market)
		byName[name] = append(byName[name], r)
	}
	var groups []MarketGroup
	for _, name := range []string{"SH", "SZ"} {
		if len(byName[name]) > 0 {
			groups = append(groups, MarketGroup{Name: name, Count: len(byName[name]), Rows: byName[name]})
		}
	}
	return groups
}

// TopN returns the first n rows after sorting a copy by mode.
func TopN(rows []*WatchRow, mode, n int) []*WatchRow {
	tmp := make([]*WatchRow, len(rows))
	copy(tmp, rows)
	SortRows(tmp, mode)
	if n >= 0 && n < len(tmp) {
		tmp = tmp[:n]
	}
	return tmp
}
