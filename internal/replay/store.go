// Package replay captures upstream market records to Parquet files and
// serves them back as a chart data source, so charts can be rendered and
// tested without a live backend.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"stockdash/internal/chart"
	"stockdash/internal/domain"
)

// Record kinds, also the top-level directory names.
const (
	KindQuotes = "quotes"
	KindTrends = "trends"
	KindKlines = "klines"
)

// Store keeps records in Parquet files laid out as
//
//	<Dir>/<kind>/<CODE>/<YYYY-MM-DD>.parquet
//
// where the date is the record's local date in the market zone.
type Store struct {
	Dir string
	loc *time.Location

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-file write locks
}

// NewStore creates a Store rooted at dir. Naive record times are read in loc.
func NewStore(dir string, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{Dir: dir, loc: loc}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// QuoteRecord is the Parquet schema for quote snapshots.
type QuoteRecord struct {
	Code          string  `parquet:"code"`
	Timestamp     int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Price         float64 `parquet:"price"`
	ChangePercent float64 `parquet:"change_percent"`
	Open          float64 `parquet:"open"`
	PrevClose     float64 `parquet:"prev_close"`
	Volume        float64 `parquet:"volume"`
	Amount        float64 `parquet:"amount"`
}

// TrendRecord is the Parquet schema for minute trend points.
type TrendRecord struct {
	Code      string  `parquet:"code"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"`
	Price     float64 `parquet:"price"`
	AvgPrice  float64 `parquet:"avg_price"`
	Volume    float64 `parquet:"volume"`
	Amount    float64 `parquet:"amount"`
	Pct       float64 `parquet:"pct"`
}

// KlineRecord is the Parquet schema for candlestick bars.
type KlineRecord struct {
	Code      string  `parquet:"code"`
	Period    int32   `parquet:"period"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"`
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
	Amount    float64 `parquet:"amount"`
	Pct       float64 `parquet:"pct"`
	Change    float64 `parquet:"change"`
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// WriteQuotes merges quotes into the store. Records whose time cannot be
// parsed are skipped; a record at an existing timestamp replaces it.
func (s *Store) WriteQuotes(_ context.Context, code string, quotes []domain.Quote) error {
	records := make([]QuoteRecord, 0, len(quotes))
	for _, q := range quotes {
		ts, ok := chart.ParseTime(q.SnapshotTime, s.loc)
		if !ok {
			continue
		}
		records = append(records, QuoteRecord{
			Code:          code,
			Timestamp:     ts,
			Price:         q.LatestPrice.Float(),
			ChangePercent: q.ChangePercent.Float(),
			Open:          q.OpenPrice.Float(),
			PrevClose:     q.PreviousClosePrice.Float(),
			Volume:        q.Volume.Float(),
			Amount:        q.VolumeAmount.Float(),
		})
	}
	return writeByDate(s, KindQuotes, code, records, quoteTime, timeKey(quoteTime))
}

// WriteTrends merges minute trend points into the store.
func (s *Store) WriteTrends(_ context.Context, code string, trends []domain.Trend) error {
	records := make([]TrendRecord, 0, len(trends))
	for _, t := range trends {
		ts, ok := chart.ParseTime(t.Datetime, s.loc)
		if !ok {
			continue
		}
		records = append(records, TrendRecord{
			Code:      code,
			Timestamp: ts,
			Price:     t.Price.Float(),
			AvgPrice:  t.AvgPrice.Float(),
			Volume:    t.Volume.Float(),
			Amount:    t.Amount.Float(),
			Pct:       t.Pct.Float(),
		})
	}
	return writeByDate(s, KindTrends, code, records, trendTime, timeKey(trendTime))
}

// WriteKlines merges candlestick bars into the store. Bars of different
// periods at the same time are kept apart.
func (s *Store) WriteKlines(_ context.Context, code string, klines []domain.Kline) error {
	records := make([]KlineRecord, 0, len(klines))
	for _, k := range klines {
		ts, ok := chart.ParseTime(k.Date, s.loc)
		if !ok {
			continue
		}
		records = append(records, KlineRecord{
			Code:      code,
			Period:    int32(k.Period),
			Timestamp: ts,
			Open:      k.Open.Float(),
			High:      k.High.Float(),
			Low:       k.Low.Float(),
			Close:     k.Close.Float(),
			Volume:    k.Volume.Float(),
			Amount:    k.Amount.Float(),
			Pct:       k.Pct.Float(),
			Change:    k.Change.Float(),
		})
	}
	return writeByDate(s, KindKlines, code, records, klineTime, func(r KlineRecord) string {
		return strconv.Itoa(int(r.Period)) + "/" + strconv.FormatInt(r.Timestamp, 10)
	})
}

func quoteTime(r QuoteRecord) int64 { return r.Timestamp }
func trendTime(r TrendRecord) int64 { return r.Timestamp }
func klineTime(r KlineRecord) int64 { return r.Timestamp }

func timeKey[T any](tsOf func(T) int64) func(T) string {
	return func(r T) string { return strconv.FormatInt(tsOf(r), 10) }
}

// writeByDate groups records by local date and merges each group into its
// file, newer records replacing older ones at the same key.
func writeByDate[T any](s *Store, kind, code string, records []T, tsOf func(T) int64, keyOf func(T) string) error {
	if len(records) == 0 {
		return nil
	}
	groups := make(map[string][]T)
	for _, r := range records {
		date := time.UnixMilli(tsOf(r)).In(s.loc).Format(time.DateOnly)
		groups[date] = append(groups[date], r)
	}
	for date, group := range groups {
		if err := mergeFile(s, s.path(kind, code, date), group, keyOf, tsOf); err != nil {
			return fmt.Errorf("writing %s %s/%s: %w", kind, code, date, err)
		}
	}
	return nil
}

// mergeFile merges records into the file at path. Writers of the same file
// are serialized so no merge is lost.
func mergeFile[T any](s *Store, path string, records []T, keyOf func(T) string, tsOf func(T) int64) error {
	unlock := s.lockFile(path)
	defer unlock()

	existing, err := readParquetFile[T](path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return writeParquetFile(path, mergeRecords(existing, records, keyOf, tsOf))
}

func (s *Store) lockFile(path string) (unlock func()) {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// mergeRecords deduplicates by key, preferring incoming records over
// existing ones. Results are sorted by timestamp.
func mergeRecords[T any](existing, incoming []T, keyOf func(T) string, tsOf func(T) int64) []T {
	seen := make(map[string]T, len(existing)+len(incoming))
	for _, r := range existing {
		seen[keyOf(r)] = r
	}
	for _, r := range incoming {
		seen[keyOf(r)] = r
	}

	merged := make([]T, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		ti, tj := tsOf(merged[i]), tsOf(merged[j])
		if ti != tj {
			return ti < tj
		}
		return keyOf(merged[i]) < keyOf(merged[j])
	})
	return merged
}

// ---------------------------------------------------------------------------
// Reads (dashboard.Source)
// ---------------------------------------------------------------------------

// Quotes returns stored snapshots of code within [start, end].
func (s *Store) Quotes(_ context.Context, code string, start, end time.Time) ([]domain.Quote, error) {
	records, err := readRange(s, KindQuotes, code, start, end, quoteTime)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quote, len(records))
	for i, r := range records {
		out[i] = domain.Quote{
			Code:               r.Code,
			LatestPrice:        domain.Num(r.Price),
			ChangePercent:      domain.Num(r.ChangePercent),
			OpenPrice:          domain.Num(r.Open),
			PreviousClosePrice: domain.Num(r.PrevClose),
			Volume:             domain.Num(r.Volume),
			VolumeAmount:       domain.Num(r.Amount),
			SnapshotTime:       s.format(r.Timestamp, time.DateTime),
		}
	}
	return out, nil
}

// Trends returns stored minute trend points of code within [start, end].
func (s *Store) Trends(_ context.Context, code string, start, end time.Time) ([]domain.Trend, error) {
	records, err := readRange(s, KindTrends, code, start, end, trendTime)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Trend, len(records))
	for i, r := range records {
		out[i] = domain.Trend{
			Code:     r.Code,
			Datetime: s.format(r.Timestamp, time.DateTime),
			Price:    domain.Num(r.Price),
			AvgPrice: domain.Num(r.AvgPrice),
			Volume:   domain.Num(r.Volume),
			Amount:   domain.Num(r.Amount),
			Pct:      domain.Num(r.Pct),
		}
	}
	return out, nil
}

// Klines returns stored bars of code for period within [start, end].
func (s *Store) Klines(_ context.Context, code string, period int, start, end time.Time) ([]domain.Kline, error) {
	records, err := readRange(s, KindKlines, code, start, end, klineTime)
	if err != nil {
		return nil, err
	}
	layout := time.DateTime
	switch period {
	case domain.PeriodDay, domain.PeriodWeek, domain.PeriodMonth:
		layout = time.DateOnly
	}
	var out []domain.Kline
	for _, r := range records {
		if int(r.Period) != period {
			continue
		}
		out = append(out, domain.Kline{
			Code:   r.Code,
			Period: period,
			Date:   s.format(r.Timestamp, layout),
			Open:   domain.Num(r.Open),
			High:   domain.Num(r.High),
			Low:    domain.Num(r.Low),
			Close:  domain.Num(r.Close),
			Volume: domain.Num(r.Volume),
			Amount: domain.Num(r.Amount),
			Pct:    domain.Num(r.Pct),
			Change: domain.Num(r.Change),
		})
	}
	return out, nil
}

func (s *Store) format(ms int64, layout string) string {
	return time.UnixMilli(ms).In(s.loc).Format(layout)
}

// readRange reads every daily file of code between the local dates of start
// and end and keeps the records within [start, end].
func readRange[T any](s *Store, kind, code string, start, end time.Time, tsOf func(T) int64) ([]T, error) {
	from, to := start.UnixMilli(), end.UnixMilli()
	day := dateOf(start, s.loc)
	last := dateOf(end, s.loc)

	var out []T
	for ; !day.After(last); day = day.AddDate(0, 0, 1) {
		path := s.path(kind, code, day.Format(time.DateOnly))
		records, err := readParquetFile[T](path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for _, r := range records {
			if ts := tsOf(r); ts >= from && ts <= to {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

// Codes lists the codes with stored records of kind.
func (s *Store) Codes(kind string) ([]string, error) {
	return listNames(filepath.Join(s.Dir, kind), true, "")
}

// Dates lists the dates with stored records of kind for code.
func (s *Store) Dates(kind, code string) ([]string, error) {
	return listNames(filepath.Join(s.Dir, kind, strings.ToUpper(code)), false, ".parquet")
}

func listNames(dir string, dirs bool, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() != dirs {
			continue
		}
		name := e.Name()
		if suffix != "" {
			if !strings.HasSuffix(name, suffix) {
				continue
			}
			name = strings.TrimSuffix(name, suffix)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ---------------------------------------------------------------------------
// Path and Parquet file helpers
// ---------------------------------------------------------------------------

// path returns the file of one code and local date.
// Layout: <Dir>/<kind>/<CODE>/<YYYY-MM-DD>.parquet
func (s *Store) path(kind, code, date string) string {
	return filepath.Join(s.Dir, kind, strings.ToUpper(code), date+".parquet")
}

// writeParquetFile writes records to a temp file next to path and renames it
// into place, so readers see either the old or the new file.
func writeParquetFile[T any](path string, records []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := parquet.Write(f, records); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// readParquetFile returns the rows of path, or nil when it does not exist.
func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
