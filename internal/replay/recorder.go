package replay

import (
	"context"
	"log/slog"
	"time"

	"stockdash/internal/dashboard"
	"stockdash/internal/domain"
)

// Recorder wraps a Source and tees every successful fetch into a Store.
// Capture failures are logged and never fail the fetch.
type Recorder struct {
	src    dashboard.Source
	store  *Store
	logger *slog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(src dashboard.Source, store *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{src: src, store: store, logger: logger}
}

func (r *Recorder) Quotes(ctx context.Context, code string, start, end time.Time) ([]domain.Quote, error) {
	quotes, err := r.src.Quotes(ctx, code, start, end)
	if err != nil {
		return nil, err
	}
	r.capture(KindQuotes, code, len(quotes), r.store.WriteQuotes(ctx, code, quotes))
	return quotes, nil
}

func (r *Recorder) Trends(ctx context.Context, code string, start, end time.Time) ([]domain.Trend, error) {
	trends, err := r.src.Trends(ctx, code, start, end)
	if err != nil {
		return nil, err
	}
	r.capture(KindTrends, code, len(trends), r.store.WriteTrends(ctx, code, trends))
	return trends, nil
}

func (r *Recorder) Klines(ctx context.Context, code string, period int, start, end time.Time) ([]domain.Kline, error) {
	klines, err := r.src.Klines(ctx, code, period, start, end)
	if err != nil {
		return nil, err
	}
	r.capture(KindKlines, code, len(klines), r.store.WriteKlines(ctx, code, klines))
	return klines, nil
}

func (r *Recorder) capture(kind, code string, n int, err error) {
	if err != nil {
		r.logger.Warn("capture failed", "kind", kind, "code", code, "error", err)
		return
	}
	if n > 0 {
		r.logger.Debug("captured", "kind", kind, "code", code, "records", n)
	}
}
