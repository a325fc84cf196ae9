// Package chartapi serves shaped chart views, the formatted watch list and
// pass-through strategy and trade endpoints over HTTP.
package chartapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"stockdash/internal/backend"
	"stockdash/internal/dashboard"
	"stockdash/internal/domain"
	"stockdash/internal/live"
)

// Backend is the part of the backend client the server calls.
// *backend.Client implements it.
type Backend interface {
	Health(ctx context.Context) (*domain.HealthStatus, error)
	ListStocks(ctx context.Context, req backend.StockListRequest) ([]domain.Stock, error)
	SyncCode(ctx context.Context, code string) error
	LatestSignals(ctx context.Context, req backend.LatestSignalsRequest) ([]domain.StrategySignal, error)
	EvaluateCloseAuction(ctx context.Context, req backend.EvaluateRequest) (*domain.StrategyEvaluation, error)
	ListTrades(ctx context.Context) ([]domain.Trade, error)
	CreateTrade(ctx context.Context, t domain.Trade) (*domain.Trade, error)
	UpdateTrade(ctx context.Context, id int64, t domain.Trade) (*domain.Trade, error)
	DeleteTrade(ctx context.Context, id int64) error
	TradeStats(ctx context.Context, req backend.TradeStatsRequest) (*domain.TradeStats, error)
}

// Options configures a Server.
type Options struct {
	Backend     Backend      // nil when serving replayed data
	Board       *live.Board  // required
	Poller      *live.Poller // optional
	Mode        string
	SignalLimit int
	Logger      *slog.Logger
}

// Server is the chart HTTP API.
type Server struct {
	backend     Backend
	board       *live.Board
	poller      *live.Poller
	mode        string
	signalLimit int
	validate    *validator.Validate
	log         *slog.Logger

	// Now stamps health responses; replaced in tests.
	Now func() time.Time
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SignalLimit <= 0 {
		opts.SignalLimit = 20
	}
	if opts.Mode == "" {
		opts.Mode = "live"
	}
	return &Server{
		backend:     opts.Backend,
		board:       opts.Board,
		poller:      opts.Poller,
		mode:        opts.Mode,
		signalLimit: opts.SignalLimit,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		log:         opts.Logger,
		Now:         time.Now,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/stocks", s.handleStocks)
	mux.HandleFunc("GET /api/charts/{code}", s.handleOverview)
	mux.HandleFunc("GET /api/charts/{code}/{view}", s.handleView)
	mux.HandleFunc("POST /api/charts/{code}/sync", s.handleSync)
	mux.HandleFunc("GET /api/signals/latest", s.handleLatestSignals)
	mux.HandleFunc("POST /api/signals/{code}/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /api/trades", s.handleListTrades)
	mux.HandleFunc("POST /api/trades", s.handleCreateTrade)
	mux.HandleFunc("GET /api/trades/stats", s.handleTradeStats)
	mux.HandleFunc("PUT /api/trades/{id}", s.handleUpdateTrade)
	mux.HandleFunc("DELETE /api/trades/{id}", s.handleDeleteTrade)
	mux.HandleFunc("GET /api/events", s.handleEvents)
}

// Handler returns an http.Handler with all routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:       "ok",
		Mode:         s.mode,
		Views:        len(s.board.Snapshot()),
		Subscribers:  s.board.Subscribers(),
		StaleDropped: s.board.Stale(),
		Timestamp:    s.Now(),
	}
	if s.poller != nil {
		next := s.poller.NextRun()
		resp.NextPoll = &next
		resp.PollIn = s.poller.Countdown().Round(time.Second).String()
	}
	if s.backend != nil {
		h, err := s.backend.Health(r.Context())
		if err != nil {
			s.log.Warn("backend health check failed", "error", err)
			resp.Status = "degraded"
			resp.BackendError = err.Error()
		} else {
			resp.Backend = h
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	q := r.URL.Query()
	mode := dashboard.ParseSortMode(q.Get("sort"))

	stocks, err := s.backend.ListStocks(r.Context(), backend.StockListRequest{})
	if err != nil {
		s.backendError(w, "listing stocks", err)
		return
	}
	rows := dashboard.BuildWatchList(stocks, mode)
	if n, err := optionalInt(q.Get("top")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid top parameter", "bad_request")
		return
	} else if n > 0 {
		rows = dashboard.TopN(rows, mode, n)
	}

	resp := StocksResponse{Sort: dashboard.SortModeLabel(mode), Count: len(rows), Rows: rows}
	if q.Get("group") == "market" {
		resp.Groups = dashboard.GroupByMarket(rows)
	}
	writeJSON(w, resp)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	code, ok := s.pathCode(w, r)
	if !ok {
		return
	}
	entries, err := s.board.RefreshCode(r.Context(), code)
	if err != nil {
		s.backendError(w, "loading charts of "+code, err)
		return
	}

	resp := OverviewResponse{Code: code}
	for _, e := range entries {
		switch e.View {
		case dashboard.ViewIntraday:
			resp.Intraday = e.Data
		case dashboard.ViewFiveDay:
			resp.FiveDay = e.Data
		case dashboard.ViewDaily:
			resp.Daily = e.Data
		}
		if e.UpdatedAt.After(resp.UpdatedAt) {
			resp.UpdatedAt = e.UpdatedAt
		}
	}
	s.watch(code)
	writeJSON(w, resp)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	code, ok := s.pathCode(w, r)
	if !ok {
		return
	}
	view := r.PathValue("view")
	switch view {
	case dashboard.ViewIntraday, dashboard.ViewFiveDay, dashboard.ViewDaily:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown view %q", view), "bad_request")
		return
	}

	e, _, err := s.board.Refresh(r.Context(), code, view)
	if err != nil {
		s.backendError(w, "loading "+view+" of "+code, err)
		return
	}
	s.watch(code)
	writeJSON(w, e)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	code, ok := s.pathCode(w, r)
	if !ok {
		return
	}
	resp := SyncResponse{Code: code}
	if s.backend != nil {
		if err := s.backend.SyncCode(r.Context(), code); err != nil {
			s.log.Warn("sync failed", "code", code, "error", err)
			resp.SyncError = err.Error()
		} else {
			resp.Synced = true
		}
	}
	if _, err := s.board.RefreshCode(r.Context(), code); err != nil {
		s.backendError(w, "reloading charts of "+code, err)
		return
	}
	for _, view := range live.Views {
		if _, ok := s.board.Get(code, view); ok {
			resp.Views++
		}
	}
	s.watch(code)
	writeJSON(w, resp)
}

func (s *Server) handleLatestSignals(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	q := r.URL.Query()
	limit, err := optionalInt(q.Get("limit"))
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit parameter", "bad_request")
		return
	}
	if limit == 0 {
		limit = s.signalLimit
	}
	symbol := q.Get("symbol")
	if symbol != "" && !s.validCode(symbol) {
		writeError(w, http.StatusBadRequest, "invalid symbol", "bad_request")
		return
	}

	signals, err := s.backend.LatestSignals(r.Context(), backend.LatestSignalsRequest{
		Limit:        limit,
		Symbol:       symbol,
		StrategyCode: q.Get("strategy"),
		AllowOnly:    q.Get("allowOnly") == "true",
	})
	if err != nil {
		s.backendError(w, "loading signals", err)
		return
	}
	if signals == nil {
		signals = []domain.StrategySignal{}
	}
	writeJSON(w, SignalsResponse{Symbol: symbol, Signals: signals})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	code, ok := s.pathCode(w, r)
	if !ok {
		return
	}
	market := domain.MarketOf(code)
	eval, err := s.backend.EvaluateCloseAuction(r.Context(), backend.EvaluateRequest{Symbol: code, Market: &market})
	if err != nil {
		s.backendError(w, "evaluating "+code, err)
		return
	}
	writeJSON(w, eval)
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	trades, err := s.backend.ListTrades(r.Context())
	if err != nil {
		s.backendError(w, "listing trades", err)
		return
	}
	if trades == nil {
		trades = []domain.Trade{}
	}
	writeJSON(w, TradesResponse{Count: len(trades), Trades: trades})
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	t, ok := decodeTrade(w, r)
	if !ok {
		return
	}
	created, err := s.backend.CreateTrade(r.Context(), t)
	if err != nil {
		s.backendError(w, "creating trade", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	encode(w, created)
}

func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, ok := decodeTrade(w, r)
	if !ok {
		return
	}
	updated, err := s.backend.UpdateTrade(r.Context(), id, t)
	if err != nil {
		s.backendError(w, "updating trade", err)
		return
	}
	writeJSON(w, updated)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.backend.DeleteTrade(r.Context(), id); err != nil {
		s.backendError(w, "deleting trade", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTradeStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireBackend(w) {
		return
	}
	q := r.URL.Query()
	stats, err := s.backend.TradeStats(r.Context(), backend.TradeStatsRequest{
		Symbol:    q.Get("symbol"),
		StartTime: q.Get("start"),
		EndTime:   q.Get("end"),
	})
	if err != nil {
		s.backendError(w, "loading trade stats", err)
		return
	}
	writeJSON(w, stats)
}

// handleEvents streams Board events as server-sent events: a snapshot of
// every stored view first, then each update.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "internal")
		return
	}

	// Subscribe before taking the snapshot so no update falls between them.
	subID, ch := s.board.Subscribe(64)
	defer s.board.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, live.Event{Type: live.EventSnapshot, Entries: s.board.Snapshot()}); err != nil {
		return
	}
	flusher.Flush()
	s.log.Info("event client subscribed", "subID", subID)

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("event client disconnected", "subID", subID)
			return
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, evt); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, evt live.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
	return err
}

func (s *Server) watch(code string) {
	if s.poller != nil {
		s.poller.Watch(code)
	}
}

func (s *Server) validCode(code string) bool {
	return s.validate.Var(code, "required,alphanum,max=10") == nil
}

func (s *Server) pathCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := r.PathValue("code")
	if !s.validCode(code) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid code %q", code), "bad_request")
		return "", false
	}
	return code, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid trade id", "bad_request")
		return 0, false
	}
	return id, true
}

func decodeTrade(w http.ResponseWriter, r *http.Request) (domain.Trade, bool) {
	var t domain.Trade
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade body: "+err.Error(), "bad_request")
		return t, false
	}
	return t, true
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func (s *Server) requireBackend(w http.ResponseWriter) bool {
	if s.backend == nil {
		writeError(w, http.StatusServiceUnavailable, "backend not configured in "+s.mode+" mode", "unavailable")
		return false
	}
	return true
}

// backendError logs err and maps it to a response: validation failures are
// the caller's fault (400), anything else is an upstream failure (502).
func (s *Server) backendError(w http.ResponseWriter, action string, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, err.Error(), "bad_request")
		return
	}
	if errors.Is(err, context.Canceled) {
		s.log.Debug(action+" cancelled", "error", err)
		return
	}
	s.log.Error(action, "error", err)

	code := "backend_unavailable"
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
		if code == "" {
			code = "backend_" + strconv.Itoa(apiErr.Status)
		}
	}
	writeError(w, http.StatusBadGateway, err.Error(), code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	encode(w, v)
}

func encode(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encode(w, ErrorResponse{Error: msg, Code: code})
}
