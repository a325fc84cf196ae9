package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stockdash/internal/backend"
	"stockdash/internal/chartapi"
	"stockdash/internal/config"
	"stockdash/internal/dashboard"
	"stockdash/internal/live"
	"stockdash/internal/replay"
	"stockdash/internal/util"
)

const defaultConfigPath = "config/stockdash.yaml"

// nopSyncer stands in for the backend when serving replayed data.
type nopSyncer struct{}

func (nopSyncer) SyncCode(context.Context, string) error { return nil }

func main() {
	cfgPath := flag.String("config", "", "path to config file (default $STOCKDASH_CONFIG or "+defaultConfigPath+")")
	flag.Parse()

	// Load config. A missing default file is fine; env and defaults suffice.
	path := *cfgPath
	if path == "" {
		path = os.Getenv("STOCKDASH_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	loc := marketLocation(cfg.Chart.Timezone, logger)

	// Build the data source.
	var (
		client *backend.Client
		src    dashboard.Source
		be     chartapi.Backend
		syncer live.Syncer = nopSyncer{}
	)
	if cfg.Replay.Mode != config.ReplayServe {
		client = backend.New(backend.Options{
			BaseURL:        cfg.Backend.BaseURL,
			Timeout:        cfg.Backend.Timeout,
			MaxRetries:     cfg.Backend.MaxRetries,
			RetryDelay:     cfg.Backend.RetryDelay,
			SyncRatePerMin: cfg.Backend.SyncRatePerMin,
			SyncBurst:      cfg.Backend.SyncBurst,
			Location:       loc,
			Logger:         logger.With("component", "backend"),
		})
		src, be, syncer = client, client, client
	}
	switch cfg.Replay.Mode {
	case config.ReplayRecord:
		src = replay.NewRecorder(client, replay.NewStore(cfg.Replay.Dir, loc), logger.With("component", "recorder"))
	case config.ReplayServe:
		src = replay.NewStore(cfg.Replay.Dir, loc)
	}
	logger.Info("data source ready", "mode", cfg.Replay.Mode, "backend", cfg.Backend.BaseURL, "replay_dir", cfg.Replay.Dir)

	loader := dashboard.NewLoader(src, dashboard.ViewOptions{
		Location:  loc,
		DayGap:    cfg.Chart.DayGap,
		MAWindows: cfg.Chart.MAWindows,
	}, cfg.Chart.FiveDayDays, cfg.Chart.DailyDays, logger.With("component", "loader"))
	board := live.NewBoard(loader, logger.With("component", "board"))

	var poller *live.Poller
	if cfg.Poll.Enabled {
		poller, err = live.NewPoller(syncer, board, live.PollerOptions{
			Schedule:        cfg.Poll.Schedule,
			MarketHoursOnly: cfg.Poll.MarketHoursOnly,
			Codes:           cfg.Poll.Codes,
			Calendar:        util.NewTradingCalendar(loc),
		}, logger.With("component", "poller"))
		if err != nil {
			log.Fatalf("creating poller: %v", err)
		}
	}

	srv := chartapi.NewServer(chartapi.Options{
		Backend:     be,
		Board:       board,
		Poller:      poller,
		Mode:        cfg.Replay.Mode,
		SignalLimit: cfg.Poll.SignalLimit,
		Logger:      logger.With("component", "http"),
	})
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	httpServer := newHTTPServer(gctx, cfg.Server.Addr(), srv.Handler())
	g.Go(func() error {
		logger.Info("chart server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if poller != nil {
		g.Go(func() error {
			return poller.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down chart server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// marketLocation loads the configured market zone and falls back to the
// default zone when it cannot be loaded. It never returns nil.
func marketLocation(name string, logger *slog.Logger) *time.Location {
	loc, err := util.LoadMarketLocation(name)
	if err == nil {
		return loc
	}
	loc, _ = util.LoadMarketLocation("")
	logger.Warn("loading market zone, using default", "zone", name, "default", loc.String(), "error", err)
	return loc
}

// newHTTPServer returns a server whose request contexts derive from base, so
// cancelling base ends long-lived requests such as event streams and lets
// Shutdown finish.
func newHTTPServer(base context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
}
