// Package app assembles the screening service from configuration: one
// downloader, store and refresher per source, the aggregator and the router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"screener/internal/platform/config"
	platformmetrics "screener/internal/platform/metrics"
	"screener/internal/screening/dataset"
	"screener/internal/screening/fetch"
	"screener/internal/screening/handler"
	"screener/internal/screening/metrics"
	"screener/internal/screening/refresher"
	"screener/internal/screening/service"
	"screener/internal/screening/source"
	httptransport "screener/internal/transport/http"
)

// App is a fully wired screening service.
type App struct {
	Handler    http.Handler
	Service    *service.Service
	Refreshers []*refresher.Refresher

	logger *slog.Logger
}

// New wires every configured source. A nil client uses one bounded by the
// configured fetch timeout.
func New(cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry, client *http.Client) (*App, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	screeningMetrics := metrics.New(reg)

	refreshers := make([]*refresher.Refresher, 0, len(cfg.Sources))
	sources := make([]service.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		downloader, err := fetch.NewDownloader(client, sc.Resolver(client), sc.Format())
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}
		store := dataset.NewStore()
		r, err := refresher.New(sc.Name, downloader, source.Builder{Name: sc.Name, Mapping: sc.Mapping()}, store,
			refresher.WithInterval(cfg.RefreshInterval),
			refresher.WithFetchTimeout(cfg.FetchTimeout),
			refresher.WithLogger(logger),
			refresher.WithMetrics(screeningMetrics),
		)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}
		refreshers = append(refreshers, r)
		sources = append(sources, service.Source{Name: sc.Name, Store: store, Refresher: r})
	}

	svc, err := service.New(sources,
		service.WithLogger(logger),
		service.WithMetrics(screeningMetrics),
		service.WithQueryTimeout(cfg.QueryTimeout),
	)
	if err != nil {
		return nil, err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         logger,
		Metrics:        platformmetrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.QueryTimeout + 5*time.Second,
	}, handler.New(svc, logger))

	return &App{
		Handler:    router,
		Service:    svc,
		Refreshers: refreshers,
		logger:     logger,
	}, nil
}

// Load performs the startup load of every source concurrently. Failures are
// logged by the refreshers; the number of sources that loaded is returned.
func (a *App) Load(ctx context.Context) int {
	// Goroutines never return an error; failures stay per source.
	var g errgroup.Group
	ok := make([]bool, len(a.Refreshers))
	for i, r := range a.Refreshers {
		g.Go(func() error {
			ok[i] = r.Load(ctx) == nil
			return nil
		})
	}
	_ = g.Wait()

	loaded := 0
	for _, v := range ok {
		if v {
			loaded++
		}
	}
	a.logger.InfoContext(ctx, "startup load finished", "loaded", loaded, "sources", len(a.Refreshers))
	return loaded
}

// Run refreshes every source on its interval until ctx is cancelled and
// returns once all refreshers have stopped.
func (a *App) Run(ctx context.Context) {
	var g errgroup.Group
	for _, r := range a.Refreshers {
		g.Go(func() error {
			r.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()
}
