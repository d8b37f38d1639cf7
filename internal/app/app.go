// Package app builds the long-lived services of a command from configuration
// and releases them when the command ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/diamond-entries/internal/cache"
	"github.com/JakeFAU/diamond-entries/internal/clock/system"
	"github.com/JakeFAU/diamond-entries/internal/config"
	"github.com/JakeFAU/diamond-entries/internal/dataset"
	"github.com/JakeFAU/diamond-entries/internal/entries"
	"github.com/JakeFAU/diamond-entries/internal/fetcher"
	collyfetcher "github.com/JakeFAU/diamond-entries/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/diamond-entries/internal/fetcher/headless"
	"github.com/JakeFAU/diamond-entries/internal/headless/detector"
	"github.com/JakeFAU/diamond-entries/internal/id/uuid"
	"github.com/JakeFAU/diamond-entries/internal/identity"
	"github.com/JakeFAU/diamond-entries/internal/metrics"
	"github.com/JakeFAU/diamond-entries/internal/notify"
	"github.com/JakeFAU/diamond-entries/internal/pipeline"
	"github.com/JakeFAU/diamond-entries/internal/policy/ratelimit"
	"github.com/JakeFAU/diamond-entries/internal/roster"
	"github.com/JakeFAU/diamond-entries/internal/source"
	"github.com/JakeFAU/diamond-entries/internal/source/aggregator"
	"github.com/JakeFAU/diamond-entries/internal/source/entrylist"
	"github.com/JakeFAU/diamond-entries/internal/source/organizer"
)

// App holds the services shared by the commands of one process.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	fetcher   fetcher.Fetcher
	sink      dataset.MultiSink
	publisher notify.Publisher
	metrics   *metrics.Server
	closers   []func() error
}

// New connects every configured output. It fails fast when an output cannot
// be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	metrics.Init()
	if addr := a.cfg.Metrics.ListenAddr; addr != "" {
		srv, err := metrics.Start(addr, a.logger.Named("metrics"))
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		a.metrics = srv
	}

	limiter := ratelimit.New(ratelimit.Config{RPS: a.cfg.Fetch.RPS, Burst: a.cfg.Fetch.Burst})
	plain := collyfetcher.New(collyfetcher.Config{
		UserAgent:     a.cfg.Fetch.UserAgent,
		RespectRobots: a.cfg.Fetch.RespectRobots,
		Timeout:       a.cfg.FetchTimeout(),
	}, limiter, a.logger.Named("fetch"))
	a.fetcher = plain
	if a.cfg.Fetch.Headless || a.cfg.Fetch.PromoteHeadless {
		hf := headlessfetcher.NewChromedp(headlessfetcher.Config{
			UserAgent:         a.cfg.Fetch.UserAgent,
			NavigationTimeout: time.Duration(a.cfg.Fetch.NavigationTimeoutSecs) * time.Second,
			WaitSelector:      a.cfg.Fetch.WaitSelector,
		}, limiter, a.logger.Named("headless"))
		a.closers = append(a.closers, hf.Close)
		if a.cfg.Fetch.Headless {
			a.fetcher = hf
		} else {
			a.fetcher = fetcher.Promoting{
				Primary:  plain,
				Headless: hf,
				Detect:   detector.NewHeuristic(a.cfg.Fetch.PromotionThreshold).ShouldPromote,
				Logger:   a.logger.Named("fetch"),
			}
		}
	}

	a.sink = dataset.MultiSink{dataset.FileSink{Path: a.cfg.Dataset.Path}}
	if gcsCfg := a.cfg.Dataset.GCS; gcsCfg.Bucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create storage client: %w", err)
		}
		sink, err := dataset.NewGCSSink(client, dataset.GCSConfig{Bucket: gcsCfg.Bucket, Object: gcsCfg.Object})
		if err != nil {
			_ = client.Close()
			return err
		}
		a.closers = append(a.closers, sink.Close)
		a.sink = append(a.sink, sink)
		a.logger.Info("mirroring dataset to cloud storage", zap.String("uri", sink.URI()))
	}
	if pgCfg := a.cfg.Dataset.Postgres; pgCfg.DSN != "" {
		sink, err := dataset.NewPostgresSink(ctx, dataset.PostgresConfig{
			DSN:             pgCfg.DSN,
			Table:           pgCfg.Table,
			MaxConns:        pgCfg.MaxConns,
			MaxConnLifetime: time.Duration(pgCfg.MaxConnLifetimeMinutes) * time.Minute,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { sink.Close(); return nil })
		a.sink = append(a.sink, sink)
		a.logger.Info("mirroring dataset to postgres", zap.String("table", pgCfg.Table))
	}

	a.publisher = notify.NoopPublisher{}
	if n := a.cfg.Notify; n.Topic != "" {
		pub, err := notify.NewPubSub(ctx, n.ProjectID, n.Topic)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pub.Close)
		a.publisher = pub
		a.logger.Info("publishing dataset notifications", zap.String("topic", n.Topic))
	}
	return nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

func (a *App) deps(stage string) pipeline.Deps {
	return pipeline.Deps{
		Sink:      a.sink,
		Publisher: a.publisher,
		Clock:     system.New(),
		IDs:       uuid.New(),
		Logger:    a.logger.Named(stage),
	}
}

// Harvester loads the cache and wires the source adapters.
func (a *App) Harvester() (*pipeline.Harvester, error) {
	store, err := cache.Load(a.cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	logger := a.logger.Named("harvest")

	var resolver *identity.Cached
	if a.cfg.Registry.Endpoint != "" {
		limiter := ratelimit.New(ratelimit.Config{RPS: a.cfg.Registry.RPS})
		client, err := identity.NewClient(identity.ClientConfig{
			Endpoint: a.cfg.Registry.Endpoint,
			APIKey:   a.cfg.Registry.APIKey,
			Timeout:  a.cfg.RegistryTimeout(),
		}, limiter)
		if err != nil {
			return nil, err
		}
		registry := identity.NewRegistry(client, identity.MatchOptions{
			CollegeMinBirthYear: a.cfg.Registry.CollegeMinBirthYear,
			Aliases:             identity.Aliases(a.cfg.Registry.Aliases),
		}, logger.Named("identity"))
		resolver = identity.NewCached(registry, store)
	}

	adapters := []source.Adapter{
		organizer.New(organizer.Config{Category: a.cfg.Organizer.Category}, a.fetcher, store, logger.Named("organizer")),
	}
	if resolver != nil {
		adapters = append(adapters,
			aggregator.New(a.fetcher, store, resolver, logger.Named("aggregator")),
			entrylist.New(entrylist.Config{
				SkipEvents:      a.cfg.EntryList.SkipEvents,
				HeaderFragments: a.cfg.EntryList.HeaderFragments,
				FooterFragments: a.cfg.EntryList.FooterFragments,
			}, nil, resolver, logger.Named("entrylist")),
		)
	}

	plans := make([]pipeline.MeetPlan, 0, len(a.cfg.Meets))
	for _, m := range a.cfg.Meets {
		plans = append(plans, pipeline.MeetPlan{
			Meet:    entries.Meet(m.Key),
			Indoor:  m.Indoor,
			Date:    m.Date,
			Sources: m.Sources,
		})
	}
	return &pipeline.Harvester{
		Deps:     a.deps("harvest"),
		Meets:    plans,
		Adapters: source.NewRegistry(a.cfg.Aggregator.Host, adapters...),
		Store:    store,
	}, nil
}

// Filterer wires the roster filter for roster.meet.
func (a *App) Filterer() (*pipeline.Filterer, error) {
	if a.cfg.Roster.Meet == "" {
		return nil, errors.New("roster.meet is required for the filter stage")
	}
	filter, err := roster.New(roster.Config{
		Meet:        entries.Meet(a.cfg.Roster.Meet),
		MaxEntrants: a.cfg.Roster.MaxEntrants,
		Listings:    a.cfg.Roster.Listings,
	}, a.fetcher, a.logger.Named("roster"))
	if err != nil {
		return nil, err
	}
	return &pipeline.Filterer{
		Deps:        a.deps("filter"),
		DatasetPath: a.cfg.Dataset.Path,
		Filter:      filter,
	}, nil
}

// Close shuts down the metrics server and every opened client, then flushes
// the logger.
func (a *App) Close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
}
