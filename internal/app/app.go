// Package app initializes and holds the long-lived services of the discovery
// service, acting as the composition root for one run.
package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/outreachkit/prospector/internal/api"
	"github.com/outreachkit/prospector/internal/archive"
	"github.com/outreachkit/prospector/internal/clock/system"
	"github.com/outreachkit/prospector/internal/config"
	"github.com/outreachkit/prospector/internal/crawl"
	"github.com/outreachkit/prospector/internal/dispatcher"
	"github.com/outreachkit/prospector/internal/extract"
	"github.com/outreachkit/prospector/internal/logging"
	"github.com/outreachkit/prospector/internal/metrics"
	"github.com/outreachkit/prospector/internal/pipeline"
	"github.com/outreachkit/prospector/internal/progress"
	"github.com/outreachkit/prospector/internal/publish"
	"github.com/outreachkit/prospector/internal/quota"
	"github.com/outreachkit/prospector/internal/ratelimit"
	"github.com/outreachkit/prospector/internal/score"
	"github.com/outreachkit/prospector/internal/store"
	"github.com/outreachkit/prospector/internal/verify"
	"github.com/outreachkit/prospector/internal/worker"
)

// App holds the shared, long-lived services for one discovery run.
type App struct {
	Cfg        config.Config
	Logger     *zap.Logger
	Tracker    *progress.Tracker
	Store      pipeline.RecordStore
	Dispatcher *dispatcher.Dispatcher
	Server     *api.Server

	renderer  *crawl.ChromedpRenderer
	pgStore   *store.PostgresStore
	publisher *publish.PubSubPublisher
}

// New assembles every service from configuration. It fails fast when any
// critical dependency cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	metrics.Init()

	a := &App{
		Cfg:     cfg,
		Logger:  logger,
		Tracker: progress.NewTracker(),
	}

	recordStore, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = recordStore

	publisher, err := a.buildPublisher(ctx)
	if err != nil {
		return nil, err
	}

	q := quota.New(int64(cfg.Quota.MaxOutbound))
	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.Crawl.RatePerDomain,
		DefaultBurst: cfg.Crawl.RateBurst,
	})

	crawler, err := a.buildCrawler(ctx, limiter, q)
	if err != nil {
		return nil, err
	}

	extractor := extract.New(extract.Config{
		DenyDomains:    cfg.Extract.DenyDomains,
		DenyLocalParts: cfg.Extract.DenyLocalParts,
		Deobfuscate:    cfg.Extract.Deobfuscate,
	})

	var prober verify.Prober
	if cfg.Verify.ProbeEnabled {
		prober = verify.NewSMTPProber(
			cfg.Verify.Timeout,
			cfg.Verify.Port,
			cfg.Verify.HELODomain,
			cfg.Verify.MailFrom,
		)
	}
	verifier := verify.New(verify.SystemResolver(), prober, q, logger, verify.Config{
		ProbeEnabled: cfg.Verify.ProbeEnabled,
		Timeout:      cfg.Verify.Timeout,
		Port:         cfg.Verify.Port,
		HELODomain:   cfg.Verify.HELODomain,
		MailFrom:     cfg.Verify.MailFrom,
	})

	runner := pipeline.NewRunner(
		pipeline.RunnerConfig{GuessEnabled: cfg.Pipeline.GuessEnabled},
		extractor,
		crawler,
		score.New(),
		verifier,
		system.New(),
		logger,
	)
	if cfg.Pipeline.GuessEnabled {
		runner.SetGuesser(extract.Guess)
	}

	workers := make([]*worker.Worker, 0, cfg.Pipeline.Concurrency)
	for i := 0; i < cfg.Pipeline.Concurrency; i++ {
		workers = append(workers, worker.New(
			runner,
			recordStore,
			publisher,
			a.Tracker,
			worker.Config{Topic: cfg.Pipeline.Topic},
			logger,
		))
	}
	a.Dispatcher = dispatcher.New(workers, cfg.Pipeline.QueueDepth)
	a.Server = api.NewServer(a.Tracker, recordStore, logger)

	logger.Info("application services initialized",
		zap.Int("workers", cfg.Pipeline.Concurrency),
		zap.Bool("probe_enabled", cfg.Verify.ProbeEnabled),
		zap.Bool("headless_enabled", cfg.Headless.Enabled),
	)
	return a, nil
}

func (a *App) buildStore(ctx context.Context) (pipeline.RecordStore, error) {
	if a.Cfg.DB.DSN == "" {
		a.Logger.Info("no database configured, records stay in memory")
		return store.NewMemoryStore(), nil
	}
	pg, err := store.NewPostgresStore(ctx, store.PostgresConfig{
		DSN:             a.Cfg.DB.DSN,
		Table:           a.Cfg.DB.Table,
		MaxConns:        a.Cfg.DB.MaxConns,
		MinConns:        a.Cfg.DB.MinConns,
		MaxConnLifetime: a.Cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize postgres store: %w", err)
	}
	a.pgStore = pg
	return pg, nil
}

func (a *App) buildPublisher(ctx context.Context) (pipeline.Publisher, error) {
	if a.Cfg.Pipeline.Topic == "" {
		return nil, nil
	}
	if a.Cfg.PubSub.ProjectID == "" {
		a.Logger.Info("no pubsub project configured, publishing in memory")
		return publish.NewMemoryPublisher(), nil
	}
	client, err := pubsub.NewClient(ctx, a.Cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("connect pubsub: %w", err)
	}
	pub, err := publish.NewPubSubPublisher(client)
	if err != nil {
		return nil, err
	}
	a.publisher = pub
	return pub, nil
}

func (a *App) buildCrawler(ctx context.Context, limiter *ratelimit.Limiter, q *quota.Quota) (*crawl.Crawler, error) {
	crawlCfg := crawl.Config{
		MaxDepth:       a.Cfg.Crawl.MaxDepth,
		MaxPages:       a.Cfg.Crawl.MaxPages,
		RequestTimeout: a.Cfg.Crawl.RequestTimeout,
		MaxPageBytes:   a.Cfg.Crawl.MaxPageBytes,
		UserAgent:      a.Cfg.Crawl.UserAgent,
		LinkKeywords:   a.Cfg.Crawl.LinkKeywords,
		SkipDomains:    a.Cfg.Crawl.SkipDomains,
		ArchivePages:   a.Cfg.Crawl.ArchivePages,
	}
	fetcher := crawl.NewCollyFetcher(crawlCfg, a.Logger)
	crawler := crawl.New(crawlCfg, fetcher, limiter, q, a.Logger)

	if a.Cfg.Headless.Enabled {
		renderer, err := crawl.NewChromedpRenderer(crawl.HeadlessConfig{
			Enabled:     true,
			MaxParallel: a.Cfg.Headless.MaxParallel,
			NavTimeout:  a.Cfg.Headless.NavTimeout,
			UserAgent:   a.Cfg.Crawl.UserAgent,
		}, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("initialize headless renderer: %w", err)
		}
		a.renderer = renderer
		detector := crawl.NewHeadlessDetector(a.Cfg.Headless.MinHTMLBytes, a.Cfg.Headless.Markers)
		crawler.SetHeadless(renderer, detector)
	}

	pageArchive, err := a.buildArchive(ctx)
	if err != nil {
		return nil, err
	}
	if pageArchive != nil {
		crawler.SetArchive(pageArchive)
	}
	return crawler, nil
}

func (a *App) buildArchive(ctx context.Context) (pipeline.Archive, error) {
	switch a.Cfg.Archive.Provider {
	case "":
		return nil, nil
	case "memory":
		return archive.NewMemoryArchive(), nil
	case "local":
		local, err := archive.NewLocalArchive(archive.LocalConfig{BaseDir: a.Cfg.Archive.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("initialize local archive: %w", err)
		}
		return local, nil
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect gcs: %w", err)
		}
		gcs, err := archive.NewGCSArchive(client, archive.GCSConfig{Bucket: a.Cfg.Archive.GCSBucket})
		if err != nil {
			return nil, err
		}
		return gcs, nil
	default:
		return nil, fmt.Errorf("unknown archive provider %q", a.Cfg.Archive.Provider)
	}
}

// Close gracefully shuts down the services that hold external resources.
func (a *App) Close() {
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Logger.Warn("error closing publisher", zap.Error(err))
		}
	}
	if err := a.Logger.Sync(); err != nil {
		// Best effort; stderr sync failures on shutdown are expected on some platforms.
		_ = err
	}
}
