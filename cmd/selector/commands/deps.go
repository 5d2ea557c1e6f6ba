package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockpick/internal/dataset"
	"github.com/wonny/stockpick/internal/export"
	"github.com/wonny/stockpick/internal/external/tushare"
	"github.com/wonny/stockpick/internal/metadata"
	"github.com/wonny/stockpick/internal/selection"
	"github.com/wonny/stockpick/internal/selector"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/database"
	"github.com/wonny/stockpick/pkg/httputil"
	"github.com/wonny/stockpick/pkg/logger"
	"github.com/wonny/stockpick/pkg/redis"
)

// app holds the wired components shared by the commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *selector.Registry
	metadata *metadata.Cache
	exporter *export.Exporter
	repo     *selection.Repository
	runner   *selection.Runner

	closers []func()
}

// appOptions are per-command overrides of the config defaults
type appOptions struct {
	exportDir    string
	exportFormat string
	withDB       bool
	requireDB    bool
}

// loadConfig reads the config and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp wires config, logger, provider client, caches, exporter and runner
// ⭐ SSOT: 의존성 조립은 이 함수에서만
func newApp(opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if opts.exportDir != "" {
		cfg.Selection.ExportDir = opts.exportDir
	}
	if opts.exportFormat != "" {
		cfg.Selection.ExportFormat = opts.exportFormat
	}
	format, err := export.ParseFormat(cfg.Selection.ExportFormat)
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)
	a := &app{
		cfg:      cfg,
		log:      log,
		registry: selector.NewDefaultRegistry(),
	}
	a.onClose(func() { _ = log.Close() })

	// Provider client
	httpClient := httputil.New(cfg, log).WithRateLimit(cfg.Tushare.RatePerMin)
	provider := tushare.NewClient(httpClient, cfg.Tushare, log)

	// Metadata cache, with Redis as the optional second level
	var store metadata.Store
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, metadata cache is process-local")
	} else {
		a.onClose(func() { _ = redisClient.Close() })
		if redisClient.Enabled() {
			store = redis.NewCache(redisClient, "")
		}
	}
	a.metadata = metadata.NewCache(provider, store, redis.StockBasicKey(cfg.Tushare.ListStatus), cfg.MetadataCacheTTL, log)

	a.exporter = export.NewExporter(cfg.Selection.ExportDir, format, a.metadata, log)

	a.runner = selection.NewRunner(dataset.NewLoader(log), a.registry, log).
		WithExporter(a.exporter)

	// Optional result store
	if opts.withDB || opts.requireDB {
		repo, err := a.openRepository()
		switch {
		case err == nil:
			a.repo = repo
			a.runner.WithStore(repo)
		case opts.requireDB:
			a.Close()
			return nil, err
		default:
			log.WithError(err).Warn("Result store unavailable, runs will not be persisted")
		}
	}

	return a, nil
}

func (a *app) openRepository() (*selection.Repository, error) {
	if !a.cfg.HasDatabase() {
		return nil, fmt.Errorf("DATABASE_URL is required to store results")
	}

	db, err := database.New(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.onClose(db.Close)

	repo := selection.NewRepository(db.Pool)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	a.log.Info("Connected to result store")
	return repo, nil
}

// defaultOptions returns run options from the config defaults
func (a *app) defaultOptions() selection.Options {
	return selection.Options{
		DataDir:    a.cfg.Selection.DataDir,
		ConfigPath: a.cfg.Selection.ConfigPath,
		Symbols:    a.cfg.Selection.Tickers,
	}
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
