package app

import (
	"context"
	"errors"
	"fmt"

	appconfig "github.com/doeshing/datatalk/internal/application/config"
	"github.com/doeshing/datatalk/internal/application/doctor"
	"github.com/doeshing/datatalk/internal/application/query"
	"github.com/doeshing/datatalk/internal/application/render"
	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/infrastructure/backend"
	"github.com/doeshing/datatalk/internal/infrastructure/cache"
	"github.com/doeshing/datatalk/internal/infrastructure/config"
	"github.com/doeshing/datatalk/internal/infrastructure/history"
	"github.com/doeshing/datatalk/internal/infrastructure/metrics"
	"github.com/doeshing/datatalk/internal/infrastructure/web"
	"github.com/doeshing/datatalk/internal/pkg/logger"
	"github.com/doeshing/datatalk/internal/ports"
)

// Options are the process-level switches that shape the container.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config        domain.Config
	Durations     appconfig.Durations
	ConfigLoader  *config.FileLoader
	Logger        *logger.ZapLogger
	Backend       *backend.HTTPClient
	Renderer      *render.Renderer
	Recorder      ports.Recorder
	DoctorService *doctor.Service
	HistoryStore  ports.HistoryRepository
	CacheStore    ports.CacheRepository

	closers []func() error
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := appconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgLoader.Path(), err)
	}
	durations, err := appconfig.ParseDurations(cfg)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if opts.Verbose {
		level = "debug"
	}
	log := logger.NewStructured(level, cfg.Logging.Format)

	c := &Container{
		Config:       cfg,
		Durations:    durations,
		ConfigLoader: cfgLoader,
		Logger:       log,
		Backend:      backend.NewHTTPClient(cfg.Backend, log),
		Renderer:     render.New(log),
		Recorder:     metrics.NewPrometheus(),
	}
	c.closers = append(c.closers, func() error {
		// syncing a terminal stderr fails on some platforms
		_ = log.Sync()
		return nil
	})

	if cfg.History.Enabled {
		store := history.NewSQLiteStore(cfg.History.Path)
		c.HistoryStore = store
		c.closers = append(c.closers, store.Close)
		if days := cfg.History.RetentionDays; days > 0 {
			if err := store.PruneOlderThan(ctx, days); err != nil {
				log.Warn("history prune failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	if cfg.Cache.Enabled {
		c.CacheStore = c.buildCache(cfg.Cache)
	}

	c.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		Backend:        c.Backend,
		History:        c.HistoryStore,
		Cache:          c.CacheStore,
		Timeout:        domain.DefaultDoctorTimeout,
	}

	log.Debug("container ready", map[string]interface{}{
		"config":  cfgLoader.Path(),
		"backend": c.Backend.Endpoint(),
		"history": cfg.History.Enabled,
		"cache":   cfg.Cache.Enabled,
	})
	return c, nil
}

func (c *Container) buildCache(settings domain.CacheSettings) ports.CacheRepository {
	if settings.Backend == domain.CacheBackendRedis {
		client := cache.NewRedisClient(settings.Redis)
		c.closers = append(c.closers, client.Close)
		return cache.NewRedisCache(client, settings.Redis.KeyPrefix, c.Durations.CacheTTL)
	}
	return cache.NewFileCache(settings.Dir, c.Durations.CacheTTL, settings.MaxEntries)
}

// NewController builds a chat session controller. indicator may be nil.
func (c *Container) NewController(indicator ports.LoadingIndicator) *query.Controller {
	ctrl := query.NewController(c.Backend, c.Renderer, c.Logger)
	ctrl.Recorder = c.Recorder
	ctrl.Indicator = indicator
	if c.HistoryStore != nil {
		ctrl.History = c.HistoryStore
	}
	if c.CacheStore != nil {
		ctrl.Cache = c.CacheStore
		ctrl.CacheKey = cache.Key
	}
	return ctrl
}

// NewWebServer builds the browser front end; listen overrides server.listen when set.
func (c *Container) NewWebServer(listen string) (*web.Server, error) {
	if listen == "" {
		listen = c.Config.Server.Listen
	}
	sessions := web.NewSessions(web.SessionOptions{
		Cookie: c.Config.Server.SessionCookie,
		TTL:    c.Durations.SessionTTL,
		Max:    c.Config.Server.MaxSessions,
	}, func() *query.Controller {
		return c.NewController(nil)
	})
	return web.NewServer(web.Options{
		Listen:            listen,
		ReadHeaderTimeout: c.Durations.ReadHeaderTimeout,
		ShutdownTimeout:   c.Durations.ShutdownTimeout,
	}, sessions, c.Logger)
}

// Close releases stores and flushes the logger.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
