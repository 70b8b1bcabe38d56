package cli

import (
	"context"
	"fmt"

	"charm.land/log/v2"

	"softcenter/internal/config"
	"softcenter/internal/domain"
	"softcenter/internal/eventbus"
	"softcenter/internal/logging"
	"softcenter/internal/plugins"
	"softcenter/internal/plugins/catalog"
	"softcenter/internal/plugins/flatpak"
	"softcenter/internal/plugins/native"
	"softcenter/internal/plugins/snapd"
	"softcenter/internal/search"
)

// app holds the services one command invocation runs on
type app struct {
	cfg      *config.Config
	cfgPath  string
	logger   *log.Logger
	bus      eventbus.EventBus
	registry *plugins.Registry
	catalog  *catalog.Plugin // nil unless the catalog plugin registered

	cleanup func()
}

// newApp loads the configuration and sets up logging and the event bus.
// Plugins are registered separately with register.
func newApp(opts *globalOptions, mode logging.Mode) (*app, error) {
	svc := config.NewConfigServiceWithBus(nil, opts.configPath)
	cfg, err := svc.Load()
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		if _, err := logging.ParseLevel(opts.logLevel); err != nil {
			return nil, err
		}
		cfg.Log.Level = opts.logLevel
	}

	logger, closeLog, err := logging.Setup(cfg.Log, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	bus := eventbus.NewWithLogger(logger)
	logEvents(bus, logger)

	a := &app{
		cfg:      cfg,
		cfgPath:  svc.Path(),
		logger:   logger,
		bus:      bus,
		registry: plugins.NewRegistry(bus, logger),
	}
	a.cleanup = func() {
		if err := a.registry.Close(); err != nil {
			logger.Warn("failed to close plugins", "err", err)
		}
		bus.Close()
		closeLog()
	}

	logger.Info("configuration loaded", "path", a.cfgPath, "plugins", cfg.Plugins.Enabled)
	bus.Publish(domain.ConfigLoadedEvent{Path: a.cfgPath, Plugins: cfg.Plugins.Enabled})
	return a, nil
}

// logEvents writes every domain event to the log
func logEvents(bus eventbus.EventBus, logger *log.Logger) {
	for _, et := range eventbus.AllEventTypes {
		bus.Subscribe(et, func(ev eventbus.DomainEvent) {
			logger.Debug("event", "type", ev.Type(), "event", fmt.Sprintf("%+v", ev))
		})
	}
}

// factories returns the enabled plugin factories in search order
func (a *app) factories() []plugins.Factory {
	var out []plugins.Factory
	for _, name := range a.cfg.Plugins.Enabled {
		switch name {
		case config.PluginNative:
			out = append(out, native.Factory(native.Options{}, a.logger))
		case config.PluginFlatpak:
			out = append(out, flatpak.Factory(a.logger))
		case config.PluginSnapd:
			out = append(out, snapd.Factory(snapd.ClientOptions{
				Socket: a.cfg.Plugins.SnapdSocket,
				Rate:   a.cfg.Plugins.SnapdRate,
			}, a.logger))
		case config.PluginCatalog:
			out = append(out, a.catalogFactory())
		}
	}
	return out
}

// catalogFactory keeps a handle on the catalog so it can be watched
func (a *app) catalogFactory() plugins.Factory {
	f := catalog.Factory(a.cfg.Plugins.CatalogPath, a.bus, a.logger)
	return plugins.Factory{
		Name: f.Name,
		New: func(ctx context.Context) (plugins.Plugin, error) {
			p, err := f.New(ctx)
			if err != nil {
				return nil, err
			}
			a.catalog, _ = p.(*catalog.Plugin)
			return p, nil
		},
	}
}

// register probes the enabled plugins. With cached set, each active plugin
// is wrapped in the result cache.
func (a *app) register(ctx context.Context, cached bool) []plugins.Registration {
	factories := a.factories()
	if cached {
		for i, f := range factories {
			factories[i] = withCache(f, a.cfg.Search.CacheSize)
		}
	}
	return a.registry.Register(ctx, factories...)
}

func withCache(f plugins.Factory, size int) plugins.Factory {
	return plugins.Factory{
		Name: f.Name,
		New: func(ctx context.Context) (plugins.Plugin, error) {
			p, err := f.New(ctx)
			if err != nil {
				return nil, err
			}
			return plugins.WithCache(p, size), nil
		},
	}
}

// purgeCatalogCache drops cached catalog results so a reload is visible
func (a *app) purgeCatalogCache() {
	for _, p := range a.registry.Plugins() {
		if p.Name() != catalog.Name {
			continue
		}
		if purger, ok := p.(plugins.Purger); ok {
			purger.Purge()
		}
	}
}

// watchCatalog reloads the catalog on change until ctx is done
func (a *app) watchCatalog(ctx context.Context) {
	if a.catalog == nil {
		return
	}
	go func() {
		if err := a.catalog.Watch(ctx); err != nil {
			a.logger.Warn("catalog watch stopped", "err", err)
			a.bus.Publish(domain.ErrorEvent{Message: fmt.Sprintf("Catalog changes will not be picked up: %v", err), Err: err})
		}
	}()
}

func (a *app) newExecutor() *search.Executor {
	return search.NewExecutor(a.registry, search.Options{
		StaleGrace:          a.cfg.Search.StaleGrace(),
		MaxResultsPerPlugin: a.cfg.Search.MaxResultsPerPlugin,
		Bus:                 a.bus,
		Logger:              a.logger,
	})
}

// stopExecutor cancels e's search and waits for its worker to return, for at
// most the stale grace period, so plugins are not closed under it
func (a *app) stopExecutor(e *search.Executor) {
	e.Cancel()

	ctx := context.Background()
	if grace := a.cfg.Search.StaleGrace(); grace > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, grace)
		defer cancel()
	}
	if err := e.Wait(ctx); err != nil {
		a.logger.Warn("search worker still running at shutdown", "grace", a.cfg.Search.StaleGrace())
	}
	e.Close()
}

func (a *app) Close() {
	if a.cleanup != nil {
		a.cleanup()
	}
}
