package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/bridge"
	"github.com/muurk/dohome/internal/config"
	"github.com/muurk/dohome/internal/control"
	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/entity"
	"github.com/muurk/dohome/internal/logging"
	"github.com/muurk/dohome/internal/server"
)

// shutdownTimeout bounds how long Run waits for the adapters to stop
const shutdownTimeout = 5 * time.Second

// Notifier receives entity and discovery events. The MQTT bridge and the
// HTTP event hub both implement it.
type Notifier interface {
	EntitiesAdded(es []entity.Entity)
	StateChanged(e entity.Entity)
	DiscoveryStatus(s discovery.State)
}

// App owns the daemon's components
type App struct {
	cfg *config.Config

	Registry *discovery.Registry
	Scanner  *discovery.Scanner
	Client   *control.Client
	Entities *entity.Manager

	mu        sync.RWMutex
	notifiers []Notifier
}

// New builds the core components from cfg. Adapters are created by Run.
func New(cfg *config.Config) *App {
	a := &App{
		cfg:      cfg,
		Registry: discovery.NewRegistry(),
		Client: &control.Client{
			Port:    control.DefaultPort,
			Timeout: cfg.Control.Timeout,
		},
	}

	broadcast := discovery.ResolveBroadcast(cfg.Discovery.BroadcastAddress)
	a.Scanner = discovery.NewScanner(a.Registry, broadcast)
	a.Scanner.Window = cfg.Discovery.Window
	a.Scanner.OnStatus = a.discoveryStatus

	a.Entities = entity.NewManager(a.Client, cfg.Aliases)
	return a
}

// AddNotifier subscribes n to entity and discovery events
func (a *App) AddNotifier(n Notifier) {
	a.mu.Lock()
	a.notifiers = append(a.notifiers, n)
	a.mu.Unlock()
}

func (a *App) each(fn func(Notifier)) {
	a.mu.RLock()
	notifiers := append([]Notifier(nil), a.notifiers...)
	a.mu.RUnlock()

	for _, n := range notifiers {
		fn(n)
	}
}

func (a *App) discoveryStatus(s discovery.State) {
	a.each(func(n Notifier) { n.DiscoveryStatus(s) })
}

// StateChanged forwards an entity state change to every notifier
func (a *App) StateChanged(e entity.Entity) {
	a.each(func(n Notifier) { n.StateChanged(e) })
}

func (a *App) register(found discovery.Discovered) []entity.Entity {
	added := a.Entities.Register(found)
	if len(added) > 0 {
		a.each(func(n Notifier) { n.EntitiesAdded(added) })
	}
	return added
}

// Discover runs the startup discovery: the configured number of rounds with
// the configured window. Devices found before an error are still registered.
func (a *App) Discover(ctx context.Context) ([]entity.Entity, error) {
	found, err := a.Scanner.DiscoverFor(ctx, a.cfg.Discovery.Retry, a.cfg.Discovery.Window)
	added := a.register(found)

	logging.Info("Discovery finished",
		zap.Int("new_devices", found.Len()),
		zap.Int("new_entities", len(added)),
	)
	return added, err
}

// DiscoverFor runs one on-demand discovery round. The window is clamped to
// 1-60s; zero selects the configured on-demand window.
func (a *App) DiscoverFor(ctx context.Context, window time.Duration) ([]entity.Entity, error) {
	if window == 0 {
		window = a.cfg.Discovery.OnDemandWindow
	}
	window = discovery.ClampWindow(window)

	logging.Info("On-demand discovery started", zap.Duration("window", window))
	found, err := a.Scanner.ScanFor(ctx, window)
	return a.register(found), err
}

// PollOnce refreshes every switch and reports the ones that changed
func (a *App) PollOnce(ctx context.Context) {
	for _, s := range a.Entities.RefreshSwitches(ctx) {
		a.StateChanged(s)
	}
}

// Poll refreshes switches every poll interval until ctx is done
func (a *App) Poll(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Control.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.PollOnce(ctx)
		}
	}
}

// Run starts the enabled adapters, runs startup discovery and polls switch
// state until ctx is cancelled, then shuts the adapters down.
func (a *App) Run(ctx context.Context) error {
	var br *bridge.Bridge
	if a.cfg.MQTT.Enabled {
		br = bridge.New(a.cfg.MQTT, a.Entities, a.DiscoverFor)
		br.OnStateChange = a.StateChanged
		if err := br.Start(ctx); err != nil {
			return err
		}
		a.AddNotifier(br)
	}

	var srv *server.Server
	if a.cfg.HTTP.Listen != "" {
		srv = server.New(&server.Config{
			Listen:    a.cfg.HTTP.Listen,
			Advertise: a.cfg.HTTP.Advertise,
		}, a.Registry, a.Entities, a.DiscoverFor)
		srv.OnStateChange = a.StateChanged
		if err := srv.Start(); err != nil {
			if br != nil {
				br.Stop()
			}
			return err
		}
		a.AddNotifier(srv.Hub())
	}

	if _, err := a.Discover(ctx); err != nil && ctx.Err() == nil {
		// On-demand discovery can still find devices later
		logging.Warn("Startup discovery failed", zap.Error(err))
	}

	a.Poll(ctx)

	logging.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("HTTP API shutdown failed", zap.Error(err))
		}
	}
	if br != nil {
		br.Stop()
	}
	logging.Sync()
	return nil
}
