// Package syncservice is the composition root of the sync daemon: it wires
// the local stores, the remote client, connectivity monitoring, the push
// queue and the per-family sync managers into a running service.
package syncservice

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/config"
	"github.com/reelfocus/reelfocus/internal/connectivity"
	"github.com/reelfocus/reelfocus/internal/events"
	"github.com/reelfocus/reelfocus/internal/pending"
	"github.com/reelfocus/reelfocus/internal/pushqueue"
	"github.com/reelfocus/reelfocus/internal/remote/httpremote"
	"github.com/reelfocus/reelfocus/internal/store"
	storesqlite "github.com/reelfocus/reelfocus/internal/store/sqlite"
	"github.com/reelfocus/reelfocus/internal/syncer"
)

// App holds the wired components of the sync daemon. The CLI embeds one to
// serve its commands; the daemon additionally runs the sync loops.
type App struct {
	Cfg *config.Config
	Log zerolog.Logger

	Store    store.Store
	Registry *pending.Registry
	Remote   *httpremote.Client
	Monitor  *connectivity.Monitor
	Queue    *pushqueue.Executor
	Bus      *events.Bus

	Profiles *syncer.ProfileManager
	Goals    *syncer.GoalManager
	Tasks    *syncer.TaskManager
	Items    *syncer.ItemManager
	Orch     *syncer.Orchestrator

	syncInterval  time.Duration
	probeInterval time.Duration
}

// Build wires an App from cfg. Close releases everything Build opened.
func Build(cfg *config.Config, log zerolog.Logger) (*App, error) {
	syncInterval, err := time.ParseDuration(cfg.SyncInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	probeInterval, err := time.ParseDuration(cfg.ProbeInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid PROBE_INTERVAL: %w", err)
	}
	requestTimeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	st, err := storesqlite.New(cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	reg, err := pending.Open(cfg.PendingDBPath)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open pending registry: %w", err)
	}

	rem := httpremote.New(cfg.RemoteURL, requestTimeout, log)
	monitor := connectivity.NewMonitor(rem, probeInterval, log)
	queue := pushqueue.New(pushqueue.Config{}, log)
	bus := events.NewBus(0)

	deps := syncer.Deps{
		Store:    st,
		Registry: reg,
		Remote:   rem,
		Queue:    queue,
		Monitor:  monitor,
		Bus:      bus,
		Log:      log,
	}
	profiles := syncer.NewProfileManager(deps)
	goals := syncer.NewGoalManager(deps)
	tasks := syncer.NewTaskManager(deps)
	items := syncer.NewItemManager(deps, profiles)
	orch := syncer.NewOrchestrator(cfg.UserID, st, profiles, goals, tasks, items, bus, log)

	return &App{
		Cfg:           cfg,
		Log:           log,
		Store:         st,
		Registry:      reg,
		Remote:        rem,
		Monitor:       monitor,
		Queue:         queue,
		Bus:           bus,
		Profiles:      profiles,
		Goals:         goals,
		Tasks:         tasks,
		Items:         items,
		Orch:          orch,
		syncInterval:  syncInterval,
		probeInterval: probeInterval,
	}, nil
}

// Bootstrap ensures the signed-in user's profile exists locally.
func (a *App) Bootstrap(ctx context.Context) error {
	if a.Cfg.UserID == "" {
		return nil
	}
	_, err := a.Profiles.Bootstrap(ctx, a.Cfg.UserID, a.Cfg.DisplayName)
	return err
}

// Close drains the push queue and closes the local databases.
func (a *App) Close() {
	a.Queue.Stop()
	if err := a.Registry.Close(); err != nil {
		a.Log.Warn().Err(err).Msg("closing pending registry")
	}
	if err := a.Store.Close(); err != nil {
		a.Log.Warn().Err(err).Msg("closing local store")
	}
}
