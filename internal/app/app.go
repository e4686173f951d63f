package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"sync"
	"time"

	"gridboard/internal/config"
	"gridboard/internal/events"
	"gridboard/internal/grid"
	"gridboard/internal/interact"
	mcpserver "gridboard/internal/mcp"
	"gridboard/internal/service"
	"gridboard/internal/storage"
)

// frameInterval paces the scheduler when no host paint loop drives it.
const frameInterval = time.Second / 60

// snapshotBackend is what both the SQL and the MongoDB stores offer.
type snapshotBackend interface {
	service.SnapshotRepository
	List(ctx context.Context) ([]storage.SnapshotInfo, error)
	Delete(ctx context.Context, name string) error
}

// App owns the process-wide wiring: configuration, storage, the canvas
// service and the frame scheduler the gesture controllers share.
// Exported methods are the host bindings.
type App struct {
	ctx        context.Context
	cancel     context.CancelFunc
	configPath string

	mu  sync.RWMutex
	cfg *config.Config

	bus       *events.Bus
	canvas    *service.CanvasService
	frames    *interact.FrameScheduler
	db        *storage.DB
	mongo     *storage.MongoSnapshotStore
	snapshots snapshotBackend
	journal   *storage.HistoryStore
	approvals *mcpserver.ApprovalQueue

	watcher   *configWatcher
	approvalW *approvalWatcher
}

// New creates an App reading its configuration from configPath. An empty
// path runs on defaults.
func New(configPath string) *App {
	return &App{configPath: configPath, bus: events.NewBus(), frames: interact.NewFrameScheduler()}
}

// Startup loads configuration, opens storage and builds the canvas service.
func (a *App) Startup(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.canvas = newCanvasService(cfg, a.bus)
	for _, id := range cfg.Canvases {
		if _, err := a.canvas.AddCanvas(a.ctx, id); err != nil {
			return fmt.Errorf("create canvas %s: %w", id, err)
		}
	}
	// startup canvases are neither undoable nor journalled
	a.canvas.History().Clear()

	if err := a.openStorage(a.ctx, cfg.Storage); err != nil {
		return err
	}
	a.approvals = mcpserver.NewApprovalQueue(a.bus)
	if a.db != nil {
		a.approvals.SetDB(a.db)
	}
	a.canvas.RestoreView(a.ctx)

	if cfg.Autosave.Enabled {
		if err := a.canvas.StartAutosave(cfg.Autosave.Schedule, cfg.Autosave.Snapshot); err != nil {
			return err
		}
	}

	a.frames.Start(a.ctx, frameInterval)
	if a.configPath != "" {
		a.watcher = newConfigWatcher(a.configPath, a.reloadConfig)
		a.watcher.Start(a.ctx)
	}
	if a.db != nil {
		a.approvalW = newApprovalWatcher(a.ctx, a.db, a.bus)
		a.approvalW.Start()
	}

	log.Printf("app: started with %d canvas(es), storage %s", len(cfg.Canvases), cfg.Storage.Driver)
	return nil
}

// Shutdown stops background work and closes storage. In-flight autosaves
// are given a few seconds to finish.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.approvalW != nil {
		a.approvalW.Stop()
	}
	if a.canvas != nil {
		a.canvas.StopAutosave()
		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		a.canvas.WaitAutosave(waitCtx)
		cancel()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.mongo != nil {
		if err := a.mongo.Close(ctx); err != nil {
			log.Printf("app: close mongo: %v", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// Canvas returns the canvas service.
func (a *App) Canvas() *service.CanvasService { return a.canvas }

// Events returns the bus every notification goes through.
func (a *App) Events() *events.Bus { return a.bus }

// Config returns the active configuration.
func (a *App) Config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return *a.cfg
}

// ── Wiring helpers ─────────────────────────────────────────

// loadConfig falls back to defaults when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("app: config %s not found, using defaults", path)
		return config.DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func gridOptions(cfg *config.Config) grid.Options {
	return grid.Options{
		SizePercent:      cfg.Grid.SizePercent,
		VerticalStep:     cfg.Grid.VerticalStepPx,
		CanvasWidthUnits: cfg.Grid.CanvasWidthUnits,
	}
}

func newCanvasService(cfg *config.Config, emitter events.Emitter) *service.CanvasService {
	svc := service.NewCanvasService(emitter, service.Options{
		Grid:         gridOptions(cfg),
		HistoryLimit: cfg.History.Limit,
		MinWidth:     cfg.Grid.MinWidth,
		MinHeight:    cfg.Grid.MinHeight,
	})
	for _, t := range cfg.Types {
		svc.Types().Register(service.ItemType{
			Name:          t.Name,
			DefaultWidth:  t.DefaultWidth,
			DefaultHeight: t.DefaultHeight,
			Limits: interact.SizeLimits{
				MinWidth: t.MinWidth, MinHeight: t.MinHeight,
				MaxWidth: t.MaxWidth, MaxHeight: t.MaxHeight,
			},
			DefaultConfig: t.Config,
		})
	}
	return svc
}

// openStorage connects the configured backend and attaches it to the
// service. SQL drivers also carry the command journal and view settings.
func (a *App) openStorage(ctx context.Context, sc config.StorageConfig) error {
	switch sc.Driver {
	case "none":
		return nil
	case "mongodb":
		ms, err := storage.OpenMongo(ctx, sc.DSN, sc.MongoDatabase)
		if err != nil {
			return err
		}
		a.mongo = ms
		a.snapshots = ms
	default:
		db, err := storage.Open(sc.Driver, sc.DSN)
		if err != nil {
			return err
		}
		a.db = db
		a.snapshots = storage.NewSnapshotStore(db)
		a.journal = storage.NewHistoryStore(db, a.cfg.History.JournalLimit)
		a.canvas.SetJournal(a.journal)
		a.canvas.SetSettingsStore(storage.NewSettingsStore(db))
	}
	a.canvas.SetSnapshotRepository(a.snapshots)
	return nil
}

// reloadConfig applies a changed config file. Storage and canvases are
// fixed for the life of the process; grid, history and autosave follow
// the file.
func (a *App) reloadConfig() {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		log.Printf("app: reload config: %v, keeping current settings", err)
		return
	}

	a.mu.Lock()
	prev := a.cfg
	a.cfg = cfg
	a.mu.Unlock()

	a.canvas.ApplyGridOptions(gridOptions(cfg), cfg.Grid.MinWidth, cfg.Grid.MinHeight)
	a.canvas.SetHistoryLimit(cfg.History.Limit)

	if prev.Autosave != cfg.Autosave {
		a.canvas.StopAutosave()
		if cfg.Autosave.Enabled {
			if err := a.canvas.StartAutosave(cfg.Autosave.Schedule, cfg.Autosave.Snapshot); err != nil {
				log.Printf("app: reload autosave: %v", err)
			}
		}
	}
	a.bus.Emit(a.ctx, EventConfigReloaded, map[string]any{"canvasWidthUnits": cfg.Grid.CanvasWidthUnits})
	log.Printf("app: config reloaded from %s", a.configPath)
}

// EventConfigReloaded is emitted after the config file has been re-applied.
const EventConfigReloaded = "config:reloaded"
