package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"gridboard/internal/domain"
)

// ErrNoSnapshotStore is returned by snapshot operations when no repository
// is attached.
var ErrNoSnapshotStore = errors.New("no snapshot store configured")

// SnapshotRepository persists exported states by name. Both the SQL and the
// MongoDB stores satisfy it.
type SnapshotRepository interface {
	Save(ctx context.Context, name string, snap domain.Snapshot) error
	Load(ctx context.Context, name string) (domain.Snapshot, error)
}

// SetSnapshotRepository attaches the store used by Save/LoadSnapshot and
// autosave.
func (s *CanvasService) SetSnapshotRepository(r SnapshotRepository) {
	s.mu.Lock()
	s.snapshots = r
	s.mu.Unlock()
}

func (s *CanvasService) snapshotRepo() SnapshotRepository {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots
}

// SaveSnapshot exports the current state under name.
func (s *CanvasService) SaveSnapshot(ctx context.Context, name string) error {
	repo := s.snapshotRepo()
	if repo == nil {
		return ErrNoSnapshotStore
	}
	snap := s.Export(map[string]any{"savedAt": time.Now().UTC().Format(time.RFC3339)})
	if err := repo.Save(ctx, name, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot imports the snapshot stored under name.
func (s *CanvasService) LoadSnapshot(ctx context.Context, name string) error {
	repo := s.snapshotRepo()
	if repo == nil {
		return ErrNoSnapshotStore
	}
	snap, err := repo.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	return s.Import(ctx, snap)
}

// ── Autosave ───────────────────────────────────────────────

// StartAutosave saves the state under name on the given cron schedule,
// replacing any previous schedule.
func (s *CanvasService) StartAutosave(schedule, name string) error {
	s.StopAutosave()

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if err := s.AutosaveNow(context.Background()); err != nil {
			log.Printf("autosave: %s failed: %v", name, err)
		}
	}); err != nil {
		return fmt.Errorf("autosave: invalid expression %q: %w", schedule, err)
	}

	s.mu.Lock()
	s.cronSched = c
	s.autosaveName = name
	s.mu.Unlock()
	c.Start()
	log.Printf("autosave: scheduled %q as %s", schedule, name)
	return nil
}

// AutosaveNow runs one autosave. A run that overlaps a previous one still
// in flight is skipped.
func (s *CanvasService) AutosaveNow(ctx context.Context) error {
	s.mu.Lock()
	name := s.autosaveName
	s.mu.Unlock()
	if name == "" {
		return fmt.Errorf("autosave: not configured")
	}
	finish, ok := s.saving.begin(name)
	if !ok {
		log.Printf("autosave: %s still running, skipping", name)
		return nil
	}
	defer finish()
	return s.SaveSnapshot(ctx, name)
}

// WaitAutosave blocks until an in-flight autosave finishes or ctx ends.
func (s *CanvasService) WaitAutosave(ctx context.Context) {
	s.saving.wait(ctx)
}

// StopAutosave cancels the schedule. Runs already started finish.
func (s *CanvasService) StopAutosave() {
	s.mu.Lock()
	c := s.cronSched
	s.cronSched = nil
	s.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}
