package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"gridboard/internal/domain"
	"gridboard/internal/events"
	"gridboard/internal/history"
	"gridboard/internal/registry"
)

func seed(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New(nil)
	for _, id := range []string{"canvas1", "canvas2"} {
		if err := r.AddCanvas(domain.Canvas{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for i, id := range []string{"a", "b", "c"} {
		if _, err := r.AddItem(newItem(id, "canvas1", 0, i*4)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.AddItem(newItem("z", "canvas2", 0, 0)); err != nil {
		t.Fatal(err)
	}
	return r
}

func newItem(id, canvasID string, x, y int) domain.GridItem {
	return domain.GridItem{
		ID:       id,
		CanvasID: canvasID,
		Type:     "note",
		Name:     id,
		Layouts:  domain.Layouts{Desktop: domain.Layout{X: x, Y: y, Width: 10, Height: 4}},
		Config:   map[string]any{"text": id},
	}
}

// Each case applies a mutation directly to the registry and returns the
// command describing it, as the service layer does.
func TestUndoRedoRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		apply func(t *testing.T, r *registry.Registry) history.Command
	}{
		{
			name: "add items",
			apply: func(t *testing.T, r *registry.Registry) history.Command {
				added, err := r.AddItems([]registry.Insert{
					{Item: newItem("n1", "canvas1", 20, 0), Index: -1},
					{Item: newItem("n2", "canvas1", 30, 0), Index: 0},
				})
				if err != nil {
					t.Fatal(err)
				}
				return history.AddItems("add", []history.ItemEntry{
					{Item: added[0], Index: 3},
					{Item: added[1], Index: 0},
				})
			},
		},
		{
			name: "delete items",
			apply: func(t *testing.T, r *registry.Registry) history.Command {
				removed, err := r.RemoveItems([]registry.ItemRef{
					{CanvasID: "canvas1", ItemID: "a"},
					{CanvasID: "canvas1", ItemID: "c"},
					{CanvasID: "canvas2", ItemID: "z"},
				})
				if err != nil {
					t.Fatal(err)
				}
				var entries []history.ItemEntry
				for _, rm := range removed {
					entries = append(entries, history.ItemEntry{Item: rm.Item, Index: rm.Index})
				}
				return history.DeleteItems("delete", entries)
			},
		},
		{
			name: "move within canvas",
			apply: func(t *testing.T, r *registry.Registry) history.Command {
				before, idx, _ := r.Item("canvas1", "b")
				after := before.Layouts.With(domain.ViewportDesktop, domain.Layout{X: 12, Y: 8, Width: 14, Height: 6})
				if _, err := r.UpdateItem("canvas1", "b", registry.ItemPatch{Layouts: &after}); err != nil {
					t.Fatal(err)
				}
				return history.MoveItem("move", history.MoveChange{
					ItemID: "b", SourceCanvasID: "canvas1", TargetCanvasID: "canvas1",
					Before: before.Layouts, After: after, OriginalIndex: idx,
					BeforeZIndex: before.ZIndex, AfterZIndex: before.ZIndex,
				})
			},
		},
		{
			name: "bring to front",
			apply: func(t *testing.T, r *registry.Registry) history.Command {
				it, idx, _ := r.Item("canvas1", "a")
				before, after, err := r.BringToFront("canvas1", "a")
				if err != nil {
					t.Fatal(err)
				}
				return history.MoveItem("front", history.MoveChange{
					ItemID: "a", SourceCanvasID: "canvas1", TargetCanvasID: "canvas1",
					Before: it.Layouts, After: it.Layouts, OriginalIndex: idx,
					BeforeZIndex: before, AfterZIndex: after,
				})
			},
		},
		{
			name: "move across canvases",
			apply: func(t *testing.T, r *registry.Registry) history.Command {
				before, idx, _ := r.Item("canvas1", "b")
				after := domain.Layouts{Desktop: domain.Layout{X: 2, Y: 2, Width: 10, Height: 4}}
				moved, err := r.MoveItemToCanvas(registry.CanvasMove{
					ItemID: "b", From: "canvas1", To: "canvas2", Layouts: after, Index: -1,
				})
				if err != nil {
					t.Fatal(err)
				}
				return history.MoveItem("transfer", history.MoveChange{
					ItemID: "b", SourceCanvasID: "canvas1", TargetCanvasID: "canvas2",
					Before: before.Layouts, After: after, OriginalIndex: idx,
					BeforeZIndex: before.ZIndex, AfterZIndex: moved.ZIndex,
				})
			},
		},
		{
			name: "update config batch",
			apply: func(t *testing.T, r *registry.Registry) history.Command {
				var changes []history.ConfigChange
				var updates []registry.ItemUpdate
				for _, id := range []string{"a", "b"} {
					it, _, _ := r.Item("canvas1", id)
					next := map[string]any{"text": id + "!", "color": "red"}
					changes = append(changes, history.ConfigChange{CanvasID: "canvas1", ItemID: id, Before: it.Config, After: next})
					updates = append(updates, registry.ItemUpdate{
						Ref:   registry.ItemRef{CanvasID: "canvas1", ItemID: id},
						Patch: registry.ItemPatch{Config: next},
					})
				}
				if _, err := r.UpdateItems(updates); err != nil {
					t.Fatal(err)
				}
				return history.UpdateConfig("config", changes)
			},
		},
		{
			name: "add canvas",
			apply: func(t *testing.T, r *registry.Registry) history.Command {
				c := domain.Canvas{ID: "canvas3"}
				if err := r.AddCanvas(c); err != nil {
					t.Fatal(err)
				}
				return history.AddCanvas("add canvas", c, 2)
			},
		},
		{
			name: "remove canvas",
			apply: func(t *testing.T, r *registry.Registry) history.Command {
				c, idx, err := r.RemoveCanvas("canvas1")
				if err != nil {
					t.Fatal(err)
				}
				return history.RemoveCanvas("remove canvas", c, idx)
			},
		},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := seed(t)
			initial := r.Export(nil)
			em := &events.MockEmitter{}
			s := history.NewStack(r, em, 0)

			s.Push(tt.apply(t, r))
			applied := r.Export(nil)

			if _, err := s.Undo(ctx); err != nil {
				t.Fatalf("Undo: %v", err)
			}
			// counters never move backwards, so compare placement only
			if got := withoutCounters(r.Export(nil)); !reflect.DeepEqual(got, withoutCounters(initial)) {
				t.Errorf("after undo:\n got %+v\nwant %+v", got, initial)
			}

			if _, err := s.Redo(ctx); err != nil {
				t.Fatalf("Redo: %v", err)
			}
			if got := r.Export(nil); !reflect.DeepEqual(got, applied) {
				t.Errorf("after redo:\n got %+v\nwant %+v", got, applied)
			}

			if em.Count(events.UndoExecuted) != 1 || em.Count(events.RedoExecuted) != 1 {
				t.Errorf("events = %v", em.Events)
			}
		})
	}
}

func withoutCounters(snap domain.Snapshot) domain.Snapshot {
	out := snap
	out.Canvases = make(map[string]domain.CanvasSnapshot, len(snap.Canvases))
	for id, c := range snap.Canvases {
		c.ZIndexCounter = 0
		out.Canvases[id] = c
	}
	return out
}

func TestExecute(t *testing.T) {
	r := seed(t)
	s := history.NewStack(r, nil, 0)

	cmd, err := s.Execute(history.AddItems("add", []history.ItemEntry{{Item: newItem("x", "canvas2", 20, 0), Index: -1}}))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if cmd.ID == "" || cmd.CreatedAt.IsZero() {
		t.Errorf("command not stamped: %+v", cmd)
	}
	if _, _, err := r.Item("canvas2", "x"); err != nil {
		t.Errorf("item not added: %v", err)
	}

	// failed apply is not recorded
	if _, err := s.Execute(history.AddItems("dup", []history.ItemEntry{{Item: newItem("x", "canvas2", 0, 0), Index: -1}})); !errors.Is(err, registry.ErrDuplicateItem) {
		t.Fatalf("expected ErrDuplicateItem, got %v", err)
	}
	done, _ := s.Entries()
	if len(done) != 1 {
		t.Errorf("history length = %d, want 1", len(done))
	}
}

func TestPushClearsRedoTail(t *testing.T) {
	r := seed(t)
	s := history.NewStack(r, nil, 0)
	ctx := context.Background()

	s.Execute(history.AddItems("first", []history.ItemEntry{{Item: newItem("x", "canvas1", 20, 0), Index: -1}}))
	if _, err := s.Undo(ctx); err != nil {
		t.Fatal(err)
	}
	if !s.CanRedo() {
		t.Fatal("expected redo to be available")
	}

	s.Execute(history.AddItems("second", []history.ItemEntry{{Item: newItem("y", "canvas1", 20, 0), Index: -1}}))
	if s.CanRedo() {
		t.Error("redo tail survived a new push")
	}
	if _, err := s.Redo(ctx); !errors.Is(err, history.ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestUndoEmptyAndFailure(t *testing.T) {
	r := seed(t)
	s := history.NewStack(r, nil, 0)
	ctx := context.Background()

	if _, err := s.Undo(ctx); !errors.Is(err, history.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}

	// inverse refers to an item that no longer exists
	s.Push(history.AddItems("ghost", []history.ItemEntry{{Item: newItem("ghost", "canvas1", 0, 0), Index: 0}}))
	if _, err := s.Undo(ctx); !errors.Is(err, registry.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if !s.CanUndo() || s.CanRedo() {
		t.Error("failed undo moved the command")
	}
}

// Observers of registry events may read the history while an undo or redo
// is replaying.
func TestObserverQueriesDuringReplay(t *testing.T) {
	bus := events.NewBus()
	r := registry.New(bus)
	if err := r.AddCanvas(domain.Canvas{ID: "canvas1"}); err != nil {
		t.Fatal(err)
	}
	s := history.NewStack(r, bus, 0)

	var seen []bool
	bus.Subscribe(func(_ context.Context, event string, _ any) {
		if event == events.ItemAdded || event == events.ItemDeleted {
			seen = append(seen, s.CanUndo(), s.CanRedo())
			s.Entries()
		}
	})

	ctx := context.Background()
	if _, err := s.Execute(history.AddItems("add", []history.ItemEntry{{Item: newItem("x", "canvas1", 0, 0), Index: -1}})); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		if _, err := s.Undo(ctx); err != nil {
			done <- err
			return
		}
		_, err := s.Redo(ctx)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("undo/redo blocked on an observer reading the history")
	}

	if !s.CanUndo() || s.CanRedo() {
		t.Errorf("after redo: CanUndo=%v CanRedo=%v", s.CanUndo(), s.CanRedo())
	}
	if len(seen) != 6 {
		t.Errorf("observer calls = %d, want 3 events", len(seen)/2)
	}
}

func TestLimitDropsOldest(t *testing.T) {
	r := seed(t)
	s := history.NewStack(r, nil, 2)
	for _, id := range []string{"p", "q", "r"} {
		s.Push(history.AddItems(id, []history.ItemEntry{{Item: newItem(id, "canvas1", 0, 0), Index: -1}}))
	}
	done, _ := s.Entries()
	if len(done) != 2 || done[0].Label != "q" || done[1].Label != "r" {
		t.Errorf("entries = %+v", done)
	}

	s.SetLimit(1)
	done, _ = s.Entries()
	if len(done) != 1 || done[0].Label != "r" {
		t.Errorf("entries after SetLimit = %+v", done)
	}
}

type recordingJournal struct {
	cmds []history.Command
	err  error
}

func (j *recordingJournal) Append(cmd history.Command) error {
	j.cmds = append(j.cmds, cmd)
	return j.err
}

func TestJournal(t *testing.T) {
	r := seed(t)
	s := history.NewStack(r, nil, 0)
	j := &recordingJournal{err: errors.New("disk full")}
	s.SetJournal(j)

	cmd := s.Push(history.MoveItem("m", history.MoveChange{ItemID: "a", SourceCanvasID: "canvas1", TargetCanvasID: "canvas1"}))
	if len(j.cmds) != 1 || j.cmds[0].ID != cmd.ID {
		t.Fatalf("journal = %+v", j.cmds)
	}
	if !s.CanUndo() {
		t.Error("journal error dropped the command")
	}

	raw, err := json.Marshal(j.cmds[0])
	if err != nil {
		t.Fatal(err)
	}
	var back history.Command
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back.Kind != history.KindMoveItem || back.Move == nil || back.Move.ItemID != "a" {
		t.Errorf("journaled command = %+v", back)
	}
}

func TestUnknownKind(t *testing.T) {
	r := seed(t)
	if err := history.Apply(r, history.Command{Kind: "rotate"}); !errors.Is(err, history.ErrUnknownKind) {
		t.Errorf("Apply: expected ErrUnknownKind, got %v", err)
	}
	if err := history.Invert(r, history.Command{Kind: "rotate"}); !errors.Is(err, history.ErrUnknownKind) {
		t.Errorf("Invert: expected ErrUnknownKind, got %v", err)
	}
}
