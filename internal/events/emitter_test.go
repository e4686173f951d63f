package events_test

import (
	"context"
	"testing"

	"gridboard/internal/events"
)

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &events.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, events.ItemAdded, events.ItemsPayload{CanvasID: "c1", ItemIDs: []string{"a"}})
	m.Emit(ctx, events.ItemMoved, nil)
	m.Emit(ctx, events.ItemAdded, nil)

	if len(m.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(m.Events))
	}
	if m.Count(events.ItemAdded) != 2 {
		t.Errorf("expected 2 %s events, got %d", events.ItemAdded, m.Count(events.ItemAdded))
	}
	last, ok := m.Last(events.ItemAdded)
	if !ok || last.Data != nil {
		t.Errorf("expected last item:added with nil payload, got %+v", last)
	}
}

func TestBus_FanOutAndUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	ctx := context.Background()

	var a, b []string
	unsubA := bus.Subscribe(func(_ context.Context, ev string, _ any) { a = append(a, ev) })
	bus.Subscribe(func(_ context.Context, ev string, _ any) { b = append(b, ev) })

	bus.Emit(ctx, events.UndoExecuted, nil)
	unsubA()
	bus.Emit(ctx, events.RedoExecuted, nil)

	if len(a) != 1 || a[0] != events.UndoExecuted {
		t.Errorf("subscriber a got %v, want [%s]", a, events.UndoExecuted)
	}
	if len(b) != 2 {
		t.Errorf("subscriber b got %v, want 2 events", b)
	}
}
