package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"gridboard/internal/domain"
	"gridboard/internal/events"
	"gridboard/internal/grid"
	"gridboard/internal/service"
)

func newTestServer(t *testing.T) (*Server, *events.MockEmitter) {
	t.Helper()
	em := &events.MockEmitter{}
	svc := service.NewCanvasService(em, service.Options{Grid: grid.DefaultOptions()})
	ctx := context.Background()
	for _, id := range []string{"main", "side"} {
		if _, err := svc.AddCanvas(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.SetActiveCanvas(ctx, "main"); err != nil {
		t.Fatal(err)
	}
	svc.History().Clear()
	s := New(Deps{Emitter: em, Canvas: svc})
	s.approval.SetTimeout(2 * time.Second)
	em.Reset()
	return s, em
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]any) string {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return resultText(t, res)
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// awaitApproval waits for the next approval request and returns its id.
func awaitApproval(t *testing.T, em *events.MockEmitter) string {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if ev, ok := em.Last(EventApprovalRequired); ok {
			return ev.Data.(PendingAction).ID
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no approval request emitted")
	return ""
}

func TestAddAndListItems(t *testing.T) {
	s, em := newTestServer(t)

	out := call(t, s.handleAddItem, "add_item", map[string]any{
		"type": "chart", "name": "Revenue", "width": float64(10), "height": float64(6),
		"config": `{"series":"monthly"}`,
	})
	var added itemSummary
	if err := json.Unmarshal([]byte(out), &added); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if added.CanvasID != "main" || added.X != 0 || added.Y != 0 || added.Width != 10 {
		t.Errorf("added = %+v", added)
	}
	if added.Config["series"] != "monthly" {
		t.Errorf("config = %v", added.Config)
	}

	call(t, s.handleAddItem, "add_item", map[string]any{"type": "note", "name": "Todo", "width": float64(10), "height": float64(6)})

	var list []itemSummary
	out = call(t, s.handleListItems, "list_items", map[string]any{"type": "note"})
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "Todo" || list[0].X != 10 {
		t.Errorf("filtered list = %+v", list)
	}
	if em.Count(EventCanvasChanged) != 2 {
		t.Errorf("canvas-changed = %d, want 2", em.Count(EventCanvasChanged))
	}
}

func TestAddItem_RequiresType(t *testing.T) {
	s, _ := newTestServer(t)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"name": "x"}
	if _, err := s.handleAddItem(context.Background(), req); err == nil {
		t.Fatal("expected error without type")
	}
}

func TestMoveResizeAndUndo(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	x, y := 0, 0
	it, err := s.canvas.AddItem(ctx, service.NewItem{ID: "a", CanvasID: "main", Type: "card", X: &x, Y: &y, Width: 5, Height: 4})
	if err != nil {
		t.Fatal(err)
	}

	call(t, s.handleMoveItem, "move_item", map[string]any{"itemId": it.ID, "x": float64(12), "y": float64(3)})
	call(t, s.handleResizeItem, "resize_item", map[string]any{"itemId": it.ID, "width": float64(8), "height": float64(5)})

	got, _, _ := s.canvas.Registry().FindItem("a")
	if l := got.Layouts.Desktop; l.X != 12 || l.Y != 3 || l.Width != 8 || l.Height != 5 {
		t.Errorf("layout = %+v", l)
	}

	if out := call(t, s.handleUndo, "undo", nil); !strings.HasPrefix(out, "Undid") {
		t.Errorf("undo = %q", out)
	}
	got, _, _ = s.canvas.Registry().FindItem("a")
	if l := got.Layouts.Desktop; l.Width != 5 || l.X != 12 {
		t.Errorf("after undo layout = %+v", l)
	}
	call(t, s.handleUndo, "undo", nil)
	call(t, s.handleUndo, "undo", nil)
	if out := call(t, s.handleUndo, "undo", nil); out != "Nothing to undo" {
		t.Errorf("empty undo = %q", out)
	}
}

func TestMoveItemToCanvasTool(t *testing.T) {
	s, em := newTestServer(t)
	ctx := context.Background()
	x, y := 0, 0
	if _, err := s.canvas.AddItem(ctx, service.NewItem{ID: "a", CanvasID: "main", Type: "card", X: &x, Y: &y, Width: 5, Height: 4}); err != nil {
		t.Fatal(err)
	}
	em.Reset()

	out := call(t, s.handleMoveItemToCanvas, "move_item_to_canvas", map[string]any{
		"itemId": "a", "targetCanvasId": "side", "x": float64(4), "y": float64(2),
	})
	var moved itemSummary
	if err := json.Unmarshal([]byte(out), &moved); err != nil {
		t.Fatal(err)
	}
	if moved.CanvasID != "side" || moved.X != 4 || moved.Y != 2 {
		t.Errorf("moved = %+v", moved)
	}
	if em.Count(EventCanvasChanged) != 2 {
		t.Errorf("canvas-changed = %d, want 2", em.Count(EventCanvasChanged))
	}
}

func TestUpdateItemConfigTool(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	if _, err := s.canvas.AddItem(ctx, service.NewItem{ID: "a", CanvasID: "main", Type: "card", Config: map[string]any{"color": "red", "size": "l"}}); err != nil {
		t.Fatal(err)
	}
	call(t, s.handleUpdateItemConfig, "update_item_config", map[string]any{"itemId": "a", "config": `{"color":"blue","size":null}`})

	got, _, _ := s.canvas.Registry().FindItem("a")
	if got.Config["color"] != "blue" {
		t.Errorf("color = %v", got.Config["color"])
	}
	if _, ok := got.Config["size"]; ok {
		t.Errorf("size should be removed: %v", got.Config)
	}
}

func TestDeleteItem_Approval(t *testing.T) {
	tests := []struct {
		name    string
		approve bool
		want    string
		remain  bool
	}{
		{"approved", true, "Deleted 1 item(s)", false},
		{"rejected", false, "Action rejected by user", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, em := newTestServer(t)
			if _, err := s.canvas.AddItem(context.Background(), service.NewItem{ID: "a", CanvasID: "main", Type: "card"}); err != nil {
				t.Fatal(err)
			}
			em.Reset()

			done := make(chan string, 1)
			go func() {
				req := mcp.CallToolRequest{}
				req.Params.Arguments = map[string]any{"itemIds": "a"}
				res, err := s.handleDeleteItem(context.Background(), req)
				if err != nil {
					done <- "error: " + err.Error()
					return
				}
				done <- res.Content[0].(mcp.TextContent).Text
			}()

			id := awaitApproval(t, em)
			if tt.approve {
				s.Approve(id)
			} else {
				s.Reject(id)
			}

			select {
			case out := <-done:
				if out != tt.want {
					t.Errorf("result = %q, want %q", out, tt.want)
				}
			case <-time.After(3 * time.Second):
				t.Fatal("delete_item did not return")
			}
			_, _, err := s.canvas.Registry().FindItem("a")
			if (err == nil) != tt.remain {
				t.Errorf("item remains = %v, want %v", err == nil, tt.remain)
			}
		})
	}
}

func TestDeletionHook_NonAgentPassesThrough(t *testing.T) {
	s, em := newTestServer(t)
	ctx := context.Background()
	if _, err := s.canvas.AddItem(ctx, service.NewItem{ID: "a", CanvasID: "main", Type: "card"}); err != nil {
		t.Fatal(err)
	}
	em.Reset()

	if err := s.canvas.DeleteItem(ctx, "main", "a"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if em.Count(EventApprovalRequired) != 0 {
		t.Error("user deletions must not ask for approval")
	}
}

func TestApprovalQueue_Timeout(t *testing.T) {
	em := &events.MockEmitter{}
	q := NewApprovalQueue(em)
	q.SetTimeout(20 * time.Millisecond)

	ok, err := q.Request(context.Background(), "remove_canvas", "Remove canvas x")
	if ok || err == nil {
		t.Fatalf("Request = %v, %v; want timeout", ok, err)
	}
	if em.Count(EventApprovalDismissed) != 1 {
		t.Errorf("dismissed = %d, want 1", em.Count(EventApprovalDismissed))
	}
}

func TestApprovalQueue_ContextCancel(t *testing.T) {
	q := NewApprovalQueue(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if ok, err := q.Request(ctx, "import_state", "Import"); ok || err == nil {
		t.Fatalf("Request = %v, %v; want cancellation", ok, err)
	}
}

func TestCanvasTools(t *testing.T) {
	s, _ := newTestServer(t)

	if out := call(t, s.handleAddCanvas, "add_canvas", map[string]any{"canvasId": "extra"}); out != "Canvas extra created" {
		t.Errorf("add_canvas = %q", out)
	}
	var list []canvasSummary
	if err := json.Unmarshal([]byte(call(t, s.handleListCanvases, "list_canvases", nil)), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[2].ID != "extra" || !list[0].Active {
		t.Errorf("canvases = %+v", list)
	}

	out := call(t, s.handleExportState, "export_state", nil)
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Version != domain.SnapshotVersion || len(snap.Canvases) != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestExtractCanvasIDFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"gridboard://canvas/main/items", "main"},
		{"gridboard://canvas/a-b-c/items", "a-b-c"},
		{"gridboard://canvas//items", ""},
		{"gridboard://canvas/main", ""},
		{"notes://page/x/blocks", ""},
	}
	for _, tt := range tests {
		if got := extractCanvasIDFromURI(tt.uri); got != tt.want {
			t.Errorf("extractCanvasIDFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestSplitIDs(t *testing.T) {
	got := splitIDs(" a, b ,,c ")
	if strings.Join(got, "|") != "a|b|c" {
		t.Errorf("splitIDs = %v", got)
	}
}
