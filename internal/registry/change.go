package registry

import "sync"

// ChangeKind names the mutation that produced a Change.
type ChangeKind string

const (
	ChangeItemsAdded    ChangeKind = "items-added"
	ChangeItemsRemoved  ChangeKind = "items-removed"
	ChangeItemsUpdated  ChangeKind = "items-updated"
	ChangeItemMoved     ChangeKind = "item-moved-canvas"
	ChangeCanvasAdded   ChangeKind = "canvas-added"
	ChangeCanvasRemoved ChangeKind = "canvas-removed"
	ChangeSelection     ChangeKind = "selection"
	ChangeActiveCanvas  ChangeKind = "active-canvas"
	ChangeViewport      ChangeKind = "viewport"
	ChangeReplaced      ChangeKind = "replaced"
)

// Change describes one applied mutation.
type Change struct {
	Kind      ChangeKind
	CanvasIDs []string
	ItemIDs   []string
	Version   uint64
}

// Listener observes registry changes. It runs after the registry lock is
// released and may read from the registry.
type Listener func(Change)

type listenerSet struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]Listener
	order  []int
}

func (s *listenerSet) add(l Listener) func() {
	s.mu.Lock()
	if s.byID == nil {
		s.byID = make(map[int]Listener)
	}
	id := s.nextID
	s.nextID++
	s.byID[id] = l
	s.order = append(s.order, id)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.byID, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				return
			}
		}
	}
}

func (s *listenerSet) notify(c Change) {
	s.mu.Lock()
	ls := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		ls = append(ls, s.byID[id])
	}
	s.mu.Unlock()
	for _, l := range ls {
		l(c)
	}
}
