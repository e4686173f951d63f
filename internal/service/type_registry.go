package service

import (
	"fmt"
	"sort"
	"sync"

	"gridboard/internal/domain"
	"gridboard/internal/grid"
	"gridboard/internal/interact"
)

// ─────────────────────────────────────────────────────────────
// Type Registry — per-component-type sizing and defaults
// ─────────────────────────────────────────────────────────────

// ItemType describes a component type. Zero sizes fall back to the
// registry defaults; a zero max is unbounded.
type ItemType struct {
	Name          string
	DefaultWidth  int
	DefaultHeight int
	Limits        interact.SizeLimits
	DefaultConfig map[string]any
}

// TypeRegistry resolves sizing for component types. Unknown types use the
// fallback minimums.
type TypeRegistry struct {
	mu        sync.RWMutex
	types     map[string]ItemType
	minWidth  int
	minHeight int
}

// NewTypeRegistry creates an empty registry with the given fallback minimums.
func NewTypeRegistry(minWidth, minHeight int) *TypeRegistry {
	if minWidth <= 0 {
		minWidth = grid.DefaultMinWidthUnits
	}
	if minHeight <= 0 {
		minHeight = grid.DefaultMinHeightUnits
	}
	return &TypeRegistry{types: make(map[string]ItemType), minWidth: minWidth, minHeight: minHeight}
}

// Register adds a type. Panics on duplicate registration.
func (r *TypeRegistry) Register(t ItemType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[t.Name]; exists {
		panic(fmt.Sprintf("type registry: duplicate registration for item type %q", t.Name))
	}
	t.DefaultConfig = domain.CloneConfig(t.DefaultConfig)
	r.types[t.Name] = t
}

// Lookup returns a registered type.
func (r *TypeRegistry) Lookup(name string) (ItemType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if ok {
		t.DefaultConfig = domain.CloneConfig(t.DefaultConfig)
	}
	return t, ok
}

// Limits implements interact.SizeSource. Missing minimums are filled from
// the fallbacks.
func (r *TypeRegistry) Limits(name string) interact.SizeLimits {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l := r.types[name].Limits
	if l.MinWidth <= 0 {
		l.MinWidth = r.minWidth
	}
	if l.MinHeight <= 0 {
		l.MinHeight = r.minHeight
	}
	return l
}

// DefaultSize returns the size a new item of this type gets when the caller
// does not give one. It is never below the type minimum.
func (r *TypeRegistry) DefaultSize(name string) (w, h int) {
	l := r.Limits(name)
	r.mu.RLock()
	t := r.types[name]
	r.mu.RUnlock()
	w, h = t.DefaultWidth, t.DefaultHeight
	if w < l.MinWidth {
		w = l.MinWidth
	}
	if h < l.MinHeight {
		h = l.MinHeight
	}
	return w, h
}

// SetFallbackMinimums changes the minimums used for unknown types.
func (r *TypeRegistry) SetFallbackMinimums(minWidth, minHeight int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if minWidth > 0 {
		r.minWidth = minWidth
	}
	if minHeight > 0 {
		r.minHeight = minHeight
	}
}

// ForEach iterates registered types in name order.
func (r *TypeRegistry) ForEach(fn func(ItemType)) {
	for _, name := range r.Names() {
		if t, ok := r.Lookup(name); ok {
			fn(t)
		}
	}
}

// Names returns the registered type names, sorted.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
