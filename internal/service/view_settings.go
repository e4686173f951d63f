package service

import (
	"context"
	"log"

	"gridboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// View Settings Persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the active viewport and canvas between sessions as
// key-value rows in app_settings.

// SettingsStore is a small persistent key/value store.
type SettingsStore interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string) error
}

const (
	settingViewport     = "viewport"
	settingActiveCanvas = "active_canvas"
)

// SetSettingsStore attaches the store used to persist view state.
func (s *CanvasService) SetSettingsStore(st SettingsStore) {
	s.mu.Lock()
	s.settings = st
	s.mu.Unlock()
}

// RestoreView applies the saved viewport and active canvas, ignoring values
// that no longer apply.
func (s *CanvasService) RestoreView(ctx context.Context) {
	s.mu.Lock()
	st := s.settings
	s.mu.Unlock()
	if st == nil {
		return
	}

	if v, ok, err := st.Get(ctx, settingViewport); err != nil {
		log.Printf("view settings: load viewport: %v", err)
	} else if ok && domain.Viewport(v).Valid() {
		if err := s.reg.SetViewport(domain.Viewport(v)); err == nil {
			s.coords.InvalidateAll()
		}
	}

	if id, ok, err := st.Get(ctx, settingActiveCanvas); err != nil {
		log.Printf("view settings: load active canvas: %v", err)
	} else if ok && id != "" {
		if err := s.reg.SetActiveCanvas(id); err != nil {
			log.Printf("view settings: active canvas %s: %v", id, err)
		}
	}
}

func (s *CanvasService) persistView(ctx context.Context) {
	s.mu.Lock()
	st := s.settings
	s.mu.Unlock()
	if st == nil {
		return
	}
	if err := st.Set(ctx, settingViewport, string(s.reg.Viewport())); err != nil {
		log.Printf("view settings: save viewport: %v", err)
	}
	if err := st.Set(ctx, settingActiveCanvas, s.reg.ActiveCanvas()); err != nil {
		log.Printf("view settings: save active canvas: %v", err)
	}
}
