package service

import (
	"context"
	"errors"

	"gridboard/internal/domain"
)

// ErrDeletionRejected is returned when the deletion hook refuses or fails.
var ErrDeletionRejected = errors.New("deletion rejected")

// DeletionRequest is what the deletion hook is asked about.
type DeletionRequest struct {
	Item     domain.GridItem `json:"item"`
	CanvasID string          `json:"canvasId"`
	ItemID   string          `json:"itemId"`
}

// DeletionHook is consulted before every item removal. It may block (for
// example on a human approval). Returning false or an error aborts the
// deletion with no state change.
type DeletionHook func(ctx context.Context, req DeletionRequest) (bool, error)
