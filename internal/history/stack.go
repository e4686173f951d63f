package history

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"gridboard/internal/events"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultLimit bounds the number of undoable commands kept in memory.
const DefaultLimit = 100

// Journal records pushed commands outside the process. Failures are logged
// and never block the in-memory history.
type Journal interface {
	Append(cmd Command) error
}

// ─────────────────────────────────────────────────────────────
// Stack — linear undo/redo history
// ─────────────────────────────────────────────────────────────

// Stack keeps applied commands and the redo tail. Pushing after an undo
// discards the tail; there is no branching.
type Stack struct {
	mu      sync.Mutex
	target  Target
	emitter events.Emitter
	journal Journal
	limit   int
	done    []Command
	undone  []Command
}

// NewStack creates a history replaying against target. limit <= 0 uses
// DefaultLimit; emitter may be nil.
func NewStack(target Target, emitter events.Emitter, limit int) *Stack {
	if emitter == nil {
		emitter = events.Nop{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Stack{target: target, emitter: emitter, limit: limit}
}

// SetJournal attaches a journal. Passing nil detaches it.
func (s *Stack) SetJournal(j Journal) {
	s.mu.Lock()
	s.journal = j
	s.mu.Unlock()
}

// SetLimit changes the history bound, trimming the oldest entries if needed.
func (s *Stack) SetLimit(limit int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s.mu.Lock()
	s.limit = limit
	s.trim()
	s.mu.Unlock()
}

// Push records a command whose effect has already been applied. It assigns
// an ID and timestamp when missing and clears the redo tail.
func (s *Stack) Push(cmd Command) Command {
	if cmd.ID == "" {
		cmd.ID = uuid.New().String()
	}
	if cmd.CreatedAt.IsZero() {
		cmd.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.done = append(s.done, cmd)
	s.undone = nil
	s.trim()
	j := s.journal
	s.mu.Unlock()

	if j != nil {
		if err := j.Append(cmd); err != nil {
			log.Printf("history: journal %s: %v", cmd.ID, err)
		}
	}
	return cmd
}

// Execute applies cmd and pushes it. Nothing is pushed if apply fails.
func (s *Stack) Execute(cmd Command) (Command, error) {
	if err := Apply(s.target, cmd); err != nil {
		return cmd, fmt.Errorf("execute %s: %w", cmd.Kind, err)
	}
	return s.Push(cmd), nil
}

// Undo reverses the most recent command and moves it to the redo tail. A
// command whose inverse fails stays where it was. The stack lock is not
// held while the target runs, so observers notified by the target may
// query the stack. Callers serialize Undo, Redo and Push.
func (s *Stack) Undo(ctx context.Context) (Command, error) {
	s.mu.Lock()
	if len(s.done) == 0 {
		s.mu.Unlock()
		return Command{}, ErrNothingToUndo
	}
	cmd := s.done[len(s.done)-1]
	s.done = s.done[:len(s.done)-1]
	s.mu.Unlock()

	if err := Invert(s.target, cmd); err != nil {
		s.mu.Lock()
		s.done = append(s.done, cmd)
		s.mu.Unlock()
		return cmd, fmt.Errorf("undo %s %s: %w", cmd.Kind, cmd.ID, err)
	}

	s.mu.Lock()
	s.undone = append(s.undone, cmd)
	s.mu.Unlock()

	s.emitter.Emit(ctx, events.UndoExecuted, payload(cmd))
	return cmd, nil
}

// Redo reapplies the most recently undone command.
func (s *Stack) Redo(ctx context.Context) (Command, error) {
	s.mu.Lock()
	if len(s.undone) == 0 {
		s.mu.Unlock()
		return Command{}, ErrNothingToRedo
	}
	cmd := s.undone[len(s.undone)-1]
	s.undone = s.undone[:len(s.undone)-1]
	s.mu.Unlock()

	if err := Apply(s.target, cmd); err != nil {
		s.mu.Lock()
		s.undone = append(s.undone, cmd)
		s.mu.Unlock()
		return cmd, fmt.Errorf("redo %s %s: %w", cmd.Kind, cmd.ID, err)
	}

	s.mu.Lock()
	s.done = append(s.done, cmd)
	s.trim()
	s.mu.Unlock()

	s.emitter.Emit(ctx, events.RedoExecuted, payload(cmd))
	return cmd, nil
}

func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.done) > 0
}

func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undone) > 0
}

// Clear drops all history, e.g. after a bulk import.
func (s *Stack) Clear() {
	s.mu.Lock()
	s.done, s.undone = nil, nil
	s.mu.Unlock()
}

// Entries returns copies of the applied commands (oldest first) and the
// redo tail (next redo last).
func (s *Stack) Entries() (done, undone []Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Command(nil), s.done...), append([]Command(nil), s.undone...)
}

// trim must be called with s.mu held.
func (s *Stack) trim() {
	if over := len(s.done) - s.limit; over > 0 {
		s.done = append([]Command(nil), s.done[over:]...)
	}
}

func payload(cmd Command) events.HistoryPayload {
	return events.HistoryPayload{CommandID: cmd.ID, Kind: string(cmd.Kind), Label: cmd.Label}
}
