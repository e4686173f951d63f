package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"gridboard/internal/history"
)

// DefaultJournalLimit bounds the number of journaled commands kept.
const DefaultJournalLimit = 200

// HistoryStore journals executed commands so a session's edits can be
// audited or replayed. It satisfies history.Journal.
type HistoryStore struct {
	db    *DB
	limit int
}

func NewHistoryStore(db *DB, limit int) *HistoryStore {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	return &HistoryStore{db: db, limit: limit}
}

// Append records one command and prunes the oldest entries past the limit.
func (s *HistoryStore) Append(cmd history.Command) error {
	ctx := context.Background()
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	_, err = s.db.exec(ctx,
		`INSERT INTO command_journal (id, kind, label, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		cmd.ID, string(cmd.Kind), cmd.Label, string(payload), cmd.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert command %s: %w", cmd.ID, err)
	}
	s.pruneIfNeeded(ctx)
	return nil
}

// Recent returns up to n journaled commands, oldest first.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]history.Command, error) {
	if n <= 0 {
		n = s.limit
	}
	rows, err := s.db.query(ctx,
		`SELECT payload FROM command_journal ORDER BY created_at DESC, id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	defer rows.Close()

	var out []history.Command
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		var cmd history.Command
		if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
			return nil, fmt.Errorf("decode command: %w", err)
		}
		out = append(out, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Clear removes every journaled command.
func (s *HistoryStore) Clear(ctx context.Context) error {
	_, err := s.db.exec(ctx, `DELETE FROM command_journal`)
	return err
}

// pruneIfNeeded removes the oldest entries when the count exceeds the limit.
func (s *HistoryStore) pruneIfNeeded(ctx context.Context) {
	var count int
	if err := s.db.queryRow(ctx, `SELECT COUNT(*) FROM command_journal`).Scan(&count); err != nil {
		log.Printf("journal: count: %v", err)
		return
	}
	if count <= s.limit {
		return
	}

	// Collect ids first so no cursor is open while deleting
	rows, err := s.db.query(ctx,
		`SELECT id FROM command_journal ORDER BY created_at ASC, id ASC LIMIT ?`, count-s.limit,
	)
	if err != nil {
		log.Printf("journal: select oldest: %v", err)
		return
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := s.db.exec(ctx, `DELETE FROM command_journal WHERE id = ?`, id); err != nil {
			log.Printf("journal: prune %s: %v", id, err)
		}
	}
}
