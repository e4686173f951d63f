package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gridboard/internal/domain"
)

// ErrSnapshotNotFound is returned when no snapshot is stored under a name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SnapshotStore persists exported registry states by name.
type SnapshotStore struct {
	db *DB
}

func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Save stores snap under name, replacing any previous snapshot.
func (s *SnapshotStore) Save(ctx context.Context, name string, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	err = s.db.upsert(ctx, "snapshots", "name", name,
		[]string{"name", "version", "data", "updated_at"},
		[]any{name, snap.Version, string(data), time.Now().UnixNano()},
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return nil
}

// Load returns the snapshot stored under name.
func (s *SnapshotStore) Load(ctx context.Context, name string) (domain.Snapshot, error) {
	var data string
	err := s.db.queryRow(ctx, `SELECT data FROM snapshots WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, fmt.Errorf("load snapshot %s: %w", name, ErrSnapshotNotFound)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return snap, nil
}

// List returns every stored snapshot, most recently updated first.
func (s *SnapshotStore) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.query(ctx, `SELECT name, version, updated_at FROM snapshots ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var (
			info SnapshotInfo
			ts   int64
		)
		if err := rows.Scan(&info.Name, &info.Version, &ts); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		info.UpdatedAt = time.Unix(0, ts)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a snapshot. Deleting a missing snapshot is not an error.
func (s *SnapshotStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.exec(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	return nil
}
