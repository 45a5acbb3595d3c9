// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: display/history_store.go
// Summary: SQLite-backed snapshot store for scrollback history.
// Usage: Optional session persistence; the core pipeline itself holds no
// persisted state.

package display

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// snapshotCellSize is the on-disk size of one encoded cell:
// rune(4) + attr(4), little endian.
const snapshotCellSize = 8

const historySchema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_lines (
	idx   INTEGER PRIMARY KEY,
	cells BLOB NOT NULL
);
`

// HistoryStore persists scrollback snapshots to a SQLite database so a
// session can restore its history on restart. Save replaces the previous
// snapshot atomically within one transaction.
type HistoryStore struct {
	db   *sql.DB
	path string
}

// OpenHistoryStore opens (creating if needed) the snapshot database at
// the given path.
func OpenHistoryStore(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &HistoryStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (h *HistoryStore) Path() string {
	return h.path
}

// Save replaces the stored snapshot with the buffer's current lines.
func (h *HistoryStore) Save(buf *ScrollbackBuffer) error {
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM snapshot_lines"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO snapshot_lines (idx, cells) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < buf.Len(); i++ {
		line, err := buf.Get(i)
		if err != nil {
			return fmt.Errorf("failed to read line %d: %w", i, err)
		}
		if _, err := stmt.Exec(i, encodeCells(line.Cells)); err != nil {
			return fmt.Errorf("failed to insert line %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO snapshot_meta (key, value) VALUES ('origin', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		buf.Origin()); err != nil {
		return fmt.Errorf("failed to record origin: %w", err)
	}

	return tx.Commit()
}

// Load restores a snapshot into a fresh buffer of the given capacity.
// Lines beyond the capacity are dropped from the oldest end, matching
// buffer eviction order.
func (h *HistoryStore) Load(maxLines int) (*ScrollbackBuffer, error) {
	buf := NewScrollbackBuffer(maxLines)

	rows, err := h.db.Query("SELECT cells FROM snapshot_lines ORDER BY idx")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		cells, err := decodeCells(blob)
		if err != nil {
			return nil, err
		}
		buf.Push(&Line{Cells: cells})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot: %w", err)
	}
	return buf, nil
}

// LineCount returns the number of stored snapshot lines.
func (h *HistoryStore) LineCount() (int, error) {
	var n int
	err := h.db.QueryRow("SELECT COUNT(*) FROM snapshot_lines").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count lines: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}

// encodeCells packs cells into the snapshot blob format.
func encodeCells(cells []Cell) []byte {
	out := make([]byte, 4+len(cells)*snapshotCellSize)
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(cells)))
	off := 4
	for _, c := range cells {
		binary.LittleEndian.PutUint32(out[off:], uint32(c.Rune))
		binary.LittleEndian.PutUint32(out[off+4:], uint32(c.Attr))
		off += snapshotCellSize
	}
	return out
}

// decodeCells unpacks a snapshot blob.
func decodeCells(blob []byte) ([]Cell, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("snapshot blob too short: %d bytes", len(blob))
	}
	n := int(binary.LittleEndian.Uint32(blob[0:4]))
	if len(blob) < 4+n*snapshotCellSize {
		return nil, fmt.Errorf("snapshot blob truncated: want %d cells, have %d bytes", n, len(blob)-4)
	}

	cells := make([]Cell, n)
	off := 4
	for i := range cells {
		cells[i].Rune = rune(binary.LittleEndian.Uint32(blob[off:]))
		cells[i].Attr = AttrWord(binary.LittleEndian.Uint32(blob[off+4:]))
		off += snapshotCellSize
	}
	return cells, nil
}
