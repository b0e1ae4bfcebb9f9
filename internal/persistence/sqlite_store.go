package persistence

import (
	"database/sql"
	"errors"
	"time"

	"github.com/stepform/stepform/pkg/api"
)

// SQLiteStore is a SnapshotStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ SnapshotStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database
// and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS autosave_snapshots (
			form_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			last_updated TEXT NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) Save(formID string, snap *api.Snapshot) error {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO autosave_snapshots (form_id, payload, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(form_id) DO UPDATE SET
			payload = excluded.payload,
			last_updated = excluded.last_updated`,
		formID,
		payload,
		snap.LastUpdated.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) Load(formID string) (*api.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRow(`
		SELECT payload FROM autosave_snapshots WHERE form_id = ?`,
		formID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(payload)
}

func (s *SQLiteStore) Delete(formID string) error {
	_, err := s.db.Exec(`
		DELETE FROM autosave_snapshots WHERE form_id = ?`,
		formID,
	)
	return err
}
