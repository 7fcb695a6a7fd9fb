package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/lab-occupancy/internal/model"
)

// SQLStore keeps the snapshot as a JSON document in a single-row MySQL
// table.  The document model stays identical to the file backend; MySQL
// only adds durability across hosts.  Row id is always 1 and the upsert
// replaces the whole document, which gives Save the required atomicity.
type SQLStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQL connects to MySQL, verifies the connection and ensures the
// snapshots table exists.
func OpenSQL(user, pass, host, port, name string) (*SQLStore, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	const ddl = `CREATE TABLE IF NOT EXISTS snapshots (
	    id         TINYINT UNSIGNED NOT NULL PRIMARY KEY,
	    document   LONGTEXT NOT NULL,
	    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Load reads the snapshot row.  A missing row or a document that fails
// validation is replaced with the default layout and persisted.
func (s *SQLStore) Load(ctx context.Context) (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const q = `SELECT document FROM snapshots WHERE id = 1`
	var raw string
	err := s.db.QueryRowContext(ctx, q).Scan(&raw)
	if err == nil {
		var snap model.Snapshot
		if jsonErr := json.Unmarshal([]byte(raw), &snap); jsonErr == nil {
			if valErr := snap.Validate(); valErr == nil {
				return &snap, nil
			}
		}
		// corrupt document: fall through and reinitialize
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	snap := model.DefaultSnapshot(now())
	if err := s.write(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Save atomically replaces the snapshot row.
func (s *SQLStore) Save(ctx context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, snap)
}

// Clear deletes the snapshot row; the next Load reinitializes defaults.
func (s *SQLStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = 1`)
	return err
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) write(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	const q = `INSERT INTO snapshots (id, document) VALUES (1, ?)
	           ON DUPLICATE KEY UPDATE document = VALUES(document)`
	_, err = s.db.ExecContext(ctx, q, string(data))
	return err
}
