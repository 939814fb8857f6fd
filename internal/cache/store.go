package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/oarkflow/log"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/xirelogy/go-mumei/internal/bytecode"
)

// Store persists compiled bytecode in SQLite, keyed by source hash.
// Writers from different processes serialize on a lock file next to the
// database.
type Store struct {
	db     *sql.DB
	lock   *flock.Flock
	path   string
	logger *log.Logger
}

// OpenStore opens (creating if needed) the store at path.
func OpenStore(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create store directory")
	}
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	db.SetConnMaxLifetime(time.Minute * 5)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, lock: flock.New(path + ".lock"), path: path, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().Str("path", path).Msg("bytecode store opened")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bytecode (
			hash TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			created_at DATETIME NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "run migration")
		}
	}
	return nil
}

func hashKey(key uint64) string {
	return fmt.Sprintf("%016x", key)
}

// Load returns the bytecode stored under key. A payload that no longer
// decodes is reported as an error.
func (s *Store) Load(key uint64) (*bytecode.ByteCode, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(context.Background(),
		`SELECT payload FROM bytecode WHERE hash = ?`, hashKey(key)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load bytecode %s", hashKey(key))
	}
	bc, err := bytecode.Unmarshal(payload)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decode bytecode %s", hashKey(key))
	}
	return bc, true, nil
}

// Save writes bc under key, replacing any previous payload.
func (s *Store) Save(key uint64, bc *bytecode.ByteCode) error {
	payload, err := bytecode.Marshal(bc)
	if err != nil {
		return errors.Wrap(err, "encode bytecode")
	}
	if err := s.lock.Lock(); err != nil {
		return errors.Wrap(err, "lock store")
	}
	defer s.lock.Unlock()
	_, err = s.db.ExecContext(context.Background(),
		`INSERT INTO bytecode (hash, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		hashKey(key), payload, time.Now().UTC())
	return errors.Wrapf(err, "save bytecode %s", hashKey(key))
}

// Count reports the number of stored programs.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM bytecode`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count bytecode")
	}
	return n, nil
}

// Purge deletes every stored program.
func (s *Store) Purge() error {
	if err := s.lock.Lock(); err != nil {
		return errors.Wrap(err, "lock store")
	}
	defer s.lock.Unlock()
	_, err := s.db.ExecContext(context.Background(), `DELETE FROM bytecode`)
	return errors.Wrap(err, "purge bytecode")
}

// Close releases all database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
