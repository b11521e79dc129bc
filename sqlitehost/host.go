package sqlitehost

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jpl-au/linkstore"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// Host stores regions as rows in a SQLite database.
type Host struct {
	db  *sql.DB
	log *zap.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(h *Host) {
		h.log = log
	}
}

// Open creates or opens a SQLite database at the given path and applies
// the schema. Use ":memory:" for a private in-memory database.
func Open(path string, opts ...Option) (*Host, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, and a single connection
	// keeps an in-memory database alive for the lifetime of the Host.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	h := &Host{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.Named("sqlitehost")
	return h, nil
}

// uriPath escapes the characters that end or alter the path part of a
// SQLite file URI. SQLite decodes %XX escapes when it opens the file.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// dsn builds the connection string for path. _txlock=immediate makes
// every Begin issue BEGIN IMMEDIATE.
func dsn(path string) string {
	return "file:" + uriPath.Replace(path) + "?_txlock=immediate"
}

// Close closes the database connection.
func (h *Host) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Create implements linkstore.Host.
func (h *Host) Create(location string, owner linkstore.SubmitterID, size int, init func([]byte) error) error {
	if !linkstore.ValidLocation(location) {
		return fmt.Errorf("%w: %q", linkstore.ErrInvalidLocation, location)
	}
	if size <= 0 || size > linkstore.RegionCeiling {
		return fmt.Errorf("%w: %d bytes", linkstore.ErrRegionSize, size)
	}

	return h.tx(func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow(`SELECT 1 FROM regions WHERE location = ?`, location).Scan(&exists)
		if err == nil {
			return linkstore.ErrRegionExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("create: lookup: %w", err)
		}

		data := make([]byte, size)
		if init != nil {
			if err := init(data); err != nil {
				return err
			}
		}

		ts := time.Now().UnixMilli()
		_, err = tx.Exec(`
			INSERT INTO regions (location, owner, size, data, checksum, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			location, owner[:], size, data, int64(linkstore.Checksum(data)), ts, ts)
		if isConstraint(err) {
			return linkstore.ErrRegionExists
		}
		if err != nil {
			return fmt.Errorf("create: insert: %w", err)
		}
		h.log.Debug("region created", zap.String("location", location), zap.Int("size", size))
		return nil
	})
}

// Mutate implements linkstore.Host.
func (h *Host) Mutate(location string, fn func([]byte) error) error {
	return h.tx(func(tx *sql.Tx) error {
		data, err := read(tx, location)
		if err != nil {
			return err
		}
		size := len(data)
		if err := fn(data); err != nil {
			return err
		}
		if len(data) != size {
			return fmt.Errorf("%w: callback resized region", linkstore.ErrRegionSize)
		}

		_, err = tx.Exec(`
			UPDATE regions SET data = ?, checksum = ?, updated_at = ?
			WHERE location = ?`,
			data, int64(linkstore.Checksum(data)), time.Now().UnixMilli(), location)
		if err != nil {
			return fmt.Errorf("mutate: update: %w", err)
		}
		h.log.Debug("region committed", zap.String("location", location))
		return nil
	})
}

// View implements linkstore.Host.
func (h *Host) View(location string, fn func([]byte) error) error {
	data, err := read(h.db, location)
	if err != nil {
		return err
	}
	return fn(data)
}

// Owner implements linkstore.Host.
func (h *Host) Owner(location string) (linkstore.SubmitterID, error) {
	var id linkstore.SubmitterID
	var owner []byte
	err := h.db.QueryRow(`SELECT owner FROM regions WHERE location = ?`, location).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return id, linkstore.ErrRegionNotFound
	}
	if err != nil {
		return id, fmt.Errorf("owner: %w", err)
	}
	if len(owner) != len(id) {
		return id, linkstore.ErrCorruptRegion
	}
	copy(id[:], owner)
	return id, nil
}

// Locations returns every region location in lexical order.
func (h *Host) Locations() ([]string, error) {
	rows, err := h.db.Query(`SELECT location FROM regions ORDER BY location ASC`)
	if err != nil {
		return nil, fmt.Errorf("locations: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("locations: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// read loads and verifies a region.
func read(q queryRower, location string) ([]byte, error) {
	var (
		data []byte
		size int
		sum  int64
	)
	err := q.QueryRow(`SELECT data, size, checksum FROM regions WHERE location = ?`, location).
		Scan(&data, &size, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, linkstore.ErrRegionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	if len(data) != size {
		return nil, fmt.Errorf("read %s: %w", location, linkstore.ErrRegionSize)
	}
	if linkstore.Checksum(data) != uint64(sum) {
		return nil, fmt.Errorf("read %s: %w", location, linkstore.ErrChecksum)
	}
	return data, nil
}

// tx runs fn in a transaction, committing only if fn returns nil.
func (h *Host) tx(fn func(*sql.Tx) error) error {
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// isConstraint reports whether err is a SQLite constraint violation.
func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

var _ linkstore.Host = (*Host)(nil)
