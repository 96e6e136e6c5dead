// Package showids persists the mapping from normalized local series names to
// tracker show identifiers.
//
// Record is a plain value; Store is the repository that reads and writes it.
// The identifier column is not unique in the schema, but the
// resolver keeps at most one record per identifier by renaming instead of
// inserting when an identifier reappears under a new name.
package showids

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"showmark/internal/statedb"
)

// Record maps one normalized local name to a tracker identifier.
type Record struct {
	LocalName  string    `json:"local_name"`
	ExternalID string    `json:"show_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store is the resolution table repository.
type Store struct {
	db *statedb.Store
}

// New constructs a Store over an open state database.
func New(db *statedb.Store) *Store {
	return &Store{db: db}
}

const recordColumns = "local_name, external_id, updated_at"

// Lookup returns the record for a normalized local name. ok is false when no
// record exists.
func (s *Store) Lookup(ctx context.Context, localName string) (Record, bool, error) {
	row := s.db.DB().QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM show_ids WHERE local_name = ?`, localName)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("lookup show id: %w", err)
	}
	return rec, true, nil
}

// FindByExternalID returns the most recently updated record carrying id.
func (s *Store) FindByExternalID(ctx context.Context, externalID string) (Record, bool, error) {
	row := s.db.DB().QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM show_ids WHERE external_id = ? ORDER BY updated_at DESC, id DESC LIMIT 1`, externalID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("find show id: %w", err)
	}
	return rec, true, nil
}

// Insert stores a mapping. An existing record for the same local name is
// overwritten (last write wins).
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.LocalName) == "" {
		return errors.New("local name is empty")
	}
	if strings.TrimSpace(rec.ExternalID) == "" {
		return errors.New("external id is empty")
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecWithRetry(ctx,
		`INSERT INTO show_ids (local_name, external_id, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(local_name) DO UPDATE SET external_id = excluded.external_id, updated_at = excluded.updated_at`,
		rec.LocalName, rec.ExternalID, statedb.FormatTime(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert show id: %w", err)
	}
	return nil
}

// Rename moves every record carrying externalID to newName, leaving a single
// record for that identifier. A record already holding newName is replaced.
func (s *Store) Rename(ctx context.Context, externalID, newName string, at time.Time) error {
	if strings.TrimSpace(newName) == "" {
		return errors.New("local name is empty")
	}
	if at.IsZero() {
		at = time.Now()
	}
	tx, err := s.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rename: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM show_ids WHERE external_id = ? OR local_name = ?`, externalID, newName); err != nil {
		return fmt.Errorf("rename show id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO show_ids (local_name, external_id, updated_at) VALUES (?, ?, ?)`,
		newName, externalID, statedb.FormatTime(at)); err != nil {
		return fmt.Errorf("rename show id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rename: %w", err)
	}
	return nil
}

// List returns every record ordered by local name.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.DB().QueryContext(ctx, `SELECT `+recordColumns+` FROM show_ids ORDER BY local_name`)
	if err != nil {
		return nil, fmt.Errorf("list show ids: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan show id: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes the record for a normalized local name and reports whether
// one existed.
func (s *Store) Delete(ctx context.Context, localName string) (bool, error) {
	res, err := s.db.ExecWithRetry(ctx, `DELETE FROM show_ids WHERE local_name = ?`, localName)
	if err != nil {
		return false, fmt.Errorf("delete show id: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec        Record
		updatedRaw string
	)
	if err := scanner.Scan(&rec.LocalName, &rec.ExternalID, &updatedRaw); err != nil {
		return Record{}, err
	}
	if updated, err := statedb.ParseTime(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}
