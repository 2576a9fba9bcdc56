package refdata

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/democracyclub/pollingstations-cli/internal/model"
)

// SQLiteStore implements AddressStore and CentroidStore against a local
// SQLite snapshot of the reference datasets. Geometry is stored as plain
// lon/lat columns; all spatial arithmetic happens in the caller.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a reference-data snapshot at the given path.
func NewSQLite(path string) (*SQLiteStore, error) {
	sdb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "refdata: open sqlite")
	}
	if _, err := sdb.Exec("PRAGMA query_only = 1"); err != nil {
		sdb.Close()
		return nil, eris.Wrap(err, "refdata: set query_only")
	}
	return &SQLiteStore{db: sdb}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Imported implements AddressStore.
func (s *SQLiteStore) Imported(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM addressbase)`).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "refdata: check addressbase")
	}
	return exists, nil
}

// Addresses implements AddressStore.
func (s *SQLiteStore) Addresses(ctx context.Context, postcode string) ([]AddressRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uprn, address, lon, lat
		FROM addressbase
		WHERE postcode = ?
		ORDER BY uprn`,
		model.PostcodeWithSpace(postcode),
	)
	if err != nil {
		return nil, eris.Wrap(err, "refdata: addresses for postcode")
	}
	defer rows.Close()

	var out []AddressRecord
	for rows.Next() {
		var a AddressRecord
		if err := rows.Scan(&a.UPRN, &a.Address, &a.Lon, &a.Lat); err != nil {
			return nil, eris.Wrap(err, "refdata: scan address")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "refdata: iterate addresses")
}

// CodesForUPRNs implements AddressStore.
func (s *SQLiteStore) CodesForUPRNs(ctx context.Context, uprns []string) ([]UPRNCodes, error) {
	if len(uprns) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(uprns)), ",")
	args := make([]any, len(uprns))
	for i, u := range uprns {
		args[i] = u
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT uprn, lad, eer FROM onsud WHERE uprn IN (`+placeholders+`) ORDER BY uprn`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "refdata: codes for uprns")
	}
	defer rows.Close()

	var out []UPRNCodes
	for rows.Next() {
		var c UPRNCodes
		if err := rows.Scan(&c.UPRN, &c.LAD, &c.EER); err != nil {
			return nil, eris.Wrap(err, "refdata: scan codes")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "refdata: iterate codes")
}

// Centroid implements CentroidStore.
func (s *SQLiteStore) Centroid(ctx context.Context, postcode string) (*CentroidRecord, error) {
	var c CentroidRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT lon, lat, lad, eer
		FROM onspd
		WHERE pcds = ?`,
		model.PostcodeWithSpace(postcode),
	).Scan(&c.Lon, &c.Lat, &c.LAD, &c.EER)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, eris.Wrap(err, "refdata: centroid for postcode")
	}
	return &c, nil
}

// isNoRows matches pgx and database/sql empty-result errors.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}
