package refdata

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/democracyclub/pollingstations-cli/internal/db"
	"github.com/democracyclub/pollingstations-cli/internal/model"
)

// PostgresStore implements AddressStore and CentroidStore against the
// refdata.* schema in Postgres.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a PostgresStore on the given pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Imported implements AddressStore.
func (s *PostgresStore) Imported(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM refdata.addressbase)`).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "refdata: check addressbase")
	}
	return exists, nil
}

// Addresses implements AddressStore.
func (s *PostgresStore) Addresses(ctx context.Context, postcode string) ([]AddressRecord, error) {
	sql := `
		SELECT uprn, address, ST_X(location), ST_Y(location)
		FROM refdata.addressbase
		WHERE postcode = $1
		ORDER BY uprn
	`
	rows, err := s.pool.Query(ctx, sql, model.PostcodeWithSpace(postcode))
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
func (s *PostgresStore) CodesForUPRNs(ctx context.Context, uprns []string) ([]UPRNCodes, error) {
	if len(uprns) == 0 {
		return nil, nil
	}

	sql := `
		SELECT uprn, lad, eer
		FROM refdata.onsud
		WHERE uprn = ANY($1)
		ORDER BY uprn
	`
	rows, err := s.pool.Query(ctx, sql, uprns)
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
func (s *PostgresStore) Centroid(ctx context.Context, postcode string) (*CentroidRecord, error) {
	sql := `
		SELECT ST_X(location), ST_Y(location), lad, eer
		FROM refdata.onspd
		WHERE pcds = $1
	`
	var c CentroidRecord
	err := s.pool.QueryRow(ctx, sql, model.PostcodeWithSpace(postcode)).Scan(&c.Lon, &c.Lat, &c.LAD, &c.EER)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNoRecord
		}
		return nil, eris.Wrap(err, "refdata: centroid for postcode")
	}
	return &c, nil
}
