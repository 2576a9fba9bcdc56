package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/democracyclub/pollingstations-cli/internal/db"
	"github.com/democracyclub/pollingstations-cli/internal/model"
)

// ErrNoCouncil is returned when no council matches a lookup.
var ErrNoCouncil = model.ErrNoCouncil

// PostgresStore backs Store with a PostGIS database.
type PostgresStore struct {
	pool db.Pool
}

func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

const councilColumns = `council_id, name, email, phone, website, address, postcode`

func scanCouncil(row pgx.Row) (*model.Council, error) {
	var c model.Council
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Website, &c.Address, &c.Postcode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoCouncil
	}
	if err != nil {
		return nil, eris.Wrap(err, "scanning council")
	}
	return &c, nil
}

func (s *PostgresStore) Council(ctx context.Context, gss string) (*model.Council, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+councilColumns+` FROM councils WHERE council_id = $1`, gss)
	return scanCouncil(row)
}

func (s *PostgresStore) CouncilIn(ctx context.Context, gssCodes []string) (*model.Council, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+councilColumns+` FROM councils WHERE council_id = ANY($1) LIMIT 1`, gssCodes)
	return scanCouncil(row)
}

func (s *PostgresStore) CouncilForPoint(ctx context.Context, lon, lat float64) (*model.Council, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+councilColumns+` FROM councils
		 WHERE ST_Covers(area, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		 LIMIT 1`, lon, lat)
	return scanCouncil(row)
}

func (s *PostgresStore) Teardown(ctx context.Context, councilID string) error {
	for _, table := range []string{"polling_stations", "polling_districts", "residential_addresses"} {
		if _, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE council_id = $1`, councilID); err != nil {
			return eris.Wrapf(err, "clearing %s", table)
		}
	}
	return nil
}

// ewkbOrNil encodes a geometry for ST_GeomFromEWKB, passing SQL NULL
// through for absent geometries.
func ewkbOrNil(g geom.T) (any, error) {
	if g == nil {
		return nil, nil
	}
	b, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "encoding geometry")
	}
	return b, nil
}

func (s *PostgresStore) InsertDistricts(ctx context.Context, districts []model.PollingDistrict) (int64, error) {
	var n int64
	for _, d := range districts {
		area, err := ewkbOrNil(mpGeom(d.Area))
		if err != nil {
			return n, err
		}
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO polling_districts
			   (council_id, internal_council_id, name, extra_id, polling_station_id, area)
			 VALUES ($1, $2, $3, $4, $5, ST_Transform(ST_GeomFromEWKB($6), 4326))`,
			d.CouncilID, d.InternalCouncilID, d.Name, d.ExtraID, d.PollingStationID, area)
		if err != nil {
			return n, eris.Wrapf(err, "inserting district %q", d.InternalCouncilID)
		}
		n += tag.RowsAffected()
	}
	return n, nil
}

func (s *PostgresStore) InsertStations(ctx context.Context, stations []model.PollingStation) (int64, error) {
	var n int64
	for _, st := range stations {
		loc, err := ewkbOrNil(ptGeom(st.Location))
		if err != nil {
			return n, err
		}
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO polling_stations
			   (council_id, internal_council_id, postcode_district, address, postcode, location)
			 VALUES ($1, $2, $3, $4, $5, ST_Transform(ST_GeomFromEWKB($6), 4326))`,
			st.CouncilID, st.InternalCouncilID, st.PostcodeDistrict, st.Address, st.Postcode, loc)
		if err != nil {
			return n, eris.Wrapf(err, "inserting station %q", st.InternalCouncilID)
		}
		n += tag.RowsAffected()
	}
	return n, nil
}

func (s *PostgresStore) InsertAddresses(ctx context.Context, addresses []model.ResidentialAddress) (int64, error) {
	if len(addresses) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "beginning address batch")
	}
	defer tx.Rollback(ctx)

	rows := make([][]any, 0, len(addresses))
	for _, a := range addresses {
		rows = append(rows, []any{a.CouncilID, a.Address, a.Postcode, a.PollingStationID, a.UPRN, a.Slug})
	}
	n, err := db.CopyFromTx(ctx, tx, "residential_addresses",
		[]string{"council_id", "address", "postcode", "polling_station_id", "uprn", "slug"}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "copying address batch")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "committing address batch")
	}
	return n, nil
}

func (s *PostgresStore) AddressesForPostcode(ctx context.Context, postcode string) ([]model.ResidentialAddress, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT council_id, address, postcode, polling_station_id, uprn, slug
		   FROM residential_addresses
		  WHERE postcode = $1
		  ORDER BY address`, model.NormalizePostcode(postcode))
	if err != nil {
		return nil, eris.Wrap(err, "querying addresses")
	}
	defer rows.Close()

	var out []model.ResidentialAddress
	for rows.Next() {
		var a model.ResidentialAddress
		if err := rows.Scan(&a.CouncilID, &a.Address, &a.Postcode, &a.PollingStationID, &a.UPRN, &a.Slug); err != nil {
			return nil, eris.Wrap(err, "scanning address")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) BlacklistCouncils(ctx context.Context, postcode string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT council_id FROM postcode_overrides WHERE postcode = $1 ORDER BY council_id`,
		model.NormalizePostcode(postcode))
	if err != nil {
		return nil, eris.Wrap(err, "querying postcode overrides")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "scanning override")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CleanOverlappingPostcodes reconciles imported addresses against district
// geometry. A postcode whose centroid falls inside the district of its
// assigned station needs no attention. Where the centroid falls inside a
// different district with a station assignment, the address rows are
// re-pointed at that district's station.
func (s *PostgresStore) CleanOverlappingPostcodes(ctx context.Context, councilID string) (*CleanupResult, error) {
	var res CleanupResult

	row := s.pool.QueryRow(ctx,
		`SELECT count(DISTINCT a.postcode)
		   FROM residential_addresses a
		   JOIN polling_stations s
		     ON s.council_id = a.council_id AND s.internal_council_id = a.polling_station_id
		   JOIN polling_districts d
		     ON d.council_id = s.council_id AND d.polling_station_id = s.internal_council_id
		   JOIN refdata.onspd p ON replace(p.pcds, ' ', '') = a.postcode
		  WHERE a.council_id = $1
		    AND ST_Covers(d.area, p.location)`, councilID)
	if err := row.Scan(&res.PostcodesContained); err != nil {
		return nil, eris.Wrap(err, "counting contained postcodes")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE residential_addresses a
		    SET polling_station_id = d.polling_station_id
		   FROM refdata.onspd p, polling_districts d
		  WHERE a.council_id = $1
		    AND replace(p.pcds, ' ', '') = a.postcode
		    AND d.council_id = a.council_id
		    AND d.polling_station_id <> ''
		    AND d.polling_station_id <> a.polling_station_id
		    AND ST_Covers(d.area, p.location)`, councilID)
	if err != nil {
		return nil, eris.Wrap(err, "repairing straddling addresses")
	}
	res.AddressesRepaired = int(tag.RowsAffected())

	zap.L().Info("postcode cleanup complete",
		zap.String("council_id", councilID),
		zap.Int("contained", res.PostcodesContained),
		zap.Int("repaired", res.AddressesRepaired))
	return &res, nil
}

func (s *PostgresStore) Counts(ctx context.Context, councilID string) (*EntityCounts, error) {
	var c EntityCounts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"polling_stations", &c.Stations},
		{"polling_districts", &c.Districts},
		{"residential_addresses", &c.Addresses},
	} {
		row := s.pool.QueryRow(ctx, `SELECT count(*) FROM `+q.table+` WHERE council_id = $1`, councilID)
		if err := row.Scan(q.dst); err != nil {
			return nil, eris.Wrapf(err, "counting %s", q.table)
		}
	}
	return &c, nil
}

func (s *PostgresStore) SaveDataQuality(ctx context.Context, dq *model.DataQuality) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO data_quality
		   (run_id, council_id, report, num_stations, num_districts, num_addresses, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		dq.RunID, dq.CouncilID, dq.Report, dq.NumStations, dq.NumDistricts, dq.NumAddresses, dq.CreatedAt)
	if err != nil {
		return eris.Wrap(err, "saving data quality record")
	}
	return nil
}

func mpGeom(mp *geom.MultiPolygon) geom.T {
	if mp == nil {
		return nil
	}
	return mp
}

func ptGeom(p *geom.Point) geom.T {
	if p == nil {
		return nil
	}
	return p
}
