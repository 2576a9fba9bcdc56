package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/democracyclub/pollingstations-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func TestCouncilNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM councils WHERE council_id = \$1`).
		WithArgs("X99999999").
		WillReturnRows(pgxmock.NewRows([]string{
			"council_id", "name", "email", "phone", "website", "address", "postcode",
		}))

	_, err := s.Council(context.Background(), "X99999999")
	assert.ErrorIs(t, err, ErrNoCouncil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouncilForPoint(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`ST_Covers\(area, ST_SetSRID\(ST_MakePoint`).
		WithArgs(-0.127, 51.507).
		WillReturnRows(pgxmock.NewRows([]string{
			"council_id", "name", "email", "phone", "website", "address", "postcode",
		}).AddRow("E09000033", "Westminster", "elections@westminster.gov.uk", "", "", "", ""))

	c, err := s.CouncilForPoint(context.Background(), -0.127, 51.507)
	require.NoError(t, err)
	assert.Equal(t, "E09000033", c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeardownClearsAllEntityTables(t *testing.T) {
	s, mock := newMockStore(t)

	for _, table := range []string{"polling_stations", "polling_districts", "residential_addresses"} {
		mock.ExpectExec(`DELETE FROM ` + table + ` WHERE council_id = \$1`).
			WithArgs("E00000001").
			WillReturnResult(pgxmock.NewResult("DELETE", 10))
	}

	require.NoError(t, s.Teardown(context.Background(), "E00000001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAddressesBatchIsTransactional(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"residential_addresses"},
		[]string{"council_id", "address", "postcode", "polling_station_id", "uprn", "slug"}).
		WillReturnResult(2)
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := s.InsertAddresses(context.Background(), []model.ResidentialAddress{
		{CouncilID: "E00000001", Address: "1 High St", Postcode: "SW1A1AA", PollingStationID: "1", UPRN: "100", Slug: "100"},
		{CouncilID: "E00000001", Address: "2 High St", Postcode: "SW1A1AA", PollingStationID: "1", UPRN: "101", Slug: "101"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAddressesEmptyBatchSkipsTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	n, err := s.InsertAddresses(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddressesForPostcodeNormalizesInput(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM residential_addresses`).
		WithArgs("SW1A1AA").
		WillReturnRows(pgxmock.NewRows([]string{
			"council_id", "address", "postcode", "polling_station_id", "uprn", "slug",
		}).AddRow("E00000001", "1 High St", "SW1A1AA", "1", "100", "100"))

	addrs, err := s.AddressesForPostcode(context.Background(), "sw1a 1aa")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "1 High St", addrs[0].Address)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanOverlappingPostcodes(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(DISTINCT a.postcode\)`).
		WithArgs("E00000001").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectExec(`UPDATE residential_addresses`).
		WithArgs("E00000001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	res, err := s.CleanOverlappingPostcodes(context.Background(), "E00000001")
	require.NoError(t, err)
	assert.Equal(t, 42, res.PostcodesContained)
	assert.Equal(t, 3, res.AddressesRepaired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounts(t *testing.T) {
	s, mock := newMockStore(t)

	for _, n := range []int{3, 2, 5} {
		mock.ExpectQuery(`SELECT count\(\*\) FROM`).
			WithArgs("E00000001").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(n))
	}

	c, err := s.Counts(context.Background(), "E00000001")
	require.NoError(t, err)
	assert.Equal(t, &EntityCounts{Stations: 3, Districts: 2, Addresses: 5}, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveDataQuality(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectExec(`INSERT INTO data_quality`).
		WithArgs("run-1", "E00000001", "report text", 3, 2, 5, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveDataQuality(context.Background(), &model.DataQuality{
		RunID: "run-1", CouncilID: "E00000001", Report: "report text",
		NumStations: 3, NumDistricts: 2, NumAddresses: 5, CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
