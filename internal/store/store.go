// Package store persists polling station entities. The importer owns a
// council's rows for the duration of a run; the lookup path reads them.
package store

import (
	"context"

	"github.com/democracyclub/pollingstations-cli/internal/model"
)

// EntityCounts holds per-council row counts for the data-quality report.
type EntityCounts struct {
	Stations  int
	Districts int
	Addresses int
}

// CleanupResult summarizes the post-import geometry reconciliation.
type CleanupResult struct {
	// PostcodesContained is the number of postcodes whose centroid sits
	// inside the district of their assigned station; no attention needed.
	PostcodesContained int

	// AddressesRepaired is the number of address rows re-pointed at the
	// station of the district that actually contains their postcode.
	AddressesRepaired int
}

// Store is the persistence interface for the import and lookup paths.
type Store interface {
	// Councils
	Council(ctx context.Context, gss string) (*model.Council, error)
	CouncilIn(ctx context.Context, gssCodes []string) (*model.Council, error)
	CouncilForPoint(ctx context.Context, lon, lat float64) (*model.Council, error)

	// Import lifecycle. Teardown deletes a council's stations, districts
	// and addresses unconditionally; it is deliberately not transactional
	// with the import that follows.
	Teardown(ctx context.Context, councilID string) error
	InsertDistricts(ctx context.Context, districts []model.PollingDistrict) (int64, error)
	InsertStations(ctx context.Context, stations []model.PollingStation) (int64, error)
	// InsertAddresses writes one batch atomically: the batch commits or
	// rolls back as a unit.
	InsertAddresses(ctx context.Context, addresses []model.ResidentialAddress) (int64, error)

	// Lookup path
	AddressesForPostcode(ctx context.Context, postcode string) ([]model.ResidentialAddress, error)
	BlacklistCouncils(ctx context.Context, postcode string) ([]string, error)

	// Post-import
	CleanOverlappingPostcodes(ctx context.Context, councilID string) (*CleanupResult, error)
	Counts(ctx context.Context, councilID string) (*EntityCounts, error)
	SaveDataQuality(ctx context.Context, dq *model.DataQuality) error
}
