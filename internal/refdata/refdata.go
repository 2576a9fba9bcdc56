// Package refdata exposes read-only reference geo-data: AddressBase
// address points, ONSUD UPRN-to-area codes, and ONSPD postcode
// centroids. The geocoder consumes these through the two store
// interfaces below; backends exist for Postgres and a local SQLite
// snapshot.
package refdata

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrNoRecord indicates the requested key is absent from the dataset.
var ErrNoRecord = eris.New("refdata: no record")

// AddressRecord is a single AddressBase address point.
type AddressRecord struct {
	UPRN    string
	Address string
	Lon     float64
	Lat     float64
}

// UPRNCodes holds the ONSUD administrative area codes for one UPRN.
type UPRNCodes struct {
	UPRN string
	LAD  string // local authority district GSS code
	EER  string // European electoral region GSS code
}

// CentroidRecord is an ONSPD postcode centroid with its area codes.
type CentroidRecord struct {
	Lon float64
	Lat float64
	LAD string
	EER string
}

// AddressStore serves AddressBase address points and their ONSUD codes.
// Postcodes are passed in canonical normalized form (uppercase, no
// separators); implementations handle dataset-specific key formats.
type AddressStore interface {
	// Imported reports whether the AddressBase dataset has been loaded
	// at all. An empty table means lookups cannot be trusted.
	Imported(ctx context.Context) (bool, error)

	// Addresses returns every address point for a postcode, ordered by
	// UPRN. Empty result means the postcode is unknown to AddressBase.
	Addresses(ctx context.Context, postcode string) ([]AddressRecord, error)

	// CodesForUPRNs returns ONSUD codes for the given UPRNs, ordered by
	// UPRN. UPRNs with no ONSUD record are simply absent from the result.
	CodesForUPRNs(ctx context.Context, uprns []string) ([]UPRNCodes, error)
}

// CentroidStore serves ONSPD postcode centroids.
type CentroidStore interface {
	// Centroid returns the centroid record for a postcode, or
	// ErrNoRecord if the postcode is not in ONSPD.
	Centroid(ctx context.Context, postcode string) (*CentroidRecord, error)
}
