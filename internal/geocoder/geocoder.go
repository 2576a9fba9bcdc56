// Package geocoder resolves a postcode to a location and council, trying
// reference data sources in priority order: AddressBase address points
// first, ONSPD postcode centroids as the broad fallback.
package geocoder

import (
	"context"

	"github.com/rotisserie/eris"
)

// Failure modes surfaced by individual geocoders. Only
// ErrMultipleJurisdictions and ErrUnresolvable cross the resolver
// boundary; the rest drive fallback internally.
var (
	// ErrNotImported means the AddressBase reference table is empty.
	ErrNotImported = eris.New("geocoder: addressbase not imported")

	// ErrNotFound means the source has no record for the postcode.
	ErrNotFound = eris.New("geocoder: postcode not found")

	// ErrNorthernIreland means the postcode is in Northern Ireland,
	// which AddressBase coverage excludes by policy.
	ErrNorthernIreland = eris.New("geocoder: postcode is in Northern Ireland")

	// ErrCodesNotFound means addresses matched but ONSUD has no area
	// codes for any of their UPRNs.
	ErrCodesNotFound = eris.New("geocoder: no ONSUD codes for matched UPRNs")

	// ErrMultipleJurisdictions means the postcode covers UPRNs in more
	// than one local authority. No cruder source can resolve this, so it
	// is never retried.
	ErrMultipleJurisdictions = eris.New("geocoder: postcode covers multiple local authorities")

	// ErrUnresolvable means every source failed.
	ErrUnresolvable = eris.New("geocoder: could not geocode from any source")
)

// Point is a point-only geocode result.
type Point struct {
	Source string
	Lon    float64
	Lat    float64
}

// Result is a full geocode result including jurisdiction codes.
type Result struct {
	Source     string
	Lon        float64
	Lat        float64
	CouncilGSS string   // local authority district code
	GSSCodes   []string // all area codes covering the postcode (LAD, EER)
}

// Geocoder is a single postcode geocoding source.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, postcode string) (*Result, error)
	GeocodePointOnly(ctx context.Context, postcode string) (*Point, error)
}
