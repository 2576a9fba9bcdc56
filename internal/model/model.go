// Package model defines the core polling station entities shared across
// the importer and lookup paths.
package model

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// ErrNoCouncil is returned by council lookups that match nothing. A
// distinct sentinel lets callers tell an absent council apart from a
// failed query.
var ErrNoCouncil = eris.New("no matching council")

// Council is immutable reference data identifying a local authority.
type Council struct {
	ID       string // GSS code, e.g. "E07000223"
	Name     string
	Email    string
	Phone    string
	Website  string
	Address  string
	Postcode string
	Area     *geom.MultiPolygon // authority boundary, WGS84
}

// PollingDistrict is a council-assigned electoral district.
type PollingDistrict struct {
	CouncilID         string
	InternalCouncilID string
	Name              string
	ExtraID           string
	PollingStationID  string
	Area              *geom.MultiPolygon // always a multipolygon when present
}

// PollingStation is a place where electors in a district cast their vote.
type PollingStation struct {
	CouncilID         string
	InternalCouncilID string
	PostcodeDistrict  string
	Address           string
	Postcode          string
	Location          *geom.Point
}

// ResidentialAddress maps a single dwelling to its polling station.
type ResidentialAddress struct {
	CouncilID        string
	Address          string
	Postcode         string // normalized: uppercase, alphanumerics only
	PollingStationID string // PollingStation.InternalCouncilID
	UPRN             string
	Slug             string // globally unique, URL-safe
}

// DataQuality is a per-council snapshot of the last import run.
type DataQuality struct {
	RunID        string
	CouncilID    string
	Report       string
	NumStations  int
	NumDistricts int
	NumAddresses int
	CreatedAt    time.Time
}
