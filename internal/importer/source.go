package importer

import (
	"context"

	"github.com/democracyclub/pollingstations-cli/internal/fetcher"
	"github.com/democracyclub/pollingstations-cli/internal/model"
	"github.com/democracyclub/pollingstations-cli/internal/store"
)

// FileSpec names one input file for a council. Filename is relative to
// the council's data directory; when empty, the file is discovered by
// the council id prefix and URL is consulted for remote sources.
type FileSpec struct {
	Filename string
	URL      string
	Type     fetcher.Type
	Options  fetcher.Options
	// SRID of the file's coordinates. Zero falls back to the importer's
	// declared SRID.
	SRID int
}

// StationSource turns source records into polling stations. Transform
// may return zero stations to skip a record or several to fan one out.
type StationSource struct {
	File FileSpec

	Transform func(ctx context.Context, rec *fetcher.Record) ([]model.PollingStation, error)

	// Hash, when set, supplies the dedup key for a source record.
	// Records whose key was already seen are dropped before Transform
	// runs.
	Hash func(rec *fetcher.Record) string
}

// DistrictSource turns source records into polling districts.
type DistrictSource struct {
	File FileSpec

	Transform func(ctx context.Context, rec *fetcher.Record) ([]model.PollingDistrict, error)
}

// AddressSource turns source records into residential addresses.
type AddressSource struct {
	File FileSpec

	Transform func(ctx context.Context, rec *fetcher.Record) ([]model.ResidentialAddress, error)
}

// Importer describes one council's import: which files to read, how to
// transform their records, and any extra work around the core steps.
// Any of the three sources may be nil; a council with only stations and
// addresses is common.
type Importer struct {
	CouncilID string

	// SRID of source coordinates, defaulted per file by FileSpec.
	SRID int

	Stations  *StationSource
	Districts *DistrictSource
	Addresses *AddressSource

	// PreImport and PostImport run before transforms and after persistence.
	// Nil means no extra work.
	PreImport  func(ctx context.Context, st store.Store) error
	PostImport func(ctx context.Context, st store.Store) error
}

// fileSRID resolves the SRID to use for a given file.
func (imp *Importer) fileSRID(f FileSpec) int {
	if f.SRID != 0 {
		return f.SRID
	}
	return imp.SRID
}
