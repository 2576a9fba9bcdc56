package importer

import (
	"context"
	"strconv"
	"strings"

	"github.com/democracyclub/pollingstations-cli/internal/model"
	"github.com/democracyclub/pollingstations-cli/internal/store"
)

// DefaultBatchSize is how many address rows go into one transaction.
const DefaultBatchSize = 3000

// DistrictSet accumulates polling districts for one import run.
type DistrictSet struct {
	districts []model.PollingDistrict
}

func (s *DistrictSet) Add(d model.PollingDistrict) {
	s.districts = append(s.districts, d)
}

func (s *DistrictSet) Len() int { return len(s.districts) }

func (s *DistrictSet) Save(ctx context.Context, st store.Store) (int64, error) {
	return st.InsertDistricts(ctx, s.districts)
}

// StationSet accumulates polling stations, collapsing duplicates. Some
// council files repeat the station row once per street; only the first
// occurrence survives.
type StationSet struct {
	stations []model.PollingStation
	seen     map[string]struct{}
}

// Add appends a station unless its key has been seen. An empty key is
// derived from every field of the record, so exact duplicates always
// collapse even when the source defines no identity of its own.
func (s *StationSet) Add(key string, st model.PollingStation) bool {
	if key == "" {
		key = stationKey(st)
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	s.stations = append(s.stations, st)
	return true
}

func (s *StationSet) Len() int { return len(s.stations) }

// Seen reports whether a key has already been accepted. Lets callers
// skip transforming rows that would be dropped anyway.
func (s *StationSet) Seen(key string) bool {
	_, ok := s.seen[key]
	return ok
}

// MarkSeen registers a source-row key without adding a station. One
// source row can fan out to several stations, so the row's key must not
// gate the individual records it produces.
func (s *StationSet) MarkSeen(key string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	s.seen[key] = struct{}{}
}

func (s *StationSet) Save(ctx context.Context, st store.Store) (int64, error) {
	return st.InsertStations(ctx, s.stations)
}

func stationKey(st model.PollingStation) string {
	parts := []string{st.CouncilID, st.InternalCouncilID, st.PostcodeDistrict, st.Address, st.Postcode}
	if st.Location != nil {
		coords := st.Location.Coords()
		parts = append(parts, coordString(coords[0]), coordString(coords[1]))
	}
	return strings.Join(parts, "\x1f")
}

func coordString(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// AddressSet accumulates residential addresses. Postcodes are normalized
// and slugs assigned as records arrive, so duplicates and slug collisions
// are visible before anything is written.
type AddressSet struct {
	addresses []model.ResidentialAddress
	batchSize int
}

func NewAddressSet(batchSize int) *AddressSet {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &AddressSet{batchSize: batchSize}
}

func (s *AddressSet) Add(a model.ResidentialAddress) {
	a.Postcode = model.NormalizePostcode(a.Postcode)
	a.Slug = addressSlug(a.CouncilID, a.PollingStationID, a.Address, a.Postcode, a.UPRN)
	s.addresses = append(s.addresses, a)
}

func (s *AddressSet) Len() int { return len(s.addresses) }

// Save writes addresses in batches. Each batch commits independently so
// a failure part-way leaves complete batches behind rather than nothing;
// a fresh import starts with a teardown anyway.
func (s *AddressSet) Save(ctx context.Context, st store.Store) (int64, error) {
	var total int64
	for start := 0; start < len(s.addresses); start += s.batchSize {
		end := min(start+s.batchSize, len(s.addresses))
		n, err := st.InsertAddresses(ctx, s.addresses[start:end])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
