package geocoder

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/democracyclub/pollingstations-cli/internal/refdata"
)

// sentinelLADs are ONSPD jurisdiction codes that mark out-of-scope
// territories or terminated postcodes.
var sentinelLADs = map[string]struct{}{
	"L99999999": {}, // Channel Islands
	"M99999999": {}, // Isle of Man
	"":          {}, // terminated postcode or other
}

// OnspdGeocoder geocodes a postcode from its ONSPD centroid record. It
// is coarser than AddressBase but covers postcodes AddressBase lacks.
type OnspdGeocoder struct {
	store refdata.CentroidStore
}

// NewOnspdGeocoder creates an OnspdGeocoder over the given store.
func NewOnspdGeocoder(store refdata.CentroidStore) *OnspdGeocoder {
	return &OnspdGeocoder{store: store}
}

// Name implements Geocoder.
func (g *OnspdGeocoder) Name() string { return "onspd" }

func (g *OnspdGeocoder) record(ctx context.Context, postcode string) (*refdata.CentroidRecord, error) {
	rec, err := g.store.Centroid(ctx, postcode)
	if err != nil {
		if errors.Is(err, refdata.ErrNoRecord) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "onspd: fetch centroid")
	}
	return rec, nil
}

// GeocodePointOnly implements Geocoder.
func (g *OnspdGeocoder) GeocodePointOnly(ctx context.Context, postcode string) (*Point, error) {
	rec, err := g.record(ctx, postcode)
	if err != nil {
		return nil, err
	}
	return &Point{Source: "onspd", Lon: rec.Lon, Lat: rec.Lat}, nil
}

// Geocode implements Geocoder.
func (g *OnspdGeocoder) Geocode(ctx context.Context, postcode string) (*Result, error) {
	rec, err := g.record(ctx, postcode)
	if err != nil {
		return nil, err
	}

	if _, bad := sentinelLADs[rec.LAD]; bad {
		return nil, ErrNotFound
	}

	return &Result{
		Source:     "onspd",
		Lon:        rec.Lon,
		Lat:        rec.Lat,
		CouncilGSS: rec.LAD,
		GSSCodes:   []string{rec.LAD, rec.EER},
	}, nil
}
