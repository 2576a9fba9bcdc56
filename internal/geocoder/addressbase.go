package geocoder

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/democracyclub/pollingstations-cli/internal/model"
	"github.com/democracyclub/pollingstations-cli/internal/refdata"
)

// AddressBaseGeocoder geocodes a postcode from individual AddressBase
// address points, joining ONSUD for jurisdiction codes. It is the most
// precise source: the centroid is computed from the actual addresses in
// the postcode rather than a pre-baked approximation.
type AddressBaseGeocoder struct {
	store refdata.AddressStore
}

// NewAddressBaseGeocoder creates an AddressBaseGeocoder over the given store.
func NewAddressBaseGeocoder(store refdata.AddressStore) *AddressBaseGeocoder {
	return &AddressBaseGeocoder{store: store}
}

// Name implements Geocoder.
func (g *AddressBaseGeocoder) Name() string { return "addressbase" }

// lookup fetches the address points for a postcode, applying the
// territory policy and dataset-presence checks.
func (g *AddressBaseGeocoder) lookup(ctx context.Context, postcode string) ([]refdata.AddressRecord, error) {
	if model.PostcodeTerritory(postcode) == "NI" {
		return nil, ErrNorthernIreland
	}

	imported, err := g.store.Imported(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "addressbase: check imported")
	}
	if !imported {
		return nil, ErrNotImported
	}

	addresses, err := g.store.Addresses(ctx, postcode)
	if err != nil {
		return nil, eris.Wrap(err, "addressbase: fetch addresses")
	}
	if len(addresses) == 0 {
		return nil, ErrNotFound
	}
	return addresses, nil
}

// GeocodePointOnly implements Geocoder.
func (g *AddressBaseGeocoder) GeocodePointOnly(ctx context.Context, postcode string) (*Point, error) {
	addresses, err := g.lookup(ctx, postcode)
	if err != nil {
		return nil, err
	}
	lon, lat := centroid(addresses)
	return &Point{Source: "addressbase", Lon: lon, Lat: lat}, nil
}

// Geocode implements Geocoder.
func (g *AddressBaseGeocoder) Geocode(ctx context.Context, postcode string) (*Result, error) {
	addresses, err := g.lookup(ctx, postcode)
	if err != nil {
		return nil, err
	}

	uprns := make([]string, len(addresses))
	for i, a := range addresses {
		uprns[i] = a.UPRN
	}

	codes, err := g.store.CodesForUPRNs(ctx, uprns)
	if err != nil {
		return nil, eris.Wrap(err, "addressbase: fetch ONSUD codes")
	}
	if len(codes) == 0 {
		return nil, ErrCodesNotFound
	}

	// ONSUD sometimes has fewer rows than AddressBase has addresses.
	// Known correctness gap, kept for backwards compatibility: we only
	// require the codes we did find to agree.
	if len(codes) != len(addresses) {
		zap.L().Debug("addressbase: ONSUD row count differs from address count",
			zap.String("postcode", postcode),
			zap.Int("addresses", len(addresses)),
			zap.Int("codes", len(codes)),
		)
	}

	lad, err := distinctCode(codes, func(c refdata.UPRNCodes) string { return c.LAD })
	if err != nil {
		return nil, err
	}
	eer, err := distinctCode(codes, func(c refdata.UPRNCodes) string { return c.EER })
	if err != nil {
		return nil, err
	}

	lon, lat := centroid(addresses)
	return &Result{
		Source:     "addressbase",
		Lon:        lon,
		Lat:        lat,
		CouncilGSS: lad,
		GSSCodes:   []string{lad, eer},
	}, nil
}

// distinctCode extracts one area code from the ONSUD rows. All rows must
// agree; disagreement means the postcode genuinely spans areas.
func distinctCode(codes []refdata.UPRNCodes, get func(refdata.UPRNCodes) string) (string, error) {
	code := get(codes[0])
	for _, c := range codes[1:] {
		if get(c) != code {
			return "", ErrMultipleJurisdictions
		}
	}
	return code, nil
}

// centroid is the arithmetic mean of the address points.
func centroid(addresses []refdata.AddressRecord) (lon, lat float64) {
	for _, a := range addresses {
		lon += a.Lon
		lat += a.Lat
	}
	n := float64(len(addresses))
	return lon / n, lat / n
}
