package importer

import (
	"context"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/democracyclub/pollingstations-cli/internal/fetcher"
	"github.com/democracyclub/pollingstations-cli/internal/model"
)

// Presets for the electoral management software packages whose exports
// dominate council data: Xpress, Halarose and Democracy Counts. Each
// produces stations and addresses from a single CSV, with the station
// row repeated once per address.

// PointLocator geocodes a postcode to a WGS84 point. Presets fall back
// to it when a station row carries no usable grid reference; a nil
// result leaves the station without a location.
type PointLocator func(ctx context.Context, postcode string) (*geom.Point, error)

const bngSRID = 27700 // British National Grid

// gridPoint builds a point from easting/northing strings. Zero or blank
// ordinates mean the council left the column unfilled.
func gridPoint(easting, northing string) *geom.Point {
	if badOrdinate(easting) || badOrdinate(northing) {
		return nil
	}
	e, err1 := strconv.ParseFloat(strings.TrimSpace(easting), 64)
	n, err2 := strconv.ParseFloat(strings.TrimSpace(northing), 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	p := geom.NewPoint(geom.XY).SetSRID(bngSRID)
	p.MustSetCoords(geom.Coord{e, n})
	return p
}

func badOrdinate(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "0", "0.00":
		return true
	}
	return false
}

// locate resolves a station location: the grid reference when present,
// otherwise a point-only geocode of the postcode. Geocoding failures are
// not fatal; the station just has no point.
func locate(ctx context.Context, loc PointLocator, easting, northing, postcode string) *geom.Point {
	if p := gridPoint(easting, northing); p != nil {
		return p
	}
	postcode = strings.TrimSpace(postcode)
	if postcode == "" || loc == nil {
		return nil
	}
	p, err := loc(ctx, postcode)
	if err != nil {
		return nil
	}
	return p
}

// joinAddress concatenates address fragments with a separator, dropping
// blanks so repeated separators never appear.
func joinAddress(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// XpressWebLookup handles the older WebLookup export from Xpress.
func XpressWebLookup(councilID string, loc PointLocator) *Importer {
	stationID := func(rec *fetcher.Record) string {
		return strings.TrimSpace(rec.Field("pollingplaceid"))
	}
	return &Importer{
		CouncilID: councilID,
		SRID:      bngSRID,
		Stations: &StationSource{
			File: FileSpec{Type: fetcher.TypeCSV},
			Hash: stationID,
			Transform: func(ctx context.Context, rec *fetcher.Record) ([]model.PollingStation, error) {
				postcode := strings.TrimSpace(rec.Field("pollingplaceaddress7"))
				return []model.PollingStation{{
					CouncilID:         councilID,
					InternalCouncilID: stationID(rec),
					Postcode:          postcode,
					Address: joinAddress("\n",
						rec.Field("pollingplaceaddress1"),
						rec.Field("pollingplaceaddress2"),
						rec.Field("pollingplaceaddress3"),
						rec.Field("pollingplaceaddress4"),
						rec.Field("pollingplaceaddress5"),
						rec.Field("pollingplaceaddress6")),
					Location: locate(ctx, loc,
						rec.Field("pollingplaceeasting"),
						rec.Field("pollingplacenorthing"),
						postcode),
				}}, nil
			},
		},
		Addresses: &AddressSource{
			File: FileSpec{Type: fetcher.TypeCSV},
			Transform: func(_ context.Context, rec *fetcher.Record) ([]model.ResidentialAddress, error) {
				if strings.TrimSpace(rec.Field("postcode")) == "" {
					return nil, nil
				}
				number := strings.TrimSpace(rec.Field("propertynumber"))
				street := strings.TrimSpace(rec.Field("streetname"))
				address := street
				if number != "" && number != "0" {
					address = number + " " + street
				}
				return []model.ResidentialAddress{{
					CouncilID:        councilID,
					Address:          address,
					Postcode:         strings.TrimSpace(rec.Field("postcode")),
					PollingStationID: stationID(rec),
				}}, nil
			},
		},
	}
}

// XpressDemocracyClub handles the newer Democracy Club export from Xpress.
func XpressDemocracyClub(councilID string, loc PointLocator) *Importer {
	return xpressDC(councilID, loc, false)
}

// XpressDCInconsistentPostcodes is for Democracy Club exports where the
// station postcode wanders between columns. The station keeps a blank
// postcode and the geocode candidate is the last populated address field.
func XpressDCInconsistentPostcodes(councilID string, loc PointLocator) *Importer {
	return xpressDC(councilID, loc, true)
}

func xpressDC(councilID string, loc PointLocator, inconsistentPostcodes bool) *Importer {
	stationID := func(rec *fetcher.Record) string {
		return strings.TrimSpace(rec.Field("polling_place_id"))
	}
	stationAddress := func(rec *fetcher.Record) string {
		parts := []string{
			rec.Field("polling_place_name"),
			rec.Field("polling_place_address_1"),
			rec.Field("polling_place_address_2"),
			rec.Field("polling_place_address_3"),
			rec.Field("polling_place_address_4"),
		}
		if inconsistentPostcodes {
			parts = append(parts, rec.Field("polling_place_postcode"))
		}
		return joinAddress("\n", parts...)
	}
	geocodeCandidate := func(rec *fetcher.Record) string {
		if !inconsistentPostcodes {
			return strings.TrimSpace(rec.Field("polling_place_postcode"))
		}
		for _, f := range []string{"polling_place_postcode", "polling_place_address_4", "polling_place_address_3"} {
			if v := strings.TrimSpace(rec.Field(f)); v != "" {
				return v
			}
		}
		return ""
	}
	return &Importer{
		CouncilID: councilID,
		SRID:      bngSRID,
		Stations: &StationSource{
			File: FileSpec{Type: fetcher.TypeCSV},
			Hash: stationID,
			Transform: func(ctx context.Context, rec *fetcher.Record) ([]model.PollingStation, error) {
				postcode := ""
				if !inconsistentPostcodes {
					postcode = strings.TrimSpace(rec.Field("polling_place_postcode"))
				}
				return []model.PollingStation{{
					CouncilID:         councilID,
					InternalCouncilID: stationID(rec),
					Postcode:          postcode,
					Address:           stationAddress(rec),
					Location: locate(ctx, loc,
						rec.Field("polling_place_easting"),
						rec.Field("polling_place_northing"),
						geocodeCandidate(rec)),
				}}, nil
			},
		},
		Addresses: &AddressSource{
			File: FileSpec{Type: fetcher.TypeCSV},
			Transform: func(_ context.Context, rec *fetcher.Record) ([]model.ResidentialAddress, error) {
				if strings.TrimSpace(rec.Field("addressline6")) == "" {
					return nil, nil
				}
				return []model.ResidentialAddress{{
					CouncilID: councilID,
					Address: joinAddress(", ",
						rec.Field("addressline1"),
						rec.Field("addressline2"),
						rec.Field("addressline3"),
						rec.Field("addressline4"),
						rec.Field("addressline5")),
					Postcode:         strings.TrimSpace(rec.Field("addressline6")),
					PollingStationID: stationID(rec),
				}}, nil
			},
		},
	}
}

// Halarose handles CSV exports from Halarose. Stations have no grid
// reference, so every location comes from a postcode geocode. The
// station identifier is synthesized from the number and name since the
// export has no stable id column.
func Halarose(councilID string, loc PointLocator) *Importer {
	stationID := func(rec *fetcher.Record) string {
		slug := Slugify(strings.TrimSpace(rec.Field("pollingstationname")))
		if len(slug) > 90 {
			slug = slug[:90]
		}
		return strings.TrimSpace(rec.Field("pollingstationnumber")) + "-" + slug
	}
	return &Importer{
		CouncilID: councilID,
		SRID:      bngSRID,
		Stations: &StationSource{
			File: FileSpec{Type: fetcher.TypeCSV},
			Hash: stationID,
			Transform: func(ctx context.Context, rec *fetcher.Record) ([]model.PollingStation, error) {
				if strings.TrimSpace(rec.Field("pollingstationnumber")) == "n/a" {
					return nil, nil
				}
				postcode := strings.TrimSpace(rec.Field("pollingstationpostcode"))
				return []model.PollingStation{{
					CouncilID:         councilID,
					InternalCouncilID: stationID(rec),
					Postcode:          postcode,
					Address: joinAddress("\n",
						rec.Field("pollingstationname"),
						rec.Field("pollingstationaddress_1"),
						rec.Field("pollingstationaddress_2"),
						rec.Field("pollingstationaddress_3"),
						rec.Field("pollingstationaddress_4"),
						rec.Field("pollingstationaddress_5")),
					Location: locate(ctx, loc, "", "", postcode),
				}}, nil
			},
		},
		Addresses: &AddressSource{
			File: FileSpec{Type: fetcher.TypeCSV},
			Transform: func(_ context.Context, rec *fetcher.Record) ([]model.ResidentialAddress, error) {
				street := strings.ToLower(strings.TrimSpace(rec.Field("streetname")))
				switch street {
				case "other electors", "other voters", "other electors address":
					return nil, nil
				}
				if strings.TrimSpace(rec.Field("housepostcode")) == "" {
					return nil, nil
				}
				return []model.ResidentialAddress{{
					CouncilID:        councilID,
					Address:          halaroseAddress(rec),
					Postcode:         strings.TrimSpace(rec.Field("housepostcode")),
					PollingStationID: stationID(rec),
				}}, nil
			},
		},
	}
}

func halaroseAddress(rec *fetcher.Record) string {
	na := func(field string) string {
		v := strings.TrimSpace(rec.Field(field))
		if v == "n/a" {
			return ""
		}
		return v
	}
	line1 := strings.TrimSpace(joinAddress(" ",
		na("housename"), na("housenumber"), na("streetnumber"), na("streetname")))
	return joinAddress("\n", line1, na("locality"), na("town"), na("adminarea"))
}

// DemocracyCounts handles CSV exports from Democracy Counts.
func DemocracyCounts(councilID string, loc PointLocator) *Importer {
	stationID := func(rec *fetcher.Record) string {
		return strings.TrimSpace(rec.Field("stationcode"))
	}
	addressParts := func(rec *fetcher.Record) []string {
		return []string{
			rec.Field("add1"), rec.Field("add2"), rec.Field("add3"),
			rec.Field("add4"), rec.Field("add5"), rec.Field("add6"),
		}
	}
	return &Importer{
		CouncilID: councilID,
		SRID:      bngSRID,
		Stations: &StationSource{
			File: FileSpec{Type: fetcher.TypeCSV},
			Hash: stationID,
			Transform: func(ctx context.Context, rec *fetcher.Record) ([]model.PollingStation, error) {
				postcode := strings.TrimSpace(rec.Field("postcode"))
				return []model.PollingStation{{
					CouncilID:         councilID,
					InternalCouncilID: stationID(rec),
					Postcode:          postcode,
					Address: joinAddress("\n",
						append([]string{rec.Field("placename")}, addressParts(rec)...)...),
					Location: locate(ctx, loc,
						rec.Field("xordinate"), rec.Field("yordinate"), postcode),
				}}, nil
			},
		},
		Addresses: &AddressSource{
			File: FileSpec{Type: fetcher.TypeCSV},
			Transform: func(_ context.Context, rec *fetcher.Record) ([]model.ResidentialAddress, error) {
				if strings.TrimSpace(rec.Field("postcode")) == "" {
					return nil, nil
				}
				address := joinAddress(", ", addressParts(rec)...)
				if strings.Contains(address, "Dummy Record") {
					return nil, nil
				}
				return []model.ResidentialAddress{{
					CouncilID:        councilID,
					Address:          address,
					Postcode:         strings.TrimSpace(rec.Field("postcode")),
					PollingStationID: stationID(rec),
				}}, nil
			},
		},
	}
}
