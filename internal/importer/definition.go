package importer

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"gopkg.in/yaml.v3"

	"github.com/democracyclub/pollingstations-cli/internal/fetcher"
	"github.com/democracyclub/pollingstations-cli/internal/model"
)

// Definition is one council's entry in the definitions file. Most
// councils are fully described here; the ems field selects a preset for
// the common software exports and the file blocks override its defaults.
type Definition struct {
	CouncilID string `yaml:"council_id"`
	SRID      int    `yaml:"srid"`
	EMS       string `yaml:"ems"`

	Stations  *FileDef `yaml:"stations"`
	Districts *FileDef `yaml:"districts"`
	Addresses *FileDef `yaml:"addresses"`
}

// FileDef describes one input file and how its columns map onto entity
// fields.
type FileDef struct {
	Filename  string   `yaml:"filename"`
	URL       string   `yaml:"url"`
	Type      string   `yaml:"type"`
	Encoding  string   `yaml:"encoding"`
	Delimiter string   `yaml:"delimiter"`
	RecordTag string   `yaml:"record_tag"`
	SRID      int      `yaml:"srid"`
	Fields    FieldMap `yaml:"fields"`
}

// FieldMap names the source columns that hold each entity field. Column
// names are matched after normalization, so "Polling District" and
// "pollingdistrict" both work.
type FieldMap struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	ExtraID   string `yaml:"extra_id"`
	Address   string `yaml:"address"`
	Postcode  string `yaml:"postcode"`
	StationID string `yaml:"station_id"`
	UPRN      string `yaml:"uprn"`
	Easting   string `yaml:"easting"`
	Northing  string `yaml:"northing"`
}

// LoadDefinitions reads the council definitions file.
func LoadDefinitions(path string) ([]Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: reading definitions %s", path)
	}
	var defs []Definition
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, eris.Wrapf(err, "importer: parsing definitions %s", path)
	}
	return defs, nil
}

// FindDefinition returns the entry for a council id.
func FindDefinition(defs []Definition, councilID string) (*Definition, error) {
	for i := range defs {
		if defs[i].CouncilID == councilID {
			return &defs[i], nil
		}
	}
	return nil, eris.Errorf("importer: no definition for council %s", councilID)
}

// Build assembles an Importer from a definition. With an ems preset the
// definition's file blocks override the preset's file specs; without one
// the field maps drive generic transforms.
func (d *Definition) Build(loc PointLocator) (*Importer, error) {
	if d.CouncilID == "" {
		return nil, eris.New("importer: definition missing council_id")
	}

	var imp *Importer
	if d.EMS != "" {
		preset, err := emsImporter(d.EMS, d.CouncilID, loc)
		if err != nil {
			return nil, err
		}
		imp = preset
	} else {
		imp = d.genericImporter()
	}

	if d.SRID != 0 {
		imp.SRID = d.SRID
	}
	if d.Stations != nil && imp.Stations != nil {
		applyFileDef(&imp.Stations.File, d.Stations)
	}
	if d.Districts != nil && imp.Districts != nil {
		applyFileDef(&imp.Districts.File, d.Districts)
	}
	if d.Addresses != nil && imp.Addresses != nil {
		applyFileDef(&imp.Addresses.File, d.Addresses)
	}
	return imp, nil
}

func emsImporter(name, councilID string, loc PointLocator) (*Importer, error) {
	switch name {
	case "xpress_weblookup":
		return XpressWebLookup(councilID, loc), nil
	case "xpress_democracyclub":
		return XpressDemocracyClub(councilID, loc), nil
	case "xpress_dc_inconsistent_postcodes":
		return XpressDCInconsistentPostcodes(councilID, loc), nil
	case "halarose":
		return Halarose(councilID, loc), nil
	case "democracy_counts":
		return DemocracyCounts(councilID, loc), nil
	default:
		return nil, eris.Errorf("importer: unknown ems preset %q", name)
	}
}

func applyFileDef(spec *FileSpec, def *FileDef) {
	if def.Filename != "" {
		spec.Filename = def.Filename
	}
	if def.URL != "" {
		spec.URL = def.URL
	}
	if def.Type != "" {
		spec.Type = fetcher.Type(def.Type)
	}
	if def.Encoding != "" {
		spec.Options.Encoding = def.Encoding
	}
	if def.Delimiter != "" {
		spec.Options.Delimiter = rune(def.Delimiter[0])
	}
	if def.RecordTag != "" {
		spec.Options.RecordTag = def.RecordTag
	}
	if def.SRID != 0 {
		spec.SRID = def.SRID
	}
}

// genericImporter builds field-mapped transforms from the definition.
// Each declared file block becomes a source of the matching kind.
func (d *Definition) genericImporter() *Importer {
	imp := &Importer{CouncilID: d.CouncilID, SRID: d.SRID}

	if d.Stations != nil {
		fields := d.Stations.Fields
		imp.Stations = &StationSource{
			Transform: func(_ context.Context, rec *fetcher.Record) ([]model.PollingStation, error) {
				st := model.PollingStation{
					CouncilID:         d.CouncilID,
					InternalCouncilID: mapped(rec, fields.ID),
					Address:           mapped(rec, fields.Address),
					Postcode:          mapped(rec, fields.Postcode),
				}
				if fields.Easting != "" {
					st.Location = gridPointSRID(
						rec.Field(fields.Easting), rec.Field(fields.Northing), d.SRID)
				}
				return []model.PollingStation{st}, nil
			},
		}
	}

	if d.Districts != nil {
		fields := d.Districts.Fields
		imp.Districts = &DistrictSource{
			Transform: func(_ context.Context, rec *fetcher.Record) ([]model.PollingDistrict, error) {
				return []model.PollingDistrict{{
					CouncilID:         d.CouncilID,
					InternalCouncilID: mapped(rec, fields.ID),
					Name:              mapped(rec, fields.Name),
					ExtraID:           mapped(rec, fields.ExtraID),
					PollingStationID:  mapped(rec, fields.StationID),
				}}, nil
			},
		}
	}

	if d.Addresses != nil {
		fields := d.Addresses.Fields
		imp.Addresses = &AddressSource{
			Transform: func(_ context.Context, rec *fetcher.Record) ([]model.ResidentialAddress, error) {
				address := mapped(rec, fields.Address)
				postcode := mapped(rec, fields.Postcode)
				if address == "" && postcode == "" {
					return nil, nil
				}
				return []model.ResidentialAddress{{
					CouncilID:        d.CouncilID,
					Address:          address,
					Postcode:         postcode,
					PollingStationID: mapped(rec, fields.StationID),
					UPRN:             mapped(rec, fields.UPRN),
				}}, nil
			},
		}
	}

	return imp
}

func mapped(rec *fetcher.Record, column string) string {
	if column == "" {
		return ""
	}
	return strings.TrimSpace(rec.Field(column))
}

func gridPointSRID(easting, northing string, srid int) *geom.Point {
	p := gridPoint(easting, northing)
	if p == nil {
		return nil
	}
	if srid != 0 {
		p.SetSRID(srid)
	}
	return p
}
