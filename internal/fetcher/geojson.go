package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// loadGeoJSON reads a GeoJSON FeatureCollection into records. Feature
// properties become fields; non-string values are rendered with their
// default formatting.
func loadGeoJSON(ctx context.Context, path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geojson: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "geojson: parse %s", path)
	}

	records := make([]Record, 0, len(fc.Features))
	for _, feature := range fc.Features {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "geojson: context cancelled")
		}

		fields := make(map[string]string, len(feature.Properties))
		for k, v := range feature.Properties {
			switch val := v.(type) {
			case nil:
				fields[k] = ""
			case string:
				fields[k] = val
			default:
				fields[k] = fmt.Sprint(val)
			}
		}

		records = append(records, NewRecord(fields, feature.Geometry))
	}

	return records, nil
}
