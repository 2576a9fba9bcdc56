package fetcher

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// kmlPlacemark mirrors the subset of KML council exports actually use.
// Z values in coordinate triplets are dropped on parse.
type kmlPlacemark struct {
	Name    string `xml:"name"`
	Point   *struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
	LineString *struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"LineString"`
	Polygon       *kmlPolygon `xml:"Polygon"`
	MultiGeometry *struct {
		Polygons []kmlPolygon `xml:"Polygon"`
	} `xml:"MultiGeometry"`
}

type kmlPolygon struct {
	Outer struct {
		Coordinates string `xml:"LinearRing>coordinates"`
	} `xml:"outerBoundaryIs"`
}

// loadKML reads KML placemarks into records. The placemark name is
// exposed as the "name" field.
func loadKML(ctx context.Context, path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "kml: open %s", path)
	}
	defer f.Close()

	decoder := xml.NewDecoder(f)

	var records []Record
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "kml: context cancelled")
		}

		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "kml: parse %s", path)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}

		var pm kmlPlacemark
		if err := decoder.DecodeElement(&pm, &se); err != nil {
			return nil, eris.Wrapf(err, "kml: decode placemark in %s", path)
		}

		g, err := placemarkGeom(pm)
		if err != nil {
			return nil, eris.Wrapf(err, "kml: placemark %q in %s", pm.Name, path)
		}

		records = append(records, NewRecord(map[string]string{"name": pm.Name}, g))
	}

	return records, nil
}

func placemarkGeom(pm kmlPlacemark) (geom.T, error) {
	switch {
	case pm.Point != nil:
		flat, err := kmlCoords(pm.Point.Coordinates)
		if err != nil || len(flat) < 2 {
			return nil, err
		}
		return geom.NewPointFlat(geom.XY, flat[:2]), nil

	case pm.LineString != nil:
		flat, err := kmlCoords(pm.LineString.Coordinates)
		if err != nil {
			return nil, err
		}
		return geom.NewLineStringFlat(geom.XY, flat), nil

	case pm.Polygon != nil:
		return kmlPolygons([]kmlPolygon{*pm.Polygon})

	case pm.MultiGeometry != nil && len(pm.MultiGeometry.Polygons) > 0:
		return kmlPolygons(pm.MultiGeometry.Polygons)

	default:
		return nil, nil
	}
}

func kmlPolygons(polys []kmlPolygon) (geom.T, error) {
	mp := geom.NewMultiPolygon(geom.XY)
	for _, kp := range polys {
		flat, err := kmlCoords(kp.Outer.Coordinates)
		if err != nil {
			return nil, err
		}
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			return nil, eris.Wrap(err, "push ring")
		}
		if err := mp.Push(poly); err != nil {
			return nil, eris.Wrap(err, "push polygon")
		}
	}
	return mp, nil
}

// kmlCoords parses a KML coordinate string ("lon,lat[,z] lon,lat[,z]...")
// into flat XY coordinates, dropping any Z component.
func kmlCoords(raw string) ([]float64, error) {
	var flat []float64
	for _, triplet := range strings.Fields(raw) {
		parts := strings.Split(triplet, ",")
		if len(parts) < 2 {
			return nil, eris.Errorf("malformed coordinate %q", triplet)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parse longitude %q", parts[0])
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parse latitude %q", parts[1])
		}
		flat = append(flat, lon, lat)
	}
	return flat, nil
}
