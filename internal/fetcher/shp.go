package fetcher

import (
	"context"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// loadShp reads a shapefile into records: DBF attributes become fields,
// the shape becomes the record geometry.
func loadShp(ctx context.Context, path string) ([]Record, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shp: open %s", path)
	}
	defer func() { _ = reader.Close() }()

	dbfFields := reader.Fields()
	names := make([]string, len(dbfFields))
	for i, f := range dbfFields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var records []Record
	var skipped int

	for reader.Next() {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "shp: context cancelled")
		}

		_, shape := reader.Shape()

		fields := make(map[string]string, len(names))
		for i, name := range names {
			val := strings.TrimRight(reader.Attribute(i), "\x00")
			fields[name] = strings.TrimSpace(val)
		}

		g := shapeToGeom(shape)
		if shape != nil && g == nil {
			skipped++
			continue
		}

		records = append(records, NewRecord(fields, g))
	}

	if skipped > 0 {
		zap.L().Debug("shp: skipped records with unsupported geometry",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return records, nil
}

// shapeToGeom converts a go-shp geometry to go-geom. Returns nil for
// unsupported or degenerate shapes.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})

	case *shp.PolyLine:
		return polyLineToMultiLineString(s)

	case *shp.Polygon:
		return polygonToMultiPolygon(s)

	default:
		return nil
	}
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY)

	for i := int32(0); i < pl.NumParts; i++ {
		coords := partCoords(pl.Parts, pl.Points, i, pl.NumParts)
		ls := geom.NewLineStringFlat(geom.XY, coords)
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("shp: skipping malformed linestring part", zap.Int32("part", i), zap.Error(err))
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)

	for i := int32(0); i < p.NumParts; i++ {
		coords := partCoords(p.Parts, p.Points, i, p.NumParts)
		ring := geom.NewLinearRingFlat(geom.XY, coords)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("shp: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("shp: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// partCoords extracts the flat coordinates of one part of a multi-part
// shapefile geometry.
func partCoords(parts []int32, points []shp.Point, i, numParts int32) []float64 {
	start := parts[i]
	end := int32(len(points))
	if i+1 < numParts {
		end = parts[i+1]
	}

	flat := make([]float64, 0, (end-start)*2)
	for j := start; j < end; j++ {
		flat = append(flat, points[j].X, points[j].Y)
	}
	return flat
}
