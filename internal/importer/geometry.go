package importer

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// ErrBadGeometry is returned when a source geometry cannot be coerced
// into the type the entity requires.
var ErrBadGeometry = eris.New("importer: geometry cannot be used")

// EnsureMultiPolygon coerces any polygonal geometry into a MultiPolygon
// tagged with the given SRID. Closed linestrings are repaired into a
// single-ring polygon; some councils publish district boundaries that way.
func EnsureMultiPolygon(g geom.T, srid int) (*geom.MultiPolygon, error) {
	switch t := g.(type) {
	case *geom.MultiPolygon:
		t.SetSRID(srid)
		return t, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)
		if err := mp.Push(t); err != nil {
			return nil, eris.Wrap(err, "importer: wrapping polygon")
		}
		return mp, nil
	case *geom.LineString:
		return lineStringToMultiPolygon(t, srid)
	case *geom.MultiLineString:
		if t.NumLineStrings() == 1 {
			return lineStringToMultiPolygon(t.LineString(0), srid)
		}
		return nil, ErrBadGeometry
	default:
		return nil, ErrBadGeometry
	}
}

func lineStringToMultiPolygon(ls *geom.LineString, srid int) (*geom.MultiPolygon, error) {
	coords := ls.Coords()
	if len(coords) < 4 {
		return nil, ErrBadGeometry
	}
	// A ring must close on itself.
	if !coords[0].Equal(geom.XY, coords[len(coords)-1]) {
		coords = append(coords, coords[0])
	}
	poly := geom.NewPolygon(geom.XY)
	if err := poly.Push(geom.NewLinearRing(geom.XY).MustSetCoords(coords)); err != nil {
		return nil, eris.Wrap(err, "importer: building ring")
	}
	mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)
	if err := mp.Push(poly); err != nil {
		return nil, eris.Wrap(err, "importer: wrapping repaired polygon")
	}
	return mp, nil
}

// FirstPoint extracts a representative point from any geometry: the
// point itself, or the first vertex of a line or polygon. Stations
// supplied as polygons get located at their first vertex.
func FirstPoint(g geom.T, srid int) (*geom.Point, error) {
	var c geom.Coord
	switch t := g.(type) {
	case *geom.Point:
		c = t.Coords()
	default:
		flat := g.FlatCoords()
		if len(flat) < 2 {
			return nil, ErrBadGeometry
		}
		c = geom.Coord{flat[0], flat[1]}
	}
	p := geom.NewPoint(geom.XY).SetSRID(srid)
	if _, err := p.SetCoords(c); err != nil {
		return nil, eris.Wrap(err, "importer: building point")
	}
	return p, nil
}
