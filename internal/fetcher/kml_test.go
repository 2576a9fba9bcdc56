package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

const districtKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>AB</name>
      <Polygon>
        <outerBoundaryIs>
          <LinearRing>
            <coordinates>
              -0.1,51.5,0 -0.1,51.6,0 -0.2,51.6,0 -0.1,51.5,0
            </coordinates>
          </LinearRing>
        </outerBoundaryIs>
      </Polygon>
    </Placemark>
    <Placemark>
      <name>Station 1</name>
      <Point><coordinates>-0.15,51.55</coordinates></Point>
    </Placemark>
  </Document>
</kml>`

func TestLoadKML(t *testing.T) {
	path := writeFile(t, "districts.kml", []byte(districtKML))

	records, err := Load(t.Context(), path, TypeKML, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "AB", records[0].Field("name"))
	mp, ok := records[0].Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	require.Equal(t, 1, mp.NumPolygons())
	// Z values dropped: coordinates are plain XY
	assert.Equal(t, geom.XY, mp.Layout())
	assert.Equal(t, geom.Coord{-0.1, 51.5}, mp.Polygon(0).Coords()[0][0])

	pt, ok := records[1].Geometry.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, -0.15, pt.X())
	assert.Equal(t, 51.55, pt.Y())
}

func TestLoadKML_Truncated(t *testing.T) {
	// Cut the document off mid-element: the parser must surface the
	// syntax error rather than treating it as end of input.
	path := writeFile(t, "truncated.kml", []byte(districtKML[:len(districtKML)/2]))

	_, err := Load(t.Context(), path, TypeKML, Options{})
	assert.Error(t, err)
}

func TestKMLCoords_Malformed(t *testing.T) {
	_, err := kmlCoords("notanumber,51.5")
	assert.Error(t, err)

	_, err = kmlCoords("justone")
	assert.Error(t, err)
}
