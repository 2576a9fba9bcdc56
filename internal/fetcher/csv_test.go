package fetcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadCSV_Basic(t *testing.T) {
	path := writeFile(t, "stations.csv", []byte(
		"Station ID,Address,Postcode\nAA,Town Hall,BN15 6DN\nBB,\"Church, South St\",BN15 8AA\n"))

	records, err := Load(t.Context(), path, TypeCSV, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "AA", records[0].Field("stationid"))
	assert.Equal(t, "Church, South St", records[1].Field("address"))
}

func TestLoadCSV_TabDelimited(t *testing.T) {
	path := writeFile(t, "stations.tsv", []byte("id\taddress\nAA\tTown Hall\n"))

	records, err := Load(t.Context(), path, TypeCSV, Options{Delimiter: '\t'})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Town Hall", records[0].Field("address"))
}

func TestLoadCSV_Latin1Encoding(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte("id,name\n1,Café Hall\n"))
	require.NoError(t, err)
	path := writeFile(t, "latin.csv", raw)

	records, errLoad := Load(t.Context(), path, TypeCSV, Options{Encoding: "windows-1252"})
	require.NoError(t, errLoad)
	require.Len(t, records, 1)
	assert.Equal(t, "Café Hall", records[0].Field("name"))
}

func TestLoadCSV_RaggedRows(t *testing.T) {
	path := writeFile(t, "ragged.csv", []byte("a,b,c\n1,2\n3,4,5,6\n"))

	records, err := Load(t.Context(), path, TypeCSV, Options{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[0].Field("c"))
	assert.Equal(t, "5", records[1].Field("c"))
}
