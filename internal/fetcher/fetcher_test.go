package fetcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFieldName(t *testing.T) {
	assert.Equal(t, "pollingplaceid", NormalizeFieldName("Polling Place ID"))
	assert.Equal(t, "polling_place_id", NormalizeFieldName("polling_place_id"))
	assert.Equal(t, "postcode", NormalizeFieldName("  POSTCODE "))
}

func TestRecord_FieldLookup(t *testing.T) {
	r := NewRecord(map[string]string{"Polling Place ID": " 12 ", "Postcode": "BN15 6DN"}, nil)
	assert.Equal(t, "12", r.Field("pollingplaceid"))
	assert.Equal(t, "BN15 6DN", r.Field("POSTCODE"))
	assert.True(t, r.Has("postcode"))
	assert.False(t, r.Has("missing"))
}

func TestDiscover(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "E07000223-adur")
	require.NoError(t, os.Mkdir(dir, 0o755))

	got, err := Discover(base, "E07000223")
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestDiscover_Missing(t *testing.T) {
	_, err := Discover(t.TempDir(), "E07000223")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E07000223-*")
}

func TestLoad_UnsupportedType(t *testing.T) {
	_, err := Load(t.Context(), "nope", Type("dbf"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported filetype")
}
