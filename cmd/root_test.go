package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"import", "importers", "geocode", "route"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "pollingstations", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestImportCommand_Flags(t *testing.T) {
	flag := importCmd.Flags().Lookup("batch-size")
	require.NotNil(t, flag, "import command should have --batch-size flag")
	assert.Equal(t, "3000", flag.DefValue)

	require.NotNil(t, importCmd.Flags().Lookup("noclean"))
	require.NotNil(t, importCmd.Flags().Lookup("definitions"))
}

func TestGeocodeCommand_Flags(t *testing.T) {
	require.NotNil(t, geocodeCmd.Flags().Lookup("point-only"))
}
