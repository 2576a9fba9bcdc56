package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePostcode_StripsNonAlnum(t *testing.T) {
	assert.Equal(t, "BN156DN", NormalizePostcode("BN15 6DN"))
	assert.Equal(t, "BN156DN", NormalizePostcode(" bn15-6dn "))
	assert.Equal(t, "BN156DN", NormalizePostcode("bn1 5 6dn!"))
}

func TestNormalizePostcode_Idempotent(t *testing.T) {
	inputs := []string{"BN15 6DN", "se1 7nq", "  EC1A 1BB  ", ""}
	for _, in := range inputs {
		once := NormalizePostcode(in)
		assert.Equal(t, once, NormalizePostcode(once))
	}
}

func TestNormalizePostcode_OnlyUpperAlnum(t *testing.T) {
	out := NormalizePostcode("  w1a *0a-x ")
	for _, r := range out {
		ok := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		assert.True(t, ok, "unexpected rune %q", r)
	}
}

func TestPostcodeWithSpace(t *testing.T) {
	assert.Equal(t, "BN15 6DN", PostcodeWithSpace("bn156dn"))
	assert.Equal(t, "W1A 0AX", PostcodeWithSpace("W1A0AX"))
	// too short to split
	assert.Equal(t, "BN1", PostcodeWithSpace("BN1"))
}

func TestPostcodeTerritory(t *testing.T) {
	assert.Equal(t, "NI", PostcodeTerritory("BT1 1AA"))
	assert.Equal(t, "GB", PostcodeTerritory("BN15 6DN"))
}
