package importer

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"St. Mary's Church Hall":   "st-mary-s-church-hall",
		"  leading and trailing  ": "leading-and-trailing",
		"UPPER case 123":           "upper-case-123",
		"multi---separators!!":     "multi-separators",
		"":                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestSlugifyIsURLSafe(t *testing.T) {
	safe := regexp.MustCompile(`^[a-z0-9-]*$`)
	for _, in := range []string{
		"Flat 2/1, 10 Byres Road", "Tŷ'r Ysgol", "No.1 The Green (annexe)",
	} {
		assert.Regexp(t, safe, Slugify(in))
	}
}

func TestAddressSlugPrefersUPRN(t *testing.T) {
	assert.Equal(t, "100021342071",
		addressSlug("E07000223", "3", "1 High St", "BN155AA", "100021342071"))
}

func TestAddressSlugWithoutUPRNIsDeterministic(t *testing.T) {
	a := addressSlug("E07000223", "3", "1 High St", "BN155AA", "")
	b := addressSlug("E07000223", "3", "1 High St", "BN155AA", "")
	assert.Equal(t, a, b)
	assert.Equal(t, "e07000223-3-1-high-st-bn155aa", a)
}

func TestAddressSlugDistinguishesAddresses(t *testing.T) {
	a := addressSlug("E07000223", "3", "1 High St", "BN155AA", "")
	b := addressSlug("E07000223", "3", "2 High St", "BN155AA", "")
	assert.NotEqual(t, a, b)
}
