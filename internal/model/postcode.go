package model

import "strings"

// NormalizePostcode strips everything except A-Z/0-9 and uppercases.
// Postcode lookups across the system rely on this canonical form, so it
// is applied uniformly regardless of source format. Idempotent.
func NormalizePostcode(postcode string) string {
	var b strings.Builder
	b.Grow(len(postcode))
	for _, r := range strings.ToUpper(postcode) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PostcodeWithSpace renders a normalized postcode in the conventional
// "outward inward" form (inward code is always the last 3 characters).
// Reference datasets key postcodes in this form.
func PostcodeWithSpace(postcode string) string {
	pc := NormalizePostcode(postcode)
	if len(pc) < 4 {
		return pc
	}
	return pc[:len(pc)-3] + " " + pc[len(pc)-3:]
}

// PostcodeTerritory reports which part of the UK a postcode belongs to.
// Northern Ireland postcodes all share the BT outward prefix.
func PostcodeTerritory(postcode string) string {
	pc := NormalizePostcode(postcode)
	if strings.HasPrefix(pc, "BT") {
		return "NI"
	}
	return "GB"
}
