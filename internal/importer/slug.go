package importer

import "strings"

// Slugify produces a URL-safe identifier: lowercase ASCII alphanumerics
// separated by single hyphens. Anything else collapses into a hyphen.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// addressSlug derives the stable identifier for a residential address.
// A UPRN is already unique nationally; without one the slug is built
// from everything that distinguishes the row.
func addressSlug(councilID, stationID, address, postcode, uprn string) string {
	if uprn != "" {
		return uprn
	}
	return Slugify(councilID + "-" + stationID + "-" + address + "-" + postcode)
}
