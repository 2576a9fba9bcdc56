// Package routing decides which lookup flow a postcode should follow:
// straight to one address's station, an address picker, a live geocode,
// or the "spans multiple councils" page.
package routing

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/democracyclub/pollingstations-cli/internal/model"
)

// Outcome identifies the next step for a postcode lookup.
type Outcome string

const (
	// OutcomeMultipleCouncils: manual override table maps the postcode
	// to more than one council. Checked before everything else.
	OutcomeMultipleCouncils Outcome = "multiple_councils"

	// OutcomeSingleAddress: every address in the postcode shares one
	// polling station.
	OutcomeSingleAddress Outcome = "single_address"

	// OutcomeMultipleAddresses: addresses map to several stations; the
	// caller must present a picker.
	OutcomeMultipleAddresses Outcome = "multiple_addresses"

	// OutcomePostcode: no address records; the caller must geocode live.
	OutcomePostcode Outcome = "postcode"
)

// Endpoint carries exactly the identifiers a caller needs to build its
// next request. Internal geometry and adapter detail never appear here.
type Endpoint struct {
	Outcome     Outcome
	AddressSlug string // set for single_address
	Postcode    string // set for the other outcomes
}

// Store is the slice of persistence the router needs.
type Store interface {
	// AddressesForPostcode returns the residential addresses matching a
	// normalized postcode.
	AddressesForPostcode(ctx context.Context, postcode string) ([]model.ResidentialAddress, error)

	// BlacklistCouncils returns the council ids attached to a postcode
	// in the manual override table; empty if the postcode is not listed.
	BlacklistCouncils(ctx context.Context, postcode string) ([]string, error)
}

// Router resolves postcodes to endpoints.
type Router struct {
	store Store
}

// NewRouter creates a Router over the given store.
func NewRouter(store Store) *Router {
	return &Router{store: store}
}

// Route decides the outcome for a postcode. Rules are evaluated in
// strict priority order; the first match wins.
func (r *Router) Route(ctx context.Context, postcode string) (*Endpoint, error) {
	postcode = model.NormalizePostcode(postcode)

	councils, err := r.store.BlacklistCouncils(ctx, postcode)
	if err != nil {
		return nil, eris.Wrap(err, "routing: check override table")
	}
	if len(councils) > 1 {
		return &Endpoint{Outcome: OutcomeMultipleCouncils, Postcode: postcode}, nil
	}

	addresses, err := r.store.AddressesForPostcode(ctx, postcode)
	if err != nil {
		return nil, eris.Wrap(err, "routing: fetch addresses")
	}
	if len(addresses) == 0 {
		return &Endpoint{Outcome: OutcomePostcode, Postcode: postcode}, nil
	}

	stations := make(map[string]struct{}, 1)
	for _, a := range addresses {
		stations[a.PollingStationID] = struct{}{}
	}
	if len(stations) == 1 {
		return &Endpoint{Outcome: OutcomeSingleAddress, AddressSlug: addresses[0].Slug}, nil
	}

	return &Endpoint{Outcome: OutcomeMultipleAddresses, Postcode: postcode}, nil
}
