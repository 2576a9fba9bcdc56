package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/democracyclub/pollingstations-cli/internal/model"
)

type fakeStore struct {
	addresses map[string][]model.ResidentialAddress
	blacklist map[string][]string
}

func (f *fakeStore) AddressesForPostcode(ctx context.Context, postcode string) ([]model.ResidentialAddress, error) {
	return f.addresses[postcode], nil
}

func (f *fakeStore) BlacklistCouncils(ctx context.Context, postcode string) ([]string, error) {
	return f.blacklist[postcode], nil
}

func TestRoute_NoAddresses(t *testing.T) {
	r := NewRouter(&fakeStore{})

	ep, err := r.Route(context.Background(), "BN15 6DN")
	require.NoError(t, err)
	assert.Equal(t, OutcomePostcode, ep.Outcome)
	assert.Equal(t, "BN156DN", ep.Postcode)
	assert.Empty(t, ep.AddressSlug)
}

func TestRoute_SingleStation(t *testing.T) {
	r := NewRouter(&fakeStore{addresses: map[string][]model.ResidentialAddress{
		"BN156DN": {
			{Slug: "100010001", PollingStationID: "AA"},
			{Slug: "100010002", PollingStationID: "AA"},
		},
	}})

	ep, err := r.Route(context.Background(), "bn15 6dn")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSingleAddress, ep.Outcome)
	assert.Equal(t, "100010001", ep.AddressSlug)
}

func TestRoute_MultipleStations(t *testing.T) {
	r := NewRouter(&fakeStore{addresses: map[string][]model.ResidentialAddress{
		"BN156DN": {
			{Slug: "100010001", PollingStationID: "AA"},
			{Slug: "100010002", PollingStationID: "BB"},
		},
	}})

	ep, err := r.Route(context.Background(), "BN156DN")
	require.NoError(t, err)
	assert.Equal(t, OutcomeMultipleAddresses, ep.Outcome)
	assert.Equal(t, "BN156DN", ep.Postcode)
}

func TestRoute_OverrideBeatsEverything(t *testing.T) {
	// Postcode has addresses mapping to a single station, but the
	// override table lists two councils; the override wins.
	r := NewRouter(&fakeStore{
		addresses: map[string][]model.ResidentialAddress{
			"BB11BB": {{Slug: "x", PollingStationID: "AA"}},
		},
		blacklist: map[string][]string{
			"BB11BB": {"E07000223", "E07000224"},
		},
	})

	ep, err := r.Route(context.Background(), "BB1 1BB")
	require.NoError(t, err)
	assert.Equal(t, OutcomeMultipleCouncils, ep.Outcome)
	assert.Equal(t, "BB11BB", ep.Postcode)
}

func TestRoute_SingleOverrideCouncilIsNotAmbiguous(t *testing.T) {
	r := NewRouter(&fakeStore{blacklist: map[string][]string{
		"BB11BB": {"E07000223"},
	}})

	ep, err := r.Route(context.Background(), "BB11BB")
	require.NoError(t, err)
	assert.Equal(t, OutcomePostcode, ep.Outcome)
}
