package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/democracyclub/pollingstations-cli/internal/model"
)

func TestStationSetCollapsesExactDuplicates(t *testing.T) {
	set := &StationSet{}
	st := model.PollingStation{CouncilID: "E00000001", InternalCouncilID: "1", Address: "Village Hall"}

	assert.True(t, set.Add("", st))
	assert.False(t, set.Add("", st))
	assert.Equal(t, 1, set.Len())
}

func TestStationSetKeyedDedup(t *testing.T) {
	set := &StationSet{}

	// Same key, different address text: the first row wins.
	assert.True(t, set.Add("st-1", model.PollingStation{InternalCouncilID: "1", Address: "Village Hall"}))
	assert.False(t, set.Add("st-1", model.PollingStation{InternalCouncilID: "1", Address: "Village Hall, High St"}))
	assert.True(t, set.Add("st-2", model.PollingStation{InternalCouncilID: "2", Address: "Village Hall"}))
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Seen("st-1"))
	assert.False(t, set.Seen("st-9"))
}

func TestStationSetMarkSeenDoesNotBlockFanOut(t *testing.T) {
	set := &StationSet{}

	// A source-row key marked up front must still admit every station
	// the row produces.
	set.MarkSeen("row-1")
	assert.True(t, set.Add("", model.PollingStation{InternalCouncilID: "1-AB", Address: "Village Hall"}))
	assert.True(t, set.Add("", model.PollingStation{InternalCouncilID: "1-CD", Address: "Village Hall"}))
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Seen("row-1"))
}

func TestStationSetDistinguishesByField(t *testing.T) {
	set := &StationSet{}
	assert.True(t, set.Add("", model.PollingStation{InternalCouncilID: "1", Address: "Village Hall"}))
	assert.True(t, set.Add("", model.PollingStation{InternalCouncilID: "2", Address: "Village Hall"}))
	assert.Equal(t, 2, set.Len())
}

func TestAddressSetNormalizesAndSlugs(t *testing.T) {
	set := NewAddressSet(0)
	set.Add(model.ResidentialAddress{
		CouncilID:        "E00000001",
		Address:          "1 High St",
		Postcode:         "sw1a 1aa",
		PollingStationID: "3",
	})
	set.Add(model.ResidentialAddress{
		CouncilID:        "E00000001",
		Address:          "2 High St",
		Postcode:         "SW1A 1AA",
		PollingStationID: "3",
		UPRN:             "100021342071",
	})

	require.Equal(t, 2, set.Len())
	assert.Equal(t, "SW1A1AA", set.addresses[0].Postcode)
	assert.Equal(t, "e00000001-3-1-high-st-sw1a1aa", set.addresses[0].Slug)
	assert.Equal(t, "100021342071", set.addresses[1].Slug)
}

func TestAddressSetSavesInBatches(t *testing.T) {
	st := newFakeStore()
	set := NewAddressSet(2)
	for i := 0; i < 5; i++ {
		set.Add(model.ResidentialAddress{
			CouncilID: "E00000001",
			Address:   string(rune('A'+i)) + " High St",
			Postcode:  "SW1A1AA",
		})
	}

	n, err := set.Save(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	// 2 + 2 + 1
	assert.Equal(t, 3, st.addressBatches)
	assert.Len(t, st.addresses, 5)
}

func TestAddressSetDefaultBatchSize(t *testing.T) {
	assert.Equal(t, DefaultBatchSize, NewAddressSet(0).batchSize)
	assert.Equal(t, DefaultBatchSize, NewAddressSet(-1).batchSize)
	assert.Equal(t, 10, NewAddressSet(10).batchSize)
}
