package prefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/disclose/pkg/types"
)

func TestPrefilter_ProfilesWithMatchingKeywords(t *testing.T) {
	profiles := []*types.Profile{
		{ID: "binance", Received: types.Selection{Keypaths: []string{"price", "closeTime"}}},
		{ID: "revolut", Received: types.Selection{Keypaths: []string{"account.iban"}}},
	}

	pf := New(profiles)
	filtered := pf.Filter([]byte(`{"mins":5,"price":"1.0"}`))

	require.Len(t, filtered, 1)
	assert.Equal(t, "binance", filtered[0].ID)
}

func TestPrefilter_ProfilesWithoutKeywords(t *testing.T) {
	profiles := []*types.Profile{
		{ID: "headers-only", Received: types.Selection{Headers: []string{"Date"}}},
		{ID: "sent-only", Sent: types.Selection{Query: []string{"symbol"}}},
	}

	pf := New(profiles)
	filtered := pf.Filter([]byte("anything"))
	require.Len(t, filtered, 2)
}

func TestPrefilter_KeyMustBeQuoted(t *testing.T) {
	pf := New([]*types.Profile{{ID: "p", Received: types.Selection{Keypaths: []string{"price"}}}})

	assert.Empty(t, pf.Filter([]byte("the price is right")))
	assert.Len(t, pf.Filter([]byte(`{"price":1}`)), 1)
}

func TestPrefilter_SharedKeywordNoDuplicates(t *testing.T) {
	p := &types.Profile{ID: "p", Received: types.Selection{Keypaths: []string{"a.id", "b.id"}}}
	pf := New([]*types.Profile{p})

	filtered := pf.Filter([]byte(`{"id":1}`))
	require.Len(t, filtered, 1)
	assert.Same(t, p, filtered[0])
}

func TestPrefilter_NoProfiles(t *testing.T) {
	pf := New(nil)
	assert.Empty(t, pf.Filter([]byte("test content")))
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{`"b"`, `"c"`}, Keywords([]string{"a.b", "b", "c"}))
	assert.Empty(t, Keywords(nil))
}
