package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerAppendDeduplicates(t *testing.T) {
	ledger := &NotFoundLedger{}

	require.True(t, ledger.Append(NotFoundRecord{ID: 3816, Name: "Some Show"}))
	assert.Equal(t, 1, ledger.Total)

	// same show id again, different payload
	require.False(t, ledger.Append(NotFoundRecord{ID: 3816, Name: "Some Show", Error: "boom"}))
	assert.Equal(t, 1, ledger.Total)
	assert.Len(t, ledger.Shows, 1)
	assert.Empty(t, ledger.Shows[0].Error)

	require.True(t, ledger.Append(NotFoundRecord{ID: 42, Name: "Another Show"}))
	assert.Equal(t, 2, ledger.Total)
}

func TestMatchOverridesLookup(t *testing.T) {
	overrides := &MatchOverrides{
		Overrides: []MatchOverride{
			{Name: "Breaking Bad", TmdbID: 1396},
			{Name: "Unfilled Show", TmdbID: 0},
		},
	}

	id, ok := overrides.Lookup("breaking bad")
	require.True(t, ok)
	assert.Equal(t, 1396, id)

	// placeholder entries do not resolve
	_, ok = overrides.Lookup("Unfilled Show")
	assert.False(t, ok)

	_, ok = overrides.Lookup("Unknown")
	assert.False(t, ok)

	// nil receiver is safe
	var none *MatchOverrides
	_, ok = none.Lookup("Breaking Bad")
	assert.False(t, ok)
}

func TestMatchOverridesAdd(t *testing.T) {
	overrides := &MatchOverrides{}
	overrides.Add("Show A", 0)
	overrides.Add("show a", 0) // case-insensitive duplicate
	overrides.Add("Show B", 7)

	assert.Len(t, overrides.Overrides, 2)
	assert.True(t, overrides.Has("SHOW A"))
}

func TestRunStatisticsFailures(t *testing.T) {
	stats := RunStatistics{Processed: 10, Updated: 6, NotFound: 2, UpdateFailed: 1, Errored: 1}
	assert.Equal(t, 4, stats.Failures())
}
