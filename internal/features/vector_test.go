package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mlb-predictor/internal/team"
)

func testRegistry(t *testing.T) *team.Registry {
	t.Helper()
	reg, err := team.Register([]string{"NYY", "BOS", "TB"})
	require.NoError(t, err)
	return reg
}

func TestBuildMinimal(t *testing.T) {
	reg := testRegistry(t)

	vec, err := Build("BOS", "TB", reg, nil)
	require.NoError(t, err)
	assert.Equal(t, Vector{1, 2}, vec)
	assert.Equal(t, MinimalArity, vec.Arity())
}

func TestBuildExtended(t *testing.T) {
	reg := testRegistry(t)
	stats := &AuxStats{
		Home: SideStats{WinPct: 0.6, WalksIssued: 3.2, StrikeoutsThrown: 9.4, TotalBases: 13.1},
		Away: SideStats{WinPct: 0.45, WalksIssued: 2.9, StrikeoutsThrown: 7.7, TotalBases: 11.0},
	}

	vec, err := Build("NYY", "BOS", reg, stats)
	require.NoError(t, err)
	assert.Equal(t, ExtendedArity, vec.Arity())
	assert.Equal(t, Vector{0, 1, 0.6, 0.45, 3.2, 2.9, 9.4, 7.7, 13.1, 11.0}, vec)
	assert.Len(t, ColumnNames, ExtendedArity)
}

func TestBuildUnknownTeam(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		home string
		away string
		want string
	}{
		{"home unknown, away valid", "SEA", "BOS", "SEA"},
		{"home unknown, away unknown", "SEA", "OAK", "SEA"},
		{"away unknown", "NYY", "OAK", "OAK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.home, tt.away, reg, nil)
			require.ErrorIs(t, err, team.ErrUnknownTeam)

			var unknown *team.UnknownTeamError
			require.ErrorAs(t, err, &unknown)
			assert.Equal(t, tt.want, unknown.Abbr)
		})
	}
}

func TestBuildRejectsInvalidStats(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name   string
		mutate func(s *AuxStats)
	}{
		{"win pct above one", func(s *AuxStats) { s.Home.WinPct = 1.2 }},
		{"negative walks", func(s *AuxStats) { s.Away.WalksIssued = -1 }},
		{"NaN total bases", func(s *AuxStats) { s.Home.TotalBases = math.NaN() }},
		{"infinite strikeouts", func(s *AuxStats) { s.Away.StrikeoutsThrown = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := TypicalStats()
			tt.mutate(stats)

			_, err := Build("NYY", "BOS", reg, stats)
			assert.ErrorIs(t, err, ErrInvalidStats)
		})
	}
}

func TestDefaultBundlesAreValid(t *testing.T) {
	require.NoError(t, NeutralStats().Validate())
	require.NoError(t, TypicalStats().Validate())
}

func TestCheckArity(t *testing.T) {
	assert.NoError(t, CheckArity(Vector{0, 1}, MinimalArity))

	err := CheckArity(Vector{0, 1}, ExtendedArity)
	assert.ErrorIs(t, err, ErrArityMismatch)
	assert.Contains(t, err.Error(), "got 2 fields")
}
