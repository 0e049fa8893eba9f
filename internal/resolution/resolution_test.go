package resolution

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mlb-predictor/internal/ml"
	"github.com/yourusername/mlb-predictor/internal/team"
)

const (
	nyy team.ID = 0
	bos team.ID = 1
	tor team.ID = 2
	tex team.ID = 3
)

func dist(t *testing.T, classes []team.ID, probs []float64) ml.Distribution {
	t.Helper()
	d, err := ml.NewDistribution(classes, probs)
	require.NoError(t, err)
	return d
}

func TestResolveBothKnown(t *testing.T) {
	r := Resolve(nyy, bos, dist(t, []team.ID{nyy, bos}, []float64{0.7, 0.3}))

	assert.Equal(t, BothKnown, r.Status)
	require.NotNil(t, r.Winner)
	assert.Equal(t, nyy, *r.Winner)
	require.NotNil(t, r.Margin)
	assert.InDelta(t, 0.4, *r.Margin, 1e-9)
}

func TestResolveAwayWins(t *testing.T) {
	r := Resolve(nyy, bos, dist(t, []team.ID{nyy, bos, tor}, []float64{0.2, 0.5, 0.3}))

	assert.Equal(t, BothKnown, r.Status)
	assert.Equal(t, bos, *r.Winner)
	assert.InDelta(t, 0.3, *r.Margin, 1e-9)
}

func TestResolveExactTieGoesHome(t *testing.T) {
	r := Resolve(bos, nyy, dist(t, []team.ID{nyy, bos}, []float64{0.5, 0.5}))

	assert.Equal(t, BothKnown, r.Status)
	assert.Equal(t, bos, *r.Winner)
	assert.Equal(t, 0.0, *r.Margin)
}

func TestResolveSameTeam(t *testing.T) {
	r := Resolve(nyy, nyy, dist(t, []team.ID{nyy, bos}, []float64{0.6, 0.4}))

	assert.Equal(t, BothKnown, r.Status)
	assert.Equal(t, nyy, *r.Winner)
	assert.Equal(t, 0.0, *r.Margin)
}

func TestResolveOnlyOneKnown(t *testing.T) {
	tests := []struct {
		name       string
		home, away team.ID
		want       team.ID
	}{
		{"home known", nyy, bos, nyy},
		{"away known", bos, nyy, nyy},
	}

	d := dist(t, []team.ID{nyy}, []float64{1.0})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resolve(tt.home, tt.away, d)
			assert.Equal(t, OnlyOneKnown, r.Status)
			require.NotNil(t, r.Winner)
			assert.Equal(t, tt.want, *r.Winner)
			assert.Nil(t, r.Margin)
		})
	}
}

func TestResolveNeitherKnown(t *testing.T) {
	r := Resolve(tor, tex, dist(t, []team.ID{nyy, bos}, []float64{0.7, 0.3}))

	assert.Equal(t, NeitherKnown, r.Status)
	assert.Nil(t, r.Winner)
	assert.Nil(t, r.Margin)
}

func TestResolveZeroValueDistribution(t *testing.T) {
	r := Resolve(nyy, bos, ml.Distribution{})
	assert.Equal(t, NeitherKnown, r.Status)
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{NeitherKnown, OnlyOneKnown, BothKnown} {
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var back Status
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, s, back)
	}

	assert.Equal(t, `"ONLY_ONE_KNOWN"`, mustJSON(t, OnlyOneKnown))
	assert.Equal(t, "Status(9)", Status(9).String())

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("MAYBE")))
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
