// Package resolution turns a classifier distribution and two candidate teams
// into a single predicted winner.
package resolution

import (
	"fmt"
	"math"

	"github.com/yourusername/mlb-predictor/internal/ml"
	"github.com/yourusername/mlb-predictor/internal/team"
)

// Status classifies how much of a matchup the classifier could score.
type Status int

const (
	// NeitherKnown means neither team was ever a winner label in training.
	NeitherKnown Status = iota
	// OnlyOneKnown means one team defaults to the winner without comparison.
	OnlyOneKnown
	// BothKnown means the winner was picked by comparing probabilities.
	BothKnown
)

var statusNames = map[Status]string{
	NeitherKnown: "NEITHER_KNOWN",
	OnlyOneKnown: "ONLY_ONE_KNOWN",
	BothKnown:    "BOTH_KNOWN",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText renders the status name in JSON and logs.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown resolution status %q", text)
}

// Resolution is the outcome for one matchup. Winner and Margin are nil when
// the status does not define them.
type Resolution struct {
	Winner *team.ID
	Margin *float64
	Status Status
}

// Resolve applies the winner policy. It never fails.
//
// Each slot is checked on its own, so a matchup of a team against itself
// counts as both known and resolves to a zero-margin home win.
func Resolve(home, away team.ID, dist ml.Distribution) Resolution {
	pHome, homeKnown := dist.Probability(home)
	pAway, awayKnown := dist.Probability(away)

	switch {
	case homeKnown && awayKnown:
		winner := home
		if pAway > pHome {
			winner = away
		}
		margin := math.Abs(pHome - pAway)
		return Resolution{Winner: &winner, Margin: &margin, Status: BothKnown}
	case homeKnown:
		return Resolution{Winner: &home, Status: OnlyOneKnown}
	case awayKnown:
		return Resolution{Winner: &away, Status: OnlyOneKnown}
	default:
		return Resolution{Status: NeitherKnown}
	}
}
