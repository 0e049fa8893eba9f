package features

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SideStats holds one team's rolling performance inputs.
type SideStats struct {
	WinPct           float64 `json:"win_pct" validate:"gte=0,lte=1"`
	WalksIssued      float64 `json:"walks_issued" validate:"gte=0"`
	StrikeoutsThrown float64 `json:"strikeouts_thrown" validate:"gte=0"`
	TotalBases       float64 `json:"total_bases" validate:"gte=0"`
}

// AuxStats is the full 8-value bundle for the extended model. Both sides are
// always present: the trained schema has no notion of a partial bundle.
type AuxStats struct {
	Home SideStats `json:"home"`
	Away SideStats `json:"away"`
}

// NeutralStats is used when live stats cannot be fetched for a matchup.
func NeutralStats() *AuxStats {
	side := SideStats{WinPct: 0.50, WalksIssued: 3.0, StrikeoutsThrown: 8.0, TotalBases: 12.0}
	return &AuxStats{Home: side, Away: side}
}

// TypicalStats are league-typical inputs offered when a caller does not
// customize stats for a single-game prediction.
func TypicalStats() *AuxStats {
	return &AuxStats{
		Home: SideStats{WinPct: 0.55, WalksIssued: 3.1, StrikeoutsThrown: 8.9, TotalBases: 12.3},
		Away: SideStats{WinPct: 0.48, WalksIssued: 2.8, StrikeoutsThrown: 9.1, TotalBases: 11.5},
	}
}

// Validate checks every value is finite and within range.
func (s *AuxStats) Validate() error {
	for _, v := range s.values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value %v", ErrInvalidStats, v)
		}
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStats, err)
	}
	return nil
}

// values returns the stats in trained column order.
func (s *AuxStats) values() []float64 {
	return []float64{
		s.Home.WinPct, s.Away.WinPct,
		s.Home.WalksIssued, s.Away.WalksIssued,
		s.Home.StrikeoutsThrown, s.Away.StrikeoutsThrown,
		s.Home.TotalBases, s.Away.TotalBases,
	}
}
