// Package features assembles the fixed-order numeric vectors fed to the
// winner classifier.
package features

import (
	"fmt"

	"github.com/yourusername/mlb-predictor/internal/team"
)

const (
	// MinimalArity is the identity-only schema: home id, away id.
	MinimalArity = 2

	// ExtendedArity adds win%, walks issued, strikeouts thrown and total bases per side.
	ExtendedArity = 10
)

// ColumnNames lists the extended schema's training columns in order. The
// minimal schema is its first MinimalArity entries.
var ColumnNames = []string{
	"home_id", "away_id",
	"home_win_pct", "away_win_pct",
	"Walks Issued - Home", "Walks Issued - Away",
	"Strikeouts Thrown - Home", "Strikeouts Thrown - Away",
	"Total Bases - Home", "Total Bases - Away",
}

// Vector is an ordered feature vector. It is built per request and never mutated.
type Vector []float64

// Arity returns the number of fields.
func (v Vector) Arity() int {
	return len(v)
}

// Build assembles the vector for a matchup. A nil stats bundle yields the
// minimal vector; otherwise all ten fields are emitted.
func Build(home, away string, reg *team.Registry, stats *AuxStats) (Vector, error) {
	homeID, err := reg.ID(home)
	if err != nil {
		return nil, err
	}
	awayID, err := reg.ID(away)
	if err != nil {
		return nil, err
	}

	if stats == nil {
		return Vector{float64(homeID), float64(awayID)}, nil
	}
	if err := stats.Validate(); err != nil {
		return nil, err
	}

	vec := make(Vector, 0, ExtendedArity)
	vec = append(vec, float64(homeID), float64(awayID))
	vec = append(vec, stats.values()...)
	return vec, nil
}

// CheckArity rejects a vector whose arity differs from what the classifier expects.
func CheckArity(v Vector, want int) error {
	if v.Arity() != want {
		return fmt.Errorf("%w: got %d fields, classifier expects %d", ErrArityMismatch, v.Arity(), want)
	}
	return nil
}
