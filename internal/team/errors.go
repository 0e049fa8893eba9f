package team

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyRegistry indicates a registry was built from zero abbreviations
	ErrEmptyRegistry = errors.New("team registry is empty")

	// ErrUnknownTeam indicates an abbreviation is absent from the registry
	ErrUnknownTeam = errors.New("unknown team")

	// ErrBlankAbbreviation indicates an empty abbreviation in registry input
	ErrBlankAbbreviation = errors.New("blank team abbreviation")

	// ErrInconsistentTables indicates persisted mapping tables are not a bijection
	ErrInconsistentTables = errors.New("inconsistent team mapping tables")
)

// UnknownTeamError reports the abbreviation that failed a registry lookup.
type UnknownTeamError struct {
	Abbr string
}

func (e *UnknownTeamError) Error() string {
	return fmt.Sprintf("team %q not found in training data", e.Abbr)
}

// Is lets errors.Is match ErrUnknownTeam.
func (e *UnknownTeamError) Is(target error) bool {
	return target == ErrUnknownTeam
}
