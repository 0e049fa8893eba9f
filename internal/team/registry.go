// Package team maps team abbreviations to the dense integer ids the classifier
// was trained with.
package team

import (
	"fmt"
	"sort"
	"strings"
)

// ID is a dense, 0-based team id assigned in first-seen order.
type ID int

// Registry is an immutable bijection between abbreviations and ids.
type Registry struct {
	abbrToID map[string]ID
	idToAbbr []string
}

// Register assigns ids 0..N-1 to abbreviations in input order. A repeated
// abbreviation keeps the id of its first occurrence.
func Register(abbreviations []string) (*Registry, error) {
	if len(abbreviations) == 0 {
		return nil, ErrEmptyRegistry
	}

	reg := &Registry{
		abbrToID: make(map[string]ID, len(abbreviations)),
		idToAbbr: make([]string, 0, len(abbreviations)),
	}

	for i, abbr := range abbreviations {
		abbr = strings.TrimSpace(abbr)
		if abbr == "" {
			return nil, fmt.Errorf("%w at position %d", ErrBlankAbbreviation, i)
		}
		if _, seen := reg.abbrToID[abbr]; seen {
			continue
		}
		reg.abbrToID[abbr] = ID(len(reg.idToAbbr))
		reg.idToAbbr = append(reg.idToAbbr, abbr)
	}

	return reg, nil
}

// FromTables rebuilds a registry from persisted abbr_to_id and id_to_abbr
// tables. Both tables must describe the same contiguous 0..N-1 bijection.
func FromTables(abbrToID map[string]ID, idToAbbr map[ID]string) (*Registry, error) {
	if len(idToAbbr) == 0 {
		return nil, ErrEmptyRegistry
	}
	if len(abbrToID) != len(idToAbbr) {
		return nil, fmt.Errorf("%w: %d abbreviations vs %d ids", ErrInconsistentTables, len(abbrToID), len(idToAbbr))
	}

	ordered := make([]string, len(idToAbbr))
	for id, abbr := range idToAbbr {
		if id < 0 || int(id) >= len(idToAbbr) {
			return nil, fmt.Errorf("%w: id %d outside 0..%d", ErrInconsistentTables, id, len(idToAbbr)-1)
		}
		if strings.TrimSpace(abbr) != abbr {
			return nil, fmt.Errorf("%w: id %d has padded abbreviation %q", ErrInconsistentTables, id, abbr)
		}
		if back, ok := abbrToID[abbr]; !ok || back != id {
			return nil, fmt.Errorf("%w: %q does not map back to id %d", ErrInconsistentTables, abbr, id)
		}
		ordered[id] = abbr
	}

	reg, err := Register(ordered)
	if err != nil {
		return nil, err
	}
	if reg.Len() != len(ordered) {
		return nil, fmt.Errorf("%w: duplicate abbreviations", ErrInconsistentTables)
	}
	return reg, nil
}

// ID returns the id for an abbreviation.
func (r *Registry) ID(abbr string) (ID, error) {
	id, ok := r.abbrToID[abbr]
	if !ok {
		return 0, &UnknownTeamError{Abbr: abbr}
	}
	return id, nil
}

// Contains reports whether the abbreviation is registered.
func (r *Registry) Contains(abbr string) bool {
	_, ok := r.abbrToID[abbr]
	return ok
}

// Abbr returns the abbreviation for an id.
func (r *Registry) Abbr(id ID) (string, bool) {
	if id < 0 || int(id) >= len(r.idToAbbr) {
		return "", false
	}
	return r.idToAbbr[id], true
}

// Len returns the number of registered teams.
func (r *Registry) Len() int {
	return len(r.idToAbbr)
}

// Abbreviations returns abbreviations in id order.
func (r *Registry) Abbreviations() []string {
	out := make([]string, len(r.idToAbbr))
	copy(out, r.idToAbbr)
	return out
}

// SortedAbbreviations returns abbreviations alphabetically, for pick lists.
func (r *Registry) SortedAbbreviations() []string {
	out := r.Abbreviations()
	sort.Strings(out)
	return out
}

// AbbrToID returns a copy of the abbreviation -> id table.
func (r *Registry) AbbrToID() map[string]ID {
	out := make(map[string]ID, len(r.abbrToID))
	for k, v := range r.abbrToID {
		out[k] = v
	}
	return out
}

// IDToAbbr returns a copy of the id -> abbreviation table.
func (r *Registry) IDToAbbr() map[ID]string {
	out := make(map[ID]string, len(r.idToAbbr))
	for i, abbr := range r.idToAbbr {
		out[ID(i)] = abbr
	}
	return out
}

// Normalize canonicalizes user-entered abbreviations ("nyy " -> "NYY").
func Normalize(abbr string) string {
	return strings.ToUpper(strings.TrimSpace(abbr))
}
