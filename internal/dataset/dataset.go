// Package dataset reads historical game results and derives winner-labelled
// training samples.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yourusername/mlb-predictor/internal/team"
)

// Required CSV columns.
const (
	ColumnHome      = "home"
	ColumnAway      = "away"
	ColumnHomeScore = "home-score"
	ColumnAwayScore = "away-score"
)

// ErrMissingColumn indicates the CSV header lacks a required column
var ErrMissingColumn = errors.New("missing required column")

// Game is one historical result.
type Game struct {
	Home      string
	Away      string
	HomeScore float64
	AwayScore float64
}

// Winner returns the winning abbreviation, or "" for a tie.
func (g Game) Winner() string {
	switch {
	case g.HomeScore > g.AwayScore:
		return g.Home
	case g.HomeScore < g.AwayScore:
		return g.Away
	default:
		return ""
	}
}

// LoadGames parses a games CSV. Rows with a blank or unparseable required
// cell are skipped; extra columns are ignored.
func LoadGames(r io.Reader) ([]Game, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	cols := make([]int, 0, 4)
	for _, name := range []string{ColumnHome, ColumnAway, ColumnHomeScore, ColumnAwayScore} {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		cols = append(cols, i)
	}

	var games []Game
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		game, ok := parseRow(record, cols)
		if !ok {
			continue
		}
		games = append(games, game)
	}

	return games, nil
}

func parseRow(record []string, cols []int) (Game, bool) {
	cell := func(i int) string {
		if cols[i] >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[cols[i]])
	}

	home, away := team.Normalize(cell(0)), team.Normalize(cell(1))
	if home == "" || away == "" {
		return Game{}, false
	}
	homeScore, err := strconv.ParseFloat(cell(2), 64)
	if err != nil {
		return Game{}, false
	}
	awayScore, err := strconv.ParseFloat(cell(3), 64)
	if err != nil {
		return Game{}, false
	}

	return Game{Home: home, Away: away, HomeScore: homeScore, AwayScore: awayScore}, true
}

// Labeled drops ties.
func Labeled(games []Game) []Game {
	out := make([]Game, 0, len(games))
	for _, g := range games {
		if g.Winner() != "" {
			out = append(out, g)
		}
	}
	return out
}

// TeamOrder lists abbreviations in first-seen order over non-tie games,
// home before away within a game. Feeding it to team.Register reproduces the
// ids the model was trained with.
func TeamOrder(games []Game) []string {
	seen := make(map[string]bool)
	var order []string
	for _, g := range Labeled(games) {
		for _, abbr := range []string{g.Home, g.Away} {
			if !seen[abbr] {
				seen[abbr] = true
				order = append(order, abbr)
			}
		}
	}
	return order
}

// Sample is one encoded training row.
type Sample struct {
	HomeID   team.ID
	AwayID   team.ID
	WinnerID team.ID
}

// BuildSamples encodes non-tie games against the registry.
func BuildSamples(games []Game, reg *team.Registry) ([]Sample, error) {
	labeled := Labeled(games)
	samples := make([]Sample, 0, len(labeled))
	for _, g := range labeled {
		homeID, err := reg.ID(g.Home)
		if err != nil {
			return nil, err
		}
		awayID, err := reg.ID(g.Away)
		if err != nil {
			return nil, err
		}
		winnerID := homeID
		if g.Winner() == g.Away {
			winnerID = awayID
		}
		samples = append(samples, Sample{HomeID: homeID, AwayID: awayID, WinnerID: winnerID})
	}
	return samples, nil
}

// WriteSamples writes home_id,away_id,winner_id rows with a header.
func WriteSamples(w io.Writer, samples []Sample) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"home_id", "away_id", "winner_id"}); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			strconv.Itoa(int(s.HomeID)),
			strconv.Itoa(int(s.AwayID)),
			strconv.Itoa(int(s.WinnerID)),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WinnerCounts tallies wins per abbreviation. Teams that never won are absent,
// which is why a classifier's known classes can be a strict subset of the
// registry.
func WinnerCounts(games []Game) map[string]int {
	counts := make(map[string]int)
	for _, g := range Labeled(games) {
		counts[g.Winner()]++
	}
	return counts
}
