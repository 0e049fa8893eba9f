// Package presentation formats resolutions for people.
package presentation

import (
	"fmt"

	"github.com/yourusername/mlb-predictor/internal/resolution"
	"github.com/yourusername/mlb-predictor/internal/team"
)

// Level is the severity a surface should display a view with.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Unavailable is shown in tables when no winner could be picked.
const Unavailable = "Unavailable"

// UnknownTeamMessage is shown when a requested abbreviation is not registered.
const UnknownTeamMessage = "One or both teams not found in training data."

// View is a display-ready rendering of one resolution.
type View struct {
	Level   Level    `json:"level"`
	Status  string   `json:"status"`
	Winner  string   `json:"winner,omitempty"`
	Margin  *float64 `json:"margin,omitempty"`
	Message string   `json:"message"`
	Detail  string   `json:"detail,omitempty"`
}

// Render turns a resolution into a view. The registry maps ids back to
// abbreviations; an id missing from it renders as its number.
func Render(res resolution.Resolution, reg *team.Registry) View {
	v := View{Status: res.Status.String()}

	switch res.Status {
	case resolution.BothKnown:
		v.Level = LevelSuccess
		v.Winner = abbr(reg, res.Winner)
		v.Margin = res.Margin
		v.Message = fmt.Sprintf("Predicted Winner: %s", v.Winner)
		if res.Margin != nil {
			v.Detail = fmt.Sprintf("Confidence margin: %s", FormatMargin(*res.Margin))
		}
	case resolution.OnlyOneKnown:
		v.Level = LevelWarning
		v.Winner = abbr(reg, res.Winner)
		v.Message = fmt.Sprintf("Only one team was in training data. Default winner: %s", v.Winner)
	default:
		v.Level = LevelError
		v.Message = "Neither team is in training data."
	}
	return v
}

// RenderUnknownTeam is the view for a request naming an unregistered team.
func RenderUnknownTeam(err error) View {
	return View{
		Level:   LevelError,
		Status:  "UNKNOWN_TEAM",
		Message: UnknownTeamMessage,
		Detail:  err.Error(),
	}
}

// FormatMargin renders a probability delta as a percentage with two decimals.
func FormatMargin(margin float64) string {
	return fmt.Sprintf("%.2f%%", margin*100)
}

// WinnerOrUnavailable is the table cell for a resolution's winner.
func WinnerOrUnavailable(res resolution.Resolution, reg *team.Registry) string {
	if res.Winner == nil {
		return Unavailable
	}
	return abbr(reg, res.Winner)
}

func abbr(reg *team.Registry, id *team.ID) string {
	if id == nil {
		return ""
	}
	if reg != nil {
		if a, ok := reg.Abbr(*id); ok {
			return a
		}
	}
	return fmt.Sprintf("#%d", int(*id))
}
