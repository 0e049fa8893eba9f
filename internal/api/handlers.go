package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yourusername/mlb-predictor/internal/datasource"
	"github.com/yourusername/mlb-predictor/internal/features"
	"github.com/yourusername/mlb-predictor/internal/models"
	"github.com/yourusername/mlb-predictor/internal/news"
	"github.com/yourusername/mlb-predictor/internal/presentation"
	"github.com/yourusername/mlb-predictor/internal/service"
	"github.com/yourusername/mlb-predictor/internal/team"
)

const (
	defaultScheduleDays = 14
	maxScheduleDays     = 60
	defaultRecentLimit  = 20
	maxRecentLimit      = 200
)

// TeamInfo is one registered team.
type TeamInfo struct {
	Abbr    string  `json:"abbr"`
	ID      team.ID `json:"id"`
	MLBID   int     `json:"mlb_id,omitempty"`
	LogoURL string  `json:"logo_url,omitempty"`
}

// TeamsResponse lists the teams the model was trained on.
type TeamsResponse struct {
	Teams        []TeamInfo `json:"teams"`
	ModelVersion string     `json:"model_version"`
	NumFeatures  int        `json:"num_features"`
}

// PredictRequest is the body of POST /v1/predict.
type PredictRequest struct {
	Home  string             `json:"home"`
	Away  string             `json:"away"`
	Stats *features.AuxStats `json:"stats,omitempty"`
}

// PredictResponse carries the rendered resolution and the slot probabilities.
type PredictResponse struct {
	Home            string            `json:"home"`
	Away            string            `json:"away"`
	View            presentation.View `json:"view"`
	HomeProbability *float64          `json:"home_probability,omitempty"`
	AwayProbability *float64          `json:"away_probability,omitempty"`
	StatsDefaulted  bool              `json:"stats_defaulted,omitempty"`
	ModelVersion    string            `json:"model_version"`
}

// TeamStatsResponse is a team's live feature inputs.
type TeamStatsResponse struct {
	Abbr   string                 `json:"abbr"`
	Stats  features.SideStats     `json:"stats"`
	Recent datasource.RecentStats `json:"recent"`
}

// TeamNewsResponse holds headlines and the subreddit's top post.
type TeamNewsResponse struct {
	Abbr       string      `json:"abbr"`
	Items      []news.Item `json:"items"`
	RedditPost *news.Item  `json:"reddit_post,omitempty"`
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	reg := s.deps.Predictor.Registry()
	resp := TeamsResponse{
		ModelVersion: s.deps.Predictor.ModelVersion(),
		NumFeatures:  s.deps.Predictor.Arity(),
	}
	for _, abbr := range reg.SortedAbbreviations() {
		id, _ := reg.ID(abbr)
		info := TeamInfo{Abbr: abbr, ID: id}
		if f, err := s.deps.Directory.ByAbbr(abbr); err == nil {
			info.MLBID = f.MLBID
			info.LogoURL = f.LogoURL
		}
		resp.Teams = append(resp.Teams, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if req.Home == "" || req.Away == "" {
		writeError(w, fmt.Errorf("%w: home and away are required", ErrBadRequest))
		return
	}

	stats := req.Stats
	defaulted := false
	if stats == nil && s.deps.Predictor.WantsStats() {
		stats = s.deps.Predictor.DefaultStats()
		defaulted = true
	}

	pred, err := s.deps.Predictor.Predict(r.Context(), service.Request{
		Home:    req.Home,
		Away:    req.Away,
		Stats:   stats,
		Surface: models.SurfaceAPI,
		Record:  true,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := PredictResponse{
		Home:           pred.Home,
		Away:           pred.Away,
		View:           pred.View,
		StatsDefaulted: defaulted,
		ModelVersion:   pred.ModelVersion,
	}
	if p, ok := pred.Distribution.Probability(pred.HomeID); ok {
		resp.HomeProbability = &p
	}
	if p, ok := pred.Distribution.Probability(pred.AwayID); ok {
		resp.AwayProbability = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	if s.deps.Slates == nil {
		writeError(w, fmt.Errorf("%w: daily slate", ErrFeatureDisabled))
		return
	}
	slate, err := s.deps.Slates.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slate)
}

func (s *Server) handleTeamStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		writeError(w, fmt.Errorf("%w: stats", ErrFeatureDisabled))
		return
	}
	f, err := s.deps.Directory.ByAbbr(r.PathValue("abbr"))
	if err != nil {
		writeError(w, err)
		return
	}

	recent, err := s.deps.Stats.RecentGameStats(r.Context(), f.MLBID)
	if err != nil {
		writeError(w, err)
		return
	}
	winPct, err := s.deps.Stats.TeamWinPct(r.Context(), f.MLBID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TeamStatsResponse{
		Abbr: f.Abbr,
		Stats: features.SideStats{
			WinPct:           winPct,
			WalksIssued:      recent.WalksIssued,
			StrikeoutsThrown: recent.StrikeoutsThrown,
			TotalBases:       recent.TotalBases,
		},
		Recent: recent,
	})
}

func (s *Server) handleTeamNews(w http.ResponseWriter, r *http.Request) {
	if s.deps.News == nil {
		writeError(w, fmt.Errorf("%w: news", ErrFeatureDisabled))
		return
	}
	f, err := s.deps.Directory.ByAbbr(r.PathValue("abbr"))
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := s.deps.News.TeamNews(r.Context(), f.Abbr)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := TeamNewsResponse{Abbr: f.Abbr, Items: items}

	// The reddit post is optional decoration.
	if post, err := s.deps.News.TopRedditPost(r.Context(), f.Abbr); err == nil {
		resp.RedditPost = post
	} else {
		s.logger.WithError(err).WithField("abbr", f.Abbr).Debug("No reddit post")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTeamSchedule(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		writeError(w, fmt.Errorf("%w: schedule", ErrFeatureDisabled))
		return
	}
	f, err := s.deps.Directory.ByAbbr(r.PathValue("abbr"))
	if err != nil {
		writeError(w, err)
		return
	}
	days, err := intParam(r, "days", defaultScheduleDays, maxScheduleDays)
	if err != nil {
		writeError(w, err)
		return
	}

	games, err := s.deps.Stats.UpcomingGames(r.Context(), f.MLBID, s.now().In(s.cfg.Location), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"abbr":  f.Abbr,
		"days":  days,
		"games": games,
	})
}

func (s *Server) handleRecentPredictions(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, fmt.Errorf("%w: prediction history", ErrFeatureDisabled))
		return
	}
	limit, err := intParam(r, "limit", defaultRecentLimit, maxRecentLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := s.deps.History.GetRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*models.Prediction{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": records})
}

// intParam reads a positive integer query parameter clamped to max.
func intParam(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadRequest, name)
	}
	if v > max {
		v = max
	}
	return v, nil
}
