package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	statsAPISource = "mlb_stats_api"

	// DefaultWinPct is used for clubs without a decided game this season.
	DefaultWinPct = 0.5

	// Standings cover the American (103) and National (104) leagues.
	standingsLeagues = "103,104"

	gameStateFinal = "Final"
	dateLayout     = "2006-01-02"

	boxscoreConcurrency = 4
)

// StatsAPIConfig configures the MLB Stats API client
type StatsAPIConfig struct {
	BaseURL     string
	Season      int
	RecentGames int
}

// StatsAPIClient reads schedules, boxscores and standings from the MLB Stats
// API. All lookups go through the shared StatsCache.
type StatsAPIClient struct {
	httpClient  *RateLimitedHTTPClient
	baseURL     string
	season      int
	recentGames int
	cache       *StatsCache
	logger      *logrus.Logger
}

// ScheduledGame is one game from the schedule endpoint.
type ScheduledGame struct {
	GamePk        int       `json:"game_pk"`
	GameDate      time.Time `json:"game_date"`
	State         string    `json:"state"`
	DetailedState string    `json:"detailed_state"`
	HomeID        int       `json:"home_id"`
	HomeName      string    `json:"home_name"`
	HomeScore     *int      `json:"home_score,omitempty"`
	AwayID        int       `json:"away_id"`
	AwayName      string    `json:"away_name"`
	AwayScore     *int      `json:"away_score,omitempty"`
	Venue         string    `json:"venue"`
}

// IsFinal reports whether the game is over.
func (g ScheduledGame) IsFinal() bool {
	return g.State == gameStateFinal
}

// RecentStats are per-game averages over a club's latest final games.
type RecentStats struct {
	Games            int     `json:"games"`
	TotalBases       float64 `json:"total_bases"`
	WalksIssued      float64 `json:"walks_issued"`
	StrikeoutsThrown float64 `json:"strikeouts_thrown"`
}

type scheduleResponse struct {
	Dates []struct {
		Date  string         `json:"date"`
		Games []scheduleGame `json:"games"`
	} `json:"dates"`
}

type scheduleGame struct {
	GamePk   int    `json:"gamePk"`
	GameDate string `json:"gameDate"`
	Status   struct {
		AbstractGameState string `json:"abstractGameState"`
		DetailedState     string `json:"detailedState"`
	} `json:"status"`
	Teams struct {
		Home scheduleSide `json:"home"`
		Away scheduleSide `json:"away"`
	} `json:"teams"`
	Venue struct {
		Name string `json:"name"`
	} `json:"venue"`
}

type scheduleSide struct {
	Team struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	Score *int `json:"score"`
}

type boxscoreResponse struct {
	Teams struct {
		Home boxscoreSide `json:"home"`
		Away boxscoreSide `json:"away"`
	} `json:"teams"`
}

type boxscoreSide struct {
	Team struct {
		ID int `json:"id"`
	} `json:"team"`
	TeamStats struct {
		Batting struct {
			TotalBases int64 `json:"totalBases"`
		} `json:"batting"`
		Pitching struct {
			BaseOnBalls int64 `json:"baseOnBalls"`
			StrikeOuts  int64 `json:"strikeOuts"`
		} `json:"pitching"`
	} `json:"teamStats"`
}

type boxLine struct {
	totalBases, walks, strikeouts int64
}

type standingsResponse struct {
	Records []struct {
		TeamRecords []struct {
			Team struct {
				ID int `json:"id"`
			} `json:"team"`
			Wins   int64 `json:"wins"`
			Losses int64 `json:"losses"`
		} `json:"teamRecords"`
	} `json:"records"`
}

// NewStatsAPIClient creates a new MLB Stats API client
func NewStatsAPIClient(httpClient *RateLimitedHTTPClient, cfg StatsAPIConfig, cache *StatsCache, logger *logrus.Logger) *StatsAPIClient {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.RecentGames <= 0 {
		cfg.RecentGames = 10
	}
	return &StatsAPIClient{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		season:      cfg.Season,
		recentGames: cfg.RecentGames,
		cache:       cache,
		logger:      logger,
	}
}

// Name returns the data source name
func (c *StatsAPIClient) Name() string {
	return statsAPISource
}

// Schedule returns every game on the given calendar date.
func (c *StatsAPIClient) Schedule(ctx context.Context, date time.Time) ([]ScheduledGame, error) {
	day := date.Format(dateLayout)
	v, err := c.cache.GetOrFetch(ctx, cacheKey("schedule", day), func(ctx context.Context) (interface{}, error) {
		q := url.Values{}
		q.Set("sportId", "1")
		q.Set("date", day)
		return c.fetchSchedule(ctx, "schedule", q)
	})
	if err != nil {
		return nil, err
	}
	return v.([]ScheduledGame), nil
}

// UpcomingGames returns a club's games in [from, from+days).
func (c *StatsAPIClient) UpcomingGames(ctx context.Context, mlbID int, from time.Time, days int) ([]ScheduledGame, error) {
	if days <= 0 {
		days = 7
	}
	start := from.Format(dateLayout)
	end := from.AddDate(0, 0, days-1).Format(dateLayout)

	v, err := c.cache.GetOrFetch(ctx, cacheKey("upcoming", mlbID, start, end), func(ctx context.Context) (interface{}, error) {
		q := url.Values{}
		q.Set("sportId", "1")
		q.Set("teamId", strconv.Itoa(mlbID))
		q.Set("startDate", start)
		q.Set("endDate", end)
		return c.fetchSchedule(ctx, "upcoming", q)
	})
	if err != nil {
		return nil, err
	}
	return v.([]ScheduledGame), nil
}

// RecentGameStats averages total bases, walks issued and strikeouts thrown
// over the club's latest final regular-season games, latest by gamePk.
// Averages are rounded to two decimals.
func (c *StatsAPIClient) RecentGameStats(ctx context.Context, mlbID int) (RecentStats, error) {
	v, err := c.cache.GetOrFetch(ctx, cacheKey("recent", mlbID, c.season, c.recentGames), func(ctx context.Context) (interface{}, error) {
		return c.fetchRecentGameStats(ctx, mlbID)
	})
	if err != nil {
		return RecentStats{}, err
	}
	return v.(RecentStats), nil
}

func (c *StatsAPIClient) fetchRecentGameStats(ctx context.Context, mlbID int) (RecentStats, error) {
	q := url.Values{}
	q.Set("teamId", strconv.Itoa(mlbID))
	q.Set("season", strconv.Itoa(c.season))
	q.Set("sportId", "1")
	q.Set("gameType", "R")

	games, err := c.fetchSchedule(ctx, "season_schedule", q)
	if err != nil {
		return RecentStats{}, err
	}

	var finals []int
	for _, g := range games {
		if g.IsFinal() {
			finals = append(finals, g.GamePk)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(finals)))
	if len(finals) > c.recentGames {
		finals = finals[:c.recentGames]
	}

	lines := make([]*boxLine, len(finals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(boxscoreConcurrency)
	for i, gamePk := range finals {
		i, gamePk := i, gamePk
		g.Go(func() error {
			line, err := c.boxscoreLine(gctx, gamePk, mlbID)
			if err != nil {
				return err
			}
			lines[i] = line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RecentStats{}, err
	}

	var tb, bb, so int64
	n := 0
	for _, line := range lines {
		if line == nil {
			continue
		}
		tb += line.totalBases
		bb += line.walks
		so += line.strikeouts
		n++
	}
	if n == 0 {
		return RecentStats{}, NewDataSourceError(statsAPISource, ErrCodeNotFound, fmt.Sprintf("team %d has no final games in %d", mlbID, c.season), ErrNoRecentGames)
	}

	return RecentStats{
		Games:            n,
		TotalBases:       average(tb, n),
		WalksIssued:      average(bb, n),
		StrikeoutsThrown: average(so, n),
	}, nil
}

// boxscoreLine returns the club's line from one boxscore, or nil when the club
// is on neither side.
func (c *StatsAPIClient) boxscoreLine(ctx context.Context, gamePk, mlbID int) (*boxLine, error) {
	var box boxscoreResponse
	if err := c.getJSON(ctx, "boxscore", fmt.Sprintf("%s/game/%d/boxscore", c.baseURL, gamePk), &box); err != nil {
		return nil, err
	}

	for _, side := range []boxscoreSide{box.Teams.Home, box.Teams.Away} {
		if side.Team.ID == mlbID {
			return &boxLine{
				totalBases: side.TeamStats.Batting.TotalBases,
				walks:      side.TeamStats.Pitching.BaseOnBalls,
				strikeouts: side.TeamStats.Pitching.StrikeOuts,
			}, nil
		}
	}
	return nil, nil
}

// WinPercentages returns wins/(wins+losses) rounded to three decimals for
// every club with at least one decided game.
func (c *StatsAPIClient) WinPercentages(ctx context.Context) (map[int]float64, error) {
	v, err := c.cache.GetOrFetch(ctx, cacheKey("standings", c.season), func(ctx context.Context) (interface{}, error) {
		q := url.Values{}
		q.Set("season", strconv.Itoa(c.season))
		q.Set("leagueId", standingsLeagues)
		q.Set("standingsTypes", "regularSeason")

		var resp standingsResponse
		if err := c.getJSON(ctx, "standings", c.baseURL+"/standings?"+q.Encode(), &resp); err != nil {
			return nil, err
		}

		pcts := make(map[int]float64)
		for _, record := range resp.Records {
			for _, tr := range record.TeamRecords {
				total := tr.Wins + tr.Losses
				if total <= 0 {
					continue
				}
				pcts[tr.Team.ID] = decimal.NewFromInt(tr.Wins).
					Div(decimal.NewFromInt(total)).
					Round(3).
					InexactFloat64()
			}
		}
		return pcts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[int]float64), nil
}

// TeamWinPct returns one club's win percentage, DefaultWinPct when it has no
// decided games.
func (c *StatsAPIClient) TeamWinPct(ctx context.Context, mlbID int) (float64, error) {
	pcts, err := c.WinPercentages(ctx)
	if err != nil {
		return 0, err
	}
	if pct, ok := pcts[mlbID]; ok {
		return pct, nil
	}
	return DefaultWinPct, nil
}

func (c *StatsAPIClient) fetchSchedule(ctx context.Context, endpoint string, q url.Values) ([]ScheduledGame, error) {
	var resp scheduleResponse
	if err := c.getJSON(ctx, endpoint, c.baseURL+"/schedule?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	var games []ScheduledGame
	for _, d := range resp.Dates {
		for _, g := range d.Games {
			games = append(games, convertGame(g))
		}
	}
	return games, nil
}

func convertGame(g scheduleGame) ScheduledGame {
	gameDate, err := time.Parse(time.RFC3339, g.GameDate)
	if err != nil {
		gameDate = time.Time{}
	}
	return ScheduledGame{
		GamePk:        g.GamePk,
		GameDate:      gameDate,
		State:         g.Status.AbstractGameState,
		DetailedState: g.Status.DetailedState,
		HomeID:        g.Teams.Home.Team.ID,
		HomeName:      g.Teams.Home.Team.Name,
		HomeScore:     g.Teams.Home.Score,
		AwayID:        g.Teams.Away.Team.ID,
		AwayName:      g.Teams.Away.Team.Name,
		AwayScore:     g.Teams.Away.Score,
		Venue:         g.Venue.Name,
	}
}

func (c *StatsAPIClient) getJSON(ctx context.Context, endpoint, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return NewDataSourceError(statsAPISource, ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		statsAPIRequests.WithLabelValues(endpoint, "network_error").Inc()
		return NewDataSourceError(statsAPISource, ErrCodeNetworkError, "failed to fetch "+endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		statsAPIRequests.WithLabelValues(endpoint, "not_found").Inc()
		return NewDataSourceError(statsAPISource, ErrCodeNotFound, endpoint+" not found", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		statsAPIRequests.WithLabelValues(endpoint, "rate_limited").Inc()
		return NewDataSourceError(statsAPISource, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statsAPIRequests.WithLabelValues(endpoint, "server_error").Inc()
		return NewDataSourceError(statsAPISource, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		statsAPIRequests.WithLabelValues(endpoint, "invalid_data").Inc()
		return NewDataSourceError(statsAPISource, ErrCodeInvalidData, "failed to parse "+endpoint, err)
	}

	statsAPIRequests.WithLabelValues(endpoint, "ok").Inc()
	c.logger.WithFields(logrus.Fields{"endpoint": endpoint, "url": rawURL}).Debug("Stats API request complete")
	return nil
}

func average(sum int64, n int) float64 {
	return decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(n))).
		Round(2).
		InexactFloat64()
}
