package datasource

import (
	"sort"
	"strings"
)

// Franchise describes one MLB club as external sources know it.
type Franchise struct {
	Abbr      string `json:"abbr"`
	MLBID     int    `json:"mlb_id"`
	NewsSlug  string `json:"news_slug"`
	Subreddit string `json:"subreddit"`
	LogoURL   string `json:"logo_url"`
}

const logoURLFormat = "https://a.espncdn.com/i/teamlogos/mlb/500/%s.png"

var franchises = []Franchise{
	{Abbr: "ARI", MLBID: 109, NewsSlug: "dbacks", Subreddit: "AZDiamondbacks"},
	{Abbr: "ATL", MLBID: 144, NewsSlug: "braves", Subreddit: "Braves"},
	{Abbr: "BAL", MLBID: 110, NewsSlug: "orioles", Subreddit: "Orioles"},
	{Abbr: "BOS", MLBID: 111, NewsSlug: "redsox", Subreddit: "RedSox"},
	{Abbr: "CHC", MLBID: 112, NewsSlug: "cubs", Subreddit: "CHICubs"},
	{Abbr: "CHW", MLBID: 145, NewsSlug: "whitesox", Subreddit: "whitesox"},
	{Abbr: "CIN", MLBID: 113, NewsSlug: "reds", Subreddit: "Reds"},
	{Abbr: "CLE", MLBID: 114, NewsSlug: "guardians", Subreddit: "ClevelandGuardians"},
	{Abbr: "COL", MLBID: 115, NewsSlug: "rockies", Subreddit: "ColoradoRockies"},
	{Abbr: "DET", MLBID: 116, NewsSlug: "tigers", Subreddit: "MotorCityKitties"},
	{Abbr: "HOU", MLBID: 117, NewsSlug: "astros", Subreddit: "Astros"},
	{Abbr: "KC", MLBID: 118, NewsSlug: "royals", Subreddit: "Royals"},
	{Abbr: "LAA", MLBID: 108, NewsSlug: "angels", Subreddit: "AngelsBaseball"},
	{Abbr: "LAD", MLBID: 119, NewsSlug: "dodgers", Subreddit: "Dodgers"},
	{Abbr: "MIA", MLBID: 146, NewsSlug: "marlins", Subreddit: "MiamiMarlins"},
	{Abbr: "MIL", MLBID: 158, NewsSlug: "brewers", Subreddit: "Brewers"},
	{Abbr: "MIN", MLBID: 142, NewsSlug: "twins", Subreddit: "MinnesotaTwins"},
	{Abbr: "NYM", MLBID: 121, NewsSlug: "mets", Subreddit: "NewYorkMets"},
	{Abbr: "NYY", MLBID: 147, NewsSlug: "yankees", Subreddit: "NYYankees"},
	{Abbr: "OAK", MLBID: 133, NewsSlug: "athletics", Subreddit: "OaklandAthletics"},
	{Abbr: "PHI", MLBID: 143, NewsSlug: "phillies", Subreddit: "Phillies"},
	{Abbr: "PIT", MLBID: 134, NewsSlug: "pirates", Subreddit: "Pirates"},
	{Abbr: "SD", MLBID: 135, NewsSlug: "padres", Subreddit: "Padres"},
	{Abbr: "SEA", MLBID: 136, NewsSlug: "mariners", Subreddit: "Mariners"},
	{Abbr: "SF", MLBID: 137, NewsSlug: "giants", Subreddit: "SFGiants"},
	{Abbr: "STL", MLBID: 138, NewsSlug: "cardinals", Subreddit: "Cardinals"},
	{Abbr: "TB", MLBID: 139, NewsSlug: "rays", Subreddit: "TampaBayRays"},
	{Abbr: "TEX", MLBID: 140, NewsSlug: "rangers", Subreddit: "TexasRangers"},
	{Abbr: "TOR", MLBID: 141, NewsSlug: "bluejays", Subreddit: "Torontobluejays"},
	{Abbr: "WSH", MLBID: 120, NewsSlug: "nationals", Subreddit: "Nationals"},
}

// aliases maps alternate abbreviations used by some feeds.
var aliases = map[string]string{
	"CWS": "CHW",
	"WSN": "WSH",
	"ATH": "OAK",
}

// Directory looks franchises up by abbreviation or MLB id.
type Directory struct {
	byAbbr map[string]Franchise
	byID   map[int]Franchise
}

// NewDirectory returns the directory of all 30 clubs.
func NewDirectory() *Directory {
	d := &Directory{
		byAbbr: make(map[string]Franchise, len(franchises)),
		byID:   make(map[int]Franchise, len(franchises)),
	}
	for _, f := range franchises {
		f.LogoURL = strings.Replace(logoURLFormat, "%s", strings.ToLower(f.Abbr), 1)
		d.byAbbr[f.Abbr] = f
		d.byID[f.MLBID] = f
	}
	return d
}

// ByAbbr finds a franchise by abbreviation, accepting known aliases.
func (d *Directory) ByAbbr(abbr string) (Franchise, error) {
	abbr = strings.ToUpper(strings.TrimSpace(abbr))
	if canonical, ok := aliases[abbr]; ok {
		abbr = canonical
	}
	f, ok := d.byAbbr[abbr]
	if !ok {
		return Franchise{}, NewDataSourceError("directory", ErrCodeNotFound, "unknown abbreviation "+abbr, ErrTeamNotInDirectory)
	}
	return f, nil
}

// ByMLBID finds a franchise by MLB Stats API team id.
func (d *Directory) ByMLBID(id int) (Franchise, error) {
	f, ok := d.byID[id]
	if !ok {
		return Franchise{}, NewDataSourceError("directory", ErrCodeNotFound, "unknown mlb id", ErrTeamNotInDirectory)
	}
	return f, nil
}

// All returns every franchise sorted by abbreviation.
func (d *Directory) All() []Franchise {
	out := make([]Franchise, 0, len(d.byAbbr))
	for _, f := range d.byAbbr {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Abbr < out[j].Abbr })
	return out
}

// Spellings returns the canonical abbreviation followed by any aliases that
// resolve to it.
func (d *Directory) Spellings(f Franchise) []string {
	out := []string{f.Abbr}
	for alias, canonical := range aliases {
		if canonical == f.Abbr {
			out = append(out, alias)
		}
	}
	return out
}
