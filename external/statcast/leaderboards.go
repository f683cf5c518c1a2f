package statcast

import (
	"net/url"
	"strconv"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
)

// leaderboard is one season-level CSV endpoint under /leaderboard.
type leaderboard struct {
	path   string
	params func(q statrecord.Query, season int) url.Values
	schema statrecord.Schema
}

var leaderboards = map[statrecord.Category]leaderboard{
	statrecord.CategoryExpectedStats: {
		path:   expectedStatsPath,
		params: typedParams("min", "q"),
		schema: expectedStatsSchema(),
	},
	statrecord.CategoryExitVelocity: {
		path:   "/leaderboard/statcast",
		params: typedParams("min", "q"),
		schema: exitVelocitySchema(),
	},
	statrecord.CategoryPercentileRanks: {
		path:   "/leaderboard/percentile-rankings",
		params: typedParams("", ""),
		schema: percentileSchema(),
	},
	statrecord.CategoryPitchArsenalStats: {
		path: "/leaderboard/pitch-arsenal-stats",
		params: func(q statrecord.Query, season int) url.Values {
			params := typedParams("min", "10")(q, season)
			params.Set("pitchType", "")
			return params
		},
		schema: pitchArsenalStatsSchema(),
	},
	statrecord.CategorySprintSpeed: {
		path: "/leaderboard/sprint_speed",
		params: func(q statrecord.Query, season int) url.Values {
			params := seasonParams(season)
			params.Set("position", "")
			params.Set("min", minOr(q, "10"))
			return params
		},
		schema: sprintSpeedSchema(),
	},
	statrecord.CategoryOAA: {
		path: "/leaderboard/outs_above_average",
		params: func(q statrecord.Query, season int) url.Values {
			params := url.Values{}
			params.Set("type", "Fielder")
			params.Set("startYear", strconv.Itoa(season))
			params.Set("endYear", strconv.Itoa(season))
			params.Set("split", "no")
			params.Set("range", "year")
			params.Set("team", "")
			params.Set("pos", "")
			params.Set("roles", "")
			params.Set("viz", "hide")
			params.Set("min", minOr(q, "q"))
			params.Set("csv", "true")
			return params
		},
		schema: oaaSchema(),
	},
	statrecord.CategoryHomeRuns: {
		path: "/leaderboard/home-runs",
		params: func(q statrecord.Query, season int) url.Values {
			params := seasonParams(season)
			params.Set("player_type", savantType(q.PlayerType))
			params.Set("cat", "adj_xhr")
			params.Set("min", minOr(q, "0"))
			return params
		},
		schema: homeRunsSchema(),
	},
}

// Leaderboards lists the leaderboard categories the client serves.
func Leaderboards() []statrecord.Category {
	out := make([]statrecord.Category, 0, len(leaderboards))
	for c := range leaderboards {
		out = append(out, c)
	}
	return out
}

func seasonParams(season int) url.Values {
	params := url.Values{}
	params.Set("year", strconv.Itoa(season))
	params.Set("team", "")
	params.Set("csv", "true")
	return params
}

// typedParams builds the common type/year/team query. An empty minKey
// leaves the minimum out.
func typedParams(minKey, minDefault string) func(statrecord.Query, int) url.Values {
	return func(q statrecord.Query, season int) url.Values {
		params := seasonParams(season)
		params.Set("type", string(q.PlayerType))
		params.Set("position", "")
		if minKey != "" {
			params.Set(minKey, minOr(q, minDefault))
		}
		return params
	}
}

func minOr(q statrecord.Query, def string) string {
	if q.MinPA > 0 {
		return strconv.Itoa(q.MinPA)
	}
	return def
}

func savantType(pt statrecord.PlayerType) string {
	if pt == statrecord.PlayerTypePitcher {
		return "Pitcher"
	}
	return "Batter"
}

func leaderboardSchema(c statrecord.Category, cols ...statrecord.Column) statrecord.Schema {
	return statrecord.Schema{
		Provider:      crosswalk.ProviderStatcast,
		Category:      c,
		IDColumns:     []string{"player_id"},
		NameColumns:   []string{"last_name, first_name", "player_name", "player"},
		SeasonColumns: []string{"year"},
		Columns:       cols,
	}
}

func exitVelocitySchema() statrecord.Schema {
	s := leaderboardSchema(statrecord.CategoryExitVelocity,
		col(statrecord.FieldBattedBalls, true, "attempts"),
		col(statrecord.FieldAvgLaunchAngle, false, "avg_hit_angle"),
		col(statrecord.FieldSweetSpotPct, false, "anglesweetspotpercent"),
		col(statrecord.FieldMaxExitVelo, false, "max_hit_speed"),
		col(statrecord.FieldAvgExitVelo, true, "avg_hit_speed"),
		col(statrecord.FieldMaxDistance, false, "max_distance"),
		col(statrecord.FieldAvgHRDistance, false, "avg_hr_distance"),
		col(statrecord.FieldHardHitPct, false, "ev95percent"),
		col(statrecord.FieldBarrels, false, "barrels"),
		col(statrecord.FieldBarrelPct, false, "brl_percent"),
		col(statrecord.FieldBarrelPerPA, false, "brl_pa"),
	)
	s.Dropped = []string{"ev50", "fbld", "gb", "avg_distance", "ev95plus"}
	return s
}

func percentileSchema() statrecord.Schema {
	s := leaderboardSchema(statrecord.CategoryPercentileRanks,
		col(statrecord.FieldPctXWOBA, true, "xwoba"),
		col(statrecord.FieldPctXBA, false, "xba"),
		col(statrecord.FieldPctExitVelo, false, "exit_velocity"),
		col(statrecord.FieldPctHardHit, false, "hard_hit_percent"),
		col(statrecord.FieldPctBarrel, false, "brl_percent"),
		col(statrecord.FieldPctK, false, "k_percent"),
		col(statrecord.FieldPctBB, false, "bb_percent"),
		col(statrecord.FieldPctWhiff, false, "whiff_percent"),
		col(statrecord.FieldPctChase, false, "chase_percent"),
		col(statrecord.FieldPctSprintSpeed, false, "sprint_speed"),
		col(statrecord.FieldPctOAA, false, "oaa"),
	)
	s.Dropped = []string{"xslg", "xiso", "xobp", "brl", "max_ev", "arm_strength", "bat_speed", "squared_up_rate", "swing_length"}
	return s
}

func pitchArsenalStatsSchema() statrecord.Schema {
	s := leaderboardSchema(statrecord.CategoryPitchArsenalStats,
		col(statrecord.FieldTeam, false, "team_name_alt"),
		col(statrecord.FieldPitchType, true),
		col(statrecord.FieldPitchName, false),
		col(statrecord.FieldRunValuePer100, false),
		col(statrecord.FieldRunValue, false),
		col(statrecord.FieldPitches, true),
		col(statrecord.FieldPitchUsage, false),
		col(statrecord.FieldPA, false, "pa"),
		col(statrecord.FieldBA, false, "ba"),
		col(statrecord.FieldSLG, false, "slg"),
		col(statrecord.FieldWOBA, false, "woba"),
		col(statrecord.FieldWhiffPct, false, "whiff_percent"),
		col(statrecord.FieldKPct, false, "k_percent"),
		col(statrecord.FieldPutAwayPct, false, "put_away"),
		col(statrecord.FieldEstBA, false),
		col(statrecord.FieldEstSLG, false),
		col(statrecord.FieldEstWOBA, false),
		col(statrecord.FieldHardHitPct, false, "hard_hit_percent"),
	)
	return s
}

func sprintSpeedSchema() statrecord.Schema {
	s := leaderboardSchema(statrecord.CategorySprintSpeed,
		col(statrecord.FieldTeam, false, "team"),
		col(statrecord.FieldPosition, false, "position"),
		col(statrecord.FieldAge, false, "age"),
		col(statrecord.FieldCompetitiveRuns, false),
		col(statrecord.FieldBolts, false),
		col(statrecord.FieldHomeToFirst, false, "hp_to_1b"),
		col(statrecord.FieldSprintSpeed, true),
	)
	s.Dropped = []string{"team_id"}
	return s
}

func oaaSchema() statrecord.Schema {
	s := leaderboardSchema(statrecord.CategoryOAA,
		col(statrecord.FieldTeam, false, "display_team_name"),
		col(statrecord.FieldPosition, false, "primary_pos_formatted"),
		col(statrecord.FieldOAA, true, "outs_above_average"),
		col(statrecord.FieldFieldingRunsSaved, false),
	)
	s.Dropped = []string{"outs_above_average_infront", "outs_above_average_lateral_toward3bline",
		"outs_above_average_lateral_toward1bline", "outs_above_average_behind", "outs_above_average_rhh",
		"outs_above_average_lhh", "actual_success_rate_formatted", "adj_estimated_success_rate_formatted",
		"diff_success_rate_formatted"}
	return s
}

func homeRunsSchema() statrecord.Schema {
	s := leaderboardSchema(statrecord.CategoryHomeRuns,
		col(statrecord.FieldTeam, false, "team_abbrev"),
		col(statrecord.FieldHR, true, "hr_total"),
		col(statrecord.FieldXHR, false),
		col(statrecord.FieldXHRDiff, false),
		col(statrecord.FieldDoubters, false),
		col(statrecord.FieldMostlyGone, false),
		col(statrecord.FieldNoDoubters, false),
	)
	s.Dropped = []string{"no_doubter_per", "avg_hr_trot"}
	return s
}
