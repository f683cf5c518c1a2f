package bref

import (
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
)

// Column names list the current data-stat first, then the pre-2024 one.
func col(f statrecord.Field, required bool, names ...string) statrecord.Column {
	return statrecord.Column{Field: f, Names: names, Required: required}
}

var dropped = []string{"ranker", "awards", "pos", "team_position", "player_award_summary"}

func schemaFor(c statrecord.Category) (statrecord.Schema, bool) {
	base := statrecord.Schema{
		Provider:    crosswalk.ProviderBRef,
		Category:    c,
		IDColumns:   []string{idColumn},
		NameColumns: []string{"name_display", "player"},
		Dropped:     dropped,
	}
	switch c {
	case statrecord.CategoryBatting:
		base.Columns = []statrecord.Column{
			col(statrecord.FieldTeam, false, "team_name_abbr", "team_ID"),
			col(statrecord.FieldLeague, false, "comp_name_abbr", "lg_ID"),
			col(statrecord.FieldAge, false, "age"),
			col(statrecord.FieldGames, false, "b_games", "G"),
			col(statrecord.FieldPA, true, "b_pa", "PA"),
			col(statrecord.FieldAB, false, "b_ab", "AB"),
			col(statrecord.FieldRuns, false, "b_r", "R"),
			col(statrecord.FieldHits, false, "b_h", "H"),
			col(statrecord.FieldDoubles, false, "b_doubles", "2B"),
			col(statrecord.FieldTriples, false, "b_triples", "3B"),
			col(statrecord.FieldHR, true, "b_hr", "HR"),
			col(statrecord.FieldRBI, false, "b_rbi", "RBI"),
			col(statrecord.FieldSB, false, "b_sb", "SB"),
			col(statrecord.FieldCS, false, "b_cs", "CS"),
			col(statrecord.FieldBB, false, "b_bb", "BB"),
			col(statrecord.FieldSO, false, "b_so", "SO"),
			col(statrecord.FieldHBP, false, "b_hbp", "HBP"),
			col(statrecord.FieldAVG, false, "b_batting_avg", "batting_avg"),
			col(statrecord.FieldOBP, false, "b_onbase_perc", "onbase_perc"),
			col(statrecord.FieldSLG, false, "b_slugging_perc", "slugging_perc"),
			col(statrecord.FieldOPS, false, "b_onbase_plus_slugging", "onbase_plus_slugging"),
			col(statrecord.FieldOPSPlus, false, "b_onbase_plus_slugging_plus", "onbase_plus_slugging_plus"),
			col(statrecord.FieldWAR, false, "b_war", "WAR"),
		}
	case statrecord.CategoryPitching:
		base.Columns = []statrecord.Column{
			col(statrecord.FieldTeam, false, "team_name_abbr", "team_ID"),
			col(statrecord.FieldLeague, false, "comp_name_abbr", "lg_ID"),
			col(statrecord.FieldAge, false, "age"),
			col(statrecord.FieldWins, false, "p_w", "W"),
			col(statrecord.FieldLosses, false, "p_l", "L"),
			col(statrecord.FieldERA, true, "p_earned_run_avg", "earned_run_avg"),
			col(statrecord.FieldGames, false, "p_g", "G"),
			col(statrecord.FieldGamesStarted, false, "p_gs", "GS"),
			col(statrecord.FieldSaves, false, "p_sv", "SV"),
			col(statrecord.FieldIP, true, "p_ip", "IP"),
			col(statrecord.FieldHits, false, "p_h", "H"),
			col(statrecord.FieldHR, false, "p_hr", "HR"),
			col(statrecord.FieldBB, false, "p_bb", "BB"),
			col(statrecord.FieldSO, false, "p_so", "SO"),
			col(statrecord.FieldERAPlus, false, "p_earned_run_avg_plus", "earned_run_avg_plus"),
			col(statrecord.FieldFIP, false, "p_fip", "fip"),
			col(statrecord.FieldWHIP, false, "p_whip", "whip"),
			col(statrecord.FieldK9, false, "p_so_per_nine", "strikeouts_per_nine"),
			col(statrecord.FieldBB9, false, "p_bb_per_nine", "bases_on_balls_per_nine"),
			col(statrecord.FieldWAR, false, "p_war", "WAR_pitch"),
		}
	default:
		return statrecord.Schema{}, false
	}
	return base, true
}
