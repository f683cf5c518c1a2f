package fangraphs

import (
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
)

// HTML-rendered duplicates of plain columns.
var renderedColumns = []string{"Name", "Team", "PlayerNameRoute", "teamid", "position", "Bats", "Throws", "xMLBAMID", "UPURL"}

func col(f statrecord.Field, required bool, names ...string) statrecord.Column {
	return statrecord.Column{Field: f, Names: names, Required: required}
}

func schemaFor(c statrecord.Category) (statrecord.Schema, bool) {
	base := statrecord.Schema{
		Provider:      crosswalk.ProviderFanGraphs,
		Category:      c,
		IDColumns:     []string{"playerid"},
		NameColumns:   []string{"PlayerName"},
		SeasonColumns: []string{"Season", "aseason"},
		Dropped:       renderedColumns,
	}
	switch c {
	case statrecord.CategoryBatting:
		base.Columns = []statrecord.Column{
			col(statrecord.FieldTeam, false, "TeamNameAbb", "TeamName"),
			col(statrecord.FieldAge, false, "Age"),
			col(statrecord.FieldGames, true, "G"),
			col(statrecord.FieldPA, true, "PA"),
			col(statrecord.FieldAB, false, "AB"),
			col(statrecord.FieldRuns, false, "R"),
			col(statrecord.FieldHits, false, "H"),
			col(statrecord.FieldDoubles, false, "2B"),
			col(statrecord.FieldTriples, false, "3B"),
			col(statrecord.FieldHR, true, "HR"),
			col(statrecord.FieldRBI, false, "RBI"),
			col(statrecord.FieldSB, false, "SB"),
			col(statrecord.FieldCS, false, "CS"),
			col(statrecord.FieldBB, false, "BB"),
			col(statrecord.FieldSO, false, "SO"),
			col(statrecord.FieldHBP, false, "HBP"),
			col(statrecord.FieldAVG, false, "AVG"),
			col(statrecord.FieldOBP, false, "OBP"),
			col(statrecord.FieldSLG, false, "SLG"),
			col(statrecord.FieldOPS, false, "OPS"),
			col(statrecord.FieldWOBA, false, "wOBA"),
			col(statrecord.FieldWRCPlus, false, "wRC+", "wRC_plus"),
			col(statrecord.FieldWAR, false, "WAR", "fWAR"),
		}
	case statrecord.CategoryPitching:
		base.Columns = []statrecord.Column{
			col(statrecord.FieldTeam, false, "TeamNameAbb", "TeamName"),
			col(statrecord.FieldAge, false, "Age"),
			col(statrecord.FieldWins, false, "W"),
			col(statrecord.FieldLosses, false, "L"),
			col(statrecord.FieldERA, true, "ERA"),
			col(statrecord.FieldGames, true, "G"),
			col(statrecord.FieldGamesStarted, false, "GS"),
			col(statrecord.FieldSaves, false, "SV"),
			col(statrecord.FieldIP, true, "IP"),
			col(statrecord.FieldHits, false, "H"),
			col(statrecord.FieldHR, false, "HR"),
			col(statrecord.FieldBB, false, "BB"),
			col(statrecord.FieldSO, false, "SO"),
			col(statrecord.FieldWHIP, false, "WHIP"),
			col(statrecord.FieldFIP, false, "FIP"),
			col(statrecord.FieldK9, false, "K/9"),
			col(statrecord.FieldBB9, false, "BB/9"),
			col(statrecord.FieldWAR, false, "WAR", "fWAR"),
		}
	default:
		return statrecord.Schema{}, false
	}
	return base, true
}
