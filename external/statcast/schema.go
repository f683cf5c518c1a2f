package statcast

import (
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
)

// deprecatedColumns are still sent by the search endpoint but carry no data.
var deprecatedColumns = []string{
	"spin_dir",
	"spin_rate_deprecated",
	"break_angle_deprecated",
	"break_length_deprecated",
	"tfs_deprecated",
	"tfs_zulu_deprecated",
	"umpire",
	"pitcher_duplicated_0",
	"fielder_2_duplicated_0",
}

func col(f statrecord.Field, required bool, names ...string) statrecord.Column {
	if len(names) == 0 {
		names = []string{string(f)}
	}
	return statrecord.Column{Field: f, Names: names, Required: required}
}

func searchSchema(pt statrecord.PlayerType) statrecord.Schema {
	// The search CSV carries both ids; the one matching the player type is
	// the subject of the row.
	idColumn := "pitcher"
	dropped := append([]string{"batter"}, deprecatedColumns...)
	if pt == statrecord.PlayerTypeBatter {
		idColumn = "batter"
		dropped = append([]string{"pitcher"}, deprecatedColumns...)
	}

	return statrecord.Schema{
		Provider:      crosswalk.ProviderStatcast,
		Category:      statrecord.CategoryPitch,
		IDColumns:     []string{idColumn},
		NameColumns:   []string{"player_name"},
		SeasonColumns: []string{"game_year"},
		DateColumns:   []string{"game_date"},
		Columns: []statrecord.Column{
			col(statrecord.FieldGamePK, true),
			col(statrecord.FieldAtBat, true),
			col(statrecord.FieldPitchNumber, true),
			col(statrecord.FieldInning, false),
			col(statrecord.FieldBalls, false),
			col(statrecord.FieldStrikes, false),
			col(statrecord.FieldPitchType, false),
			col(statrecord.FieldPitchName, false),
			col(statrecord.FieldEvents, false),
			col(statrecord.FieldDescription, false),
			col(statrecord.FieldStand, false),
			col(statrecord.FieldThrows, false),
			col(statrecord.FieldHomeTeam, false),
			col(statrecord.FieldAwayTeam, false),
			col(statrecord.FieldReleaseSpeed, false),
			col(statrecord.FieldSpinRate, false),
			col(statrecord.FieldPlateX, false),
			col(statrecord.FieldPlateZ, false),
			col(statrecord.FieldLaunchSpeed, false),
			col(statrecord.FieldLaunchAngle, false),
			col(statrecord.FieldHitDistance, false),
			col(statrecord.FieldEstimatedBA, false),
			col(statrecord.FieldEstimatedWOBA, false),
		},
		Dropped: dropped,
	}
}

func expectedStatsSchema() statrecord.Schema {
	return statrecord.Schema{
		Provider:      crosswalk.ProviderStatcast,
		Category:      statrecord.CategoryExpectedStats,
		IDColumns:     []string{"player_id"},
		NameColumns:   []string{"last_name, first_name", "player_name"},
		SeasonColumns: []string{"year"},
		Columns: []statrecord.Column{
			col(statrecord.FieldPA, true),
			col(statrecord.FieldBIP, false),
			col(statrecord.FieldBA, false),
			col(statrecord.FieldEstBA, true),
			col(statrecord.FieldSLG, false, "slg"),
			col(statrecord.FieldEstSLG, false),
			col(statrecord.FieldWOBA, false),
			col(statrecord.FieldEstWOBA, true),
			col(statrecord.FieldWOBADiff, false),
			col(statrecord.FieldERA, false, "era"),
		},
		Dropped: []string{"est_ba_minus_ba_diff", "est_slg_minus_slg_diff", "xera"},
	}
}
