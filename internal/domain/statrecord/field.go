package statrecord

// Field is a normalized statistic name. The set is closed: connectors map
// provider columns onto these fields and drop everything else.
type Field string

// Kind tells whether a field holds a number or a label.
type Kind int

const (
	KindNumber Kind = iota
	KindLabel
)

// Pitch-level fields.
const (
	FieldGamePK        Field = "game_pk"
	FieldAtBat         Field = "at_bat_number"
	FieldPitchNumber   Field = "pitch_number"
	FieldInning        Field = "inning"
	FieldBalls         Field = "balls"
	FieldStrikes       Field = "strikes"
	FieldPitchType     Field = "pitch_type"
	FieldPitchName     Field = "pitch_name"
	FieldEvents        Field = "events"
	FieldDescription   Field = "description"
	FieldStand         Field = "stand"
	FieldThrows        Field = "p_throws"
	FieldHomeTeam      Field = "home_team"
	FieldAwayTeam      Field = "away_team"
	FieldReleaseSpeed  Field = "release_speed"
	FieldSpinRate      Field = "release_spin_rate"
	FieldPlateX        Field = "plate_x"
	FieldPlateZ        Field = "plate_z"
	FieldLaunchSpeed   Field = "launch_speed"
	FieldLaunchAngle   Field = "launch_angle"
	FieldHitDistance   Field = "hit_distance_sc"
	FieldEstimatedBA   Field = "estimated_ba_using_speedangle"
	FieldEstimatedWOBA Field = "estimated_woba_using_speedangle"
)

// Season line fields shared by batting and pitching tables.
const (
	FieldTeam    Field = "team"
	FieldLeague  Field = "league"
	FieldAge     Field = "age"
	FieldGames   Field = "g"
	FieldPA      Field = "pa"
	FieldAB      Field = "ab"
	FieldRuns    Field = "r"
	FieldHits    Field = "h"
	FieldDoubles Field = "2b"
	FieldTriples Field = "3b"
	FieldHR      Field = "hr"
	FieldRBI     Field = "rbi"
	FieldSB      Field = "sb"
	FieldCS      Field = "cs"
	FieldBB      Field = "bb"
	FieldSO      Field = "so"
	FieldHBP     Field = "hbp"
	FieldAVG     Field = "avg"
	FieldOBP     Field = "obp"
	FieldSLG     Field = "slg"
	FieldOPS     Field = "ops"
	FieldOPSPlus Field = "ops_plus"
	FieldWOBA    Field = "woba"
	FieldWRCPlus Field = "wrc_plus"
	FieldWAR     Field = "war"
)

// Pitching-only fields.
const (
	FieldWins         Field = "w"
	FieldLosses       Field = "l"
	FieldGamesStarted Field = "gs"
	FieldSaves        Field = "sv"
	FieldIP           Field = "ip"
	FieldERA          Field = "era"
	FieldERAPlus      Field = "era_plus"
	FieldFIP          Field = "fip"
	FieldWHIP         Field = "whip"
	FieldK9           Field = "k_9"
	FieldBB9          Field = "bb_9"
)

// Expected statistics leaderboard fields.
const (
	FieldBIP      Field = "bip"
	FieldBA       Field = "ba"
	FieldEstBA    Field = "est_ba"
	FieldEstSLG   Field = "est_slg"
	FieldEstWOBA  Field = "est_woba"
	FieldWOBADiff Field = "est_woba_minus_woba_diff"
)

// Statcast leaderboard fields. Percentile ranks are kept apart from the raw
// values they rank.
const (
	FieldPosition          Field = "position"
	FieldBattedBalls       Field = "bbe"
	FieldAvgLaunchAngle    Field = "avg_launch_angle"
	FieldSweetSpotPct      Field = "sweet_spot_pct"
	FieldAvgExitVelo       Field = "avg_exit_velo"
	FieldMaxExitVelo       Field = "max_exit_velo"
	FieldMaxDistance       Field = "max_distance"
	FieldAvgHRDistance     Field = "avg_hr_distance"
	FieldHardHitPct        Field = "hard_hit_pct"
	FieldBarrels           Field = "barrels"
	FieldBarrelPct         Field = "barrel_pct"
	FieldBarrelPerPA       Field = "barrel_per_pa"
	FieldPitches           Field = "pitches"
	FieldPitchUsage        Field = "pitch_usage"
	FieldRunValue          Field = "run_value"
	FieldRunValuePer100    Field = "run_value_per_100"
	FieldWhiffPct          Field = "whiff_pct"
	FieldKPct              Field = "k_pct"
	FieldPutAwayPct        Field = "put_away_pct"
	FieldSprintSpeed       Field = "sprint_speed"
	FieldHomeToFirst       Field = "home_to_first"
	FieldBolts             Field = "bolts"
	FieldCompetitiveRuns   Field = "competitive_runs"
	FieldOAA               Field = "oaa"
	FieldFieldingRunsSaved Field = "fielding_runs_prevented"
	FieldXHR               Field = "xhr"
	FieldXHRDiff           Field = "xhr_diff"
	FieldNoDoubters        Field = "no_doubters"
	FieldMostlyGone        Field = "mostly_gone"
	FieldDoubters          Field = "doubters"
	FieldPctXWOBA          Field = "pct_xwoba"
	FieldPctXBA            Field = "pct_xba"
	FieldPctExitVelo       Field = "pct_exit_velo"
	FieldPctHardHit        Field = "pct_hard_hit"
	FieldPctBarrel         Field = "pct_barrel"
	FieldPctK              Field = "pct_k"
	FieldPctBB             Field = "pct_bb"
	FieldPctWhiff          Field = "pct_whiff"
	FieldPctChase          Field = "pct_chase"
	FieldPctSprintSpeed    Field = "pct_sprint_speed"
	FieldPctOAA            Field = "pct_oaa"
)

var kinds = map[Field]Kind{
	FieldGamePK: KindNumber, FieldAtBat: KindNumber, FieldPitchNumber: KindNumber,
	FieldInning: KindNumber, FieldBalls: KindNumber, FieldStrikes: KindNumber,
	FieldPitchType: KindLabel, FieldPitchName: KindLabel, FieldEvents: KindLabel,
	FieldDescription: KindLabel, FieldStand: KindLabel, FieldThrows: KindLabel,
	FieldHomeTeam: KindLabel, FieldAwayTeam: KindLabel,
	FieldReleaseSpeed: KindNumber, FieldSpinRate: KindNumber, FieldPlateX: KindNumber,
	FieldPlateZ: KindNumber, FieldLaunchSpeed: KindNumber, FieldLaunchAngle: KindNumber,
	FieldHitDistance: KindNumber, FieldEstimatedBA: KindNumber, FieldEstimatedWOBA: KindNumber,

	FieldTeam: KindLabel, FieldLeague: KindLabel,
	FieldAge: KindNumber, FieldGames: KindNumber, FieldPA: KindNumber, FieldAB: KindNumber,
	FieldRuns: KindNumber, FieldHits: KindNumber, FieldDoubles: KindNumber, FieldTriples: KindNumber,
	FieldHR: KindNumber, FieldRBI: KindNumber, FieldSB: KindNumber, FieldCS: KindNumber,
	FieldBB: KindNumber, FieldSO: KindNumber, FieldHBP: KindNumber, FieldAVG: KindNumber,
	FieldOBP: KindNumber, FieldSLG: KindNumber, FieldOPS: KindNumber, FieldOPSPlus: KindNumber,
	FieldWOBA: KindNumber, FieldWRCPlus: KindNumber, FieldWAR: KindNumber,

	FieldWins: KindNumber, FieldLosses: KindNumber, FieldGamesStarted: KindNumber,
	FieldSaves: KindNumber, FieldIP: KindNumber, FieldERA: KindNumber, FieldERAPlus: KindNumber,
	FieldFIP: KindNumber, FieldWHIP: KindNumber, FieldK9: KindNumber, FieldBB9: KindNumber,

	FieldBIP: KindNumber, FieldBA: KindNumber, FieldEstBA: KindNumber, FieldEstSLG: KindNumber,
	FieldEstWOBA: KindNumber, FieldWOBADiff: KindNumber,

	FieldPosition: KindLabel, FieldBattedBalls: KindNumber, FieldAvgLaunchAngle: KindNumber,
	FieldSweetSpotPct: KindNumber, FieldAvgExitVelo: KindNumber, FieldMaxExitVelo: KindNumber,
	FieldMaxDistance: KindNumber, FieldAvgHRDistance: KindNumber, FieldHardHitPct: KindNumber,
	FieldBarrels: KindNumber, FieldBarrelPct: KindNumber, FieldBarrelPerPA: KindNumber,
	FieldPitches: KindNumber, FieldPitchUsage: KindNumber, FieldRunValue: KindNumber,
	FieldRunValuePer100: KindNumber, FieldWhiffPct: KindNumber, FieldKPct: KindNumber,
	FieldPutAwayPct: KindNumber, FieldSprintSpeed: KindNumber, FieldHomeToFirst: KindNumber,
	FieldBolts: KindNumber, FieldCompetitiveRuns: KindNumber, FieldOAA: KindNumber,
	FieldFieldingRunsSaved: KindNumber, FieldXHR: KindNumber, FieldXHRDiff: KindNumber,
	FieldNoDoubters: KindNumber, FieldMostlyGone: KindNumber, FieldDoubters: KindNumber,
	FieldPctXWOBA: KindNumber, FieldPctXBA: KindNumber, FieldPctExitVelo: KindNumber,
	FieldPctHardHit: KindNumber, FieldPctBarrel: KindNumber, FieldPctK: KindNumber,
	FieldPctBB: KindNumber, FieldPctWhiff: KindNumber, FieldPctChase: KindNumber,
	FieldPctSprintSpeed: KindNumber, FieldPctOAA: KindNumber,
}

func (f Field) Valid() bool {
	_, ok := kinds[f]
	return ok
}

func (f Field) Kind() Kind {
	return kinds[f]
}
