package statrecord

import (
	"context"
	"iter"
	"time"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
)

// Category selects which table a connector reads.
type Category string

const (
	CategoryPitch         Category = "pitch"
	CategoryBatting       Category = "batting"
	CategoryPitching      Category = "pitching"
	CategoryExpectedStats Category = "expected_stats"

	// Statcast leaderboards.
	CategoryExitVelocity      Category = "exit_velocity"
	CategoryPercentileRanks   Category = "percentile_rankings"
	CategoryPitchArsenalStats Category = "pitch_arsenal_stats"
	CategorySprintSpeed       Category = "sprint_speed"
	CategoryOAA               Category = "outs_above_average"
	CategoryHomeRuns          Category = "home_runs"
)

type PlayerType string

const (
	PlayerTypeBatter  PlayerType = "batter"
	PlayerTypePitcher PlayerType = "pitcher"
)

// Record is one normalized observation from a provider.
type Record struct {
	Provider   crosswalk.Provider
	NativeID   string
	PlayerName string
	Season     int
	// Date is zero for season-level rows.
	Date     time.Time
	Category Category
	Stats    map[Field]float64
	Labels   map[Field]string
}

func (r Record) Stat(f Field) (float64, bool) {
	v, ok := r.Stats[f]
	return v, ok
}

func (r Record) Label(f Field) (string, bool) {
	v, ok := r.Labels[f]
	return v, ok
}

// Resolved is a record tagged with its canonical key. Unresolved records
// keep an empty key and are reported rather than dropped.
type Resolved struct {
	Record
	Key        crosswalk.CanonicalKey
	Unresolved bool
}

// Connector fetches one provider's data. Fetch is lazy: requests are issued
// while the sequence is ranged over, and ranging again issues them again.
// A yielded error ends the sequence.
type Connector interface {
	Provider() crosswalk.Provider
	Fetch(ctx context.Context, q Query) iter.Seq2[Record, error]
}

// FromSlice adapts materialized records to the sequence form.
func FromSlice(records []Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Collect drains seq, stopping at the first error.
func Collect(seq iter.Seq2[Record, error]) ([]Record, error) {
	var out []Record
	for r, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}
