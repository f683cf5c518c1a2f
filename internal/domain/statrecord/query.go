package statrecord

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidQuery = errors.New("invalid query")

const dateLayout = "2006-01-02"

// Query selects the rows a connector fetches. Either Season or a Start/End
// range is required; when both are set the range wins. A pitch query may
// name a single game with GamePK instead.
type Query struct {
	Season     int `validate:"omitempty,gte=1871,lte=2100"`
	Start      time.Time
	End        time.Time
	PlayerType PlayerType `validate:"required,oneof=batter pitcher"`
	Category   Category   `validate:"required,oneof=pitch batting pitching expected_stats exit_velocity percentile_rankings pitch_arsenal_stats sprint_speed outs_above_average home_runs"`
	PlayerIDs  []string   `validate:"omitempty,dive,required"`
	// MinPA filters leaderboard queries. Zero keeps the provider default.
	MinPA  int `validate:"gte=0"`
	GamePK int `validate:"gte=0"`
}

var validate = validator.New()

func (q Query) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if q.Start.IsZero() != q.End.IsZero() {
		return fmt.Errorf("%w: start and end must be set together", ErrInvalidQuery)
	}
	if q.GamePK > 0 && q.Category != CategoryPitch {
		return fmt.Errorf("%w: game_pk only applies to pitch queries", ErrInvalidQuery)
	}
	if q.Season == 0 && q.Start.IsZero() && q.GamePK == 0 {
		return fmt.Errorf("%w: season or date range is required", ErrInvalidQuery)
	}
	if !q.Start.IsZero() && q.End.Before(q.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidQuery, q.End.Format(dateLayout), q.Start.Format(dateLayout))
	}
	return nil
}

// Seasons lists the seasons the query touches.
func (q Query) Seasons() []int {
	if q.Start.IsZero() {
		return []int{q.Season}
	}
	out := make([]int, 0, q.End.Year()-q.Start.Year()+1)
	for y := q.Start.Year(); y <= q.End.Year(); y++ {
		out = append(out, y)
	}
	return out
}

// Key is a stable identifier for the result of q, used for dataset caching.
func (q Query) Key() string {
	parts := []string{string(q.Category), string(q.PlayerType)}
	if q.Start.IsZero() {
		parts = append(parts, strconv.Itoa(q.Season))
	} else {
		parts = append(parts, q.Start.Format(dateLayout)+".."+q.End.Format(dateLayout))
	}
	if len(q.PlayerIDs) > 0 {
		ids := slices.Clone(q.PlayerIDs)
		slices.Sort(ids)
		parts = append(parts, strings.Join(slices.Compact(ids), ","))
	}
	if q.MinPA > 0 {
		parts = append(parts, "pa"+strconv.Itoa(q.MinPA))
	}
	if q.GamePK > 0 {
		parts = append(parts, "game"+strconv.Itoa(q.GamePK))
	}
	return strings.Join(parts, ":")
}

// WantsPlayer reports whether nativeID passes the PlayerIDs filter.
func (q Query) WantsPlayer(nativeID string) bool {
	return len(q.PlayerIDs) == 0 || slices.Contains(q.PlayerIDs, nativeID)
}
