package statrecord

import (
	"errors"
	"testing"
	"time"
)

func TestQuery_Validate(t *testing.T) {
	t.Parallel()

	day := func(m, d int) time.Time { return time.Date(2023, time.Month(m), d, 0, 0, 0, 0, time.UTC) }
	cases := []struct {
		name string
		q    Query
		ok   bool
	}{
		{name: "season", q: Query{Season: 2023, PlayerType: PlayerTypeBatter, Category: CategoryBatting}, ok: true},
		{name: "range", q: Query{Start: day(4, 1), End: day(4, 3), PlayerType: PlayerTypePitcher, Category: CategoryPitch}, ok: true},
		{name: "no season or range", q: Query{PlayerType: PlayerTypeBatter, Category: CategoryBatting}},
		{name: "end before start", q: Query{Start: day(4, 3), End: day(4, 1), PlayerType: PlayerTypeBatter, Category: CategoryPitch}},
		{name: "half range", q: Query{Start: day(4, 3), PlayerType: PlayerTypeBatter, Category: CategoryPitch}},
		{name: "bad category", q: Query{Season: 2023, PlayerType: PlayerTypeBatter, Category: "fielding"}},
		{name: "bad player type", q: Query{Season: 2023, PlayerType: "umpire", Category: CategoryBatting}},
		{name: "single game", q: Query{GamePK: 717465, PlayerType: PlayerTypePitcher, Category: CategoryPitch}, ok: true},
		{name: "game on leaderboard", q: Query{Season: 2023, GamePK: 717465, PlayerType: PlayerTypeBatter, Category: CategoryExitVelocity}},
		{name: "negative game", q: Query{GamePK: -1, PlayerType: PlayerTypePitcher, Category: CategoryPitch}},
		{name: "leaderboard", q: Query{Season: 2023, PlayerType: PlayerTypeBatter, Category: CategorySprintSpeed}, ok: true},
		{name: "blank player id", q: Query{Season: 2023, PlayerType: PlayerTypeBatter, Category: CategoryBatting, PlayerIDs: []string{""}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.q.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid query, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}

func TestQuery_KeyIsOrderInsensitiveForPlayers(t *testing.T) {
	t.Parallel()

	a := Query{Season: 2023, PlayerType: PlayerTypeBatter, Category: CategoryBatting, PlayerIDs: []string{"2", "1"}}
	b := Query{Season: 2023, PlayerType: PlayerTypeBatter, Category: CategoryBatting, PlayerIDs: []string{"1", "2", "1"}}
	if a.Key() != b.Key() {
		t.Fatalf("expected equal keys, got=%q and %q", a.Key(), b.Key())
	}
	if a.Key() != "batting:batter:2023:1,2" {
		t.Fatalf("unexpected key: %q", a.Key())
	}
}

func TestQuery_KeyIncludesGame(t *testing.T) {
	t.Parallel()

	q := Query{GamePK: 717465, PlayerType: PlayerTypePitcher, Category: CategoryPitch}
	if q.Key() != "pitch:pitcher:0:game717465" {
		t.Fatalf("unexpected key: %q", q.Key())
	}
}

func TestQuery_Seasons(t *testing.T) {
	t.Parallel()

	q := Query{Start: time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2022, 4, 10, 0, 0, 0, 0, time.UTC)}
	if got := q.Seasons(); len(got) != 2 || got[0] != 2021 || got[1] != 2022 {
		t.Fatalf("unexpected seasons: %v", got)
	}
}
