package statcast

import "testing"

func TestSplitRange_ThreeDayWindowsInsideSeason(t *testing.T) {
	t.Parallel()

	windows := SplitRange(day(2019, 3, 1), day(2019, 3, 27), 0)
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got=%d", len(windows))
	}
	if !windows[0].Start.Equal(day(2019, 3, 20)) || !windows[0].End.Equal(day(2019, 3, 22)) {
		t.Fatalf("unexpected first window: %s..%s", windows[0].Start, windows[0].End)
	}
	if !windows[2].Start.Equal(day(2019, 3, 26)) || !windows[2].End.Equal(day(2019, 3, 27)) {
		t.Fatalf("unexpected last window: %s..%s", windows[2].Start, windows[2].End)
	}
}

func TestSplitRange_SkipsOffSeason(t *testing.T) {
	t.Parallel()

	windows := SplitRange(day(2021, 11, 1), day(2022, 4, 9), 0)
	for _, w := range windows {
		if w.Start.After(day(2021, 11, 2)) && w.Start.Before(day(2022, 4, 7)) {
			t.Fatalf("window inside off-season: %s", w.Start)
		}
		if w.Season != w.Start.Year() || w.Season != w.End.Year() {
			t.Fatalf("window crosses season: %+v", w)
		}
	}
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got=%d", len(windows))
	}
}

func TestSplitRange_PlayerFilterWidensWindows(t *testing.T) {
	t.Parallel()

	windows := SplitRange(day(2022, 4, 7), day(2022, 11, 5), 1)
	if len(windows) >= 20 {
		t.Fatalf("expected wide windows for one player, got=%d", len(windows))
	}
	whole := SplitRange(day(2022, 4, 7), day(2022, 11, 5), 0)
	if len(whole) <= len(windows) {
		t.Fatalf("expected unfiltered search to need more windows: %d vs %d", len(whole), len(windows))
	}
}

func TestSplitRange_FallbackSeasonBounds(t *testing.T) {
	t.Parallel()

	windows := SplitRange(day(2024, 1, 1), day(2024, 3, 3), 0)
	if len(windows) != 1 || !windows[0].Start.Equal(day(2024, 3, 1)) {
		t.Fatalf("unexpected fallback windows: %+v", windows)
	}
	if got := SplitRange(day(2024, 5, 2), day(2024, 5, 1), 0); got != nil {
		t.Fatalf("expected no windows for inverted range")
	}
}
