package statcast

import (
	"time"
)

const (
	maxRowsPerRequest = 15000
	pitchesPerGame    = 325
	gamesPerDay       = 15
	pitchesPerSeason  = 750000
	// A single player appears in roughly one team's share of all pitches.
	playerShare = 1.0 / 30
)

var daysPerRequest = max(1, maxRowsPerRequest/(pitchesPerGame*gamesPerDay))

type seasonSpan struct {
	start, end time.Time
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Regular season plus postseason bounds. Seasons missing here fall back to
// March 1 through November 30.
var seasonDates = map[int]seasonSpan{
	2008: {day(2008, 3, 25), day(2008, 10, 27)},
	2009: {day(2009, 4, 5), day(2009, 11, 4)},
	2010: {day(2010, 4, 4), day(2010, 11, 1)},
	2011: {day(2011, 3, 31), day(2011, 10, 28)},
	2012: {day(2012, 3, 28), day(2012, 10, 28)},
	2013: {day(2013, 3, 31), day(2013, 10, 30)},
	2014: {day(2014, 3, 22), day(2014, 10, 29)},
	2015: {day(2015, 4, 5), day(2015, 11, 1)},
	2016: {day(2016, 4, 3), day(2016, 11, 2)},
	2017: {day(2017, 4, 2), day(2017, 11, 1)},
	2018: {day(2018, 3, 29), day(2018, 10, 28)},
	2019: {day(2019, 3, 20), day(2019, 10, 30)},
	2020: {day(2020, 7, 23), day(2020, 10, 27)},
	2021: {day(2021, 4, 1), day(2021, 11, 2)},
	2022: {day(2022, 4, 7), day(2022, 11, 5)},
}

func seasonBounds(season int) seasonSpan {
	if span, ok := seasonDates[season]; ok {
		return span
	}
	return seasonSpan{day(season, 3, 1), day(season, 11, 30)}
}

// Window is one search request's date range, inclusive on both ends.
type Window struct {
	Season int
	Start  time.Time
	End    time.Time
}

// SplitRange cuts [start, end] into windows small enough to stay under the
// search row cap. Windows never cross a season and skip the off-season.
// players is the size of the player filter, 0 for none.
func SplitRange(start, end time.Time, players int) []Window {
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return nil
	}

	frequency := 1.0
	if players > 0 {
		frequency = min(1, float64(players)*playerShare)
	}
	span := int(float64(daysPerRequest-1)/frequency) + 1
	whole := pitchesPerSeason*frequency < maxRowsPerRequest

	var out []Window
	for season := start.Year(); season <= end.Year(); season++ {
		bounds := seasonBounds(season)
		rangeStart := laterOf(bounds.start, start)
		last := earlierOf(bounds.end, end)
		if whole {
			if !rangeStart.After(last) {
				out = append(out, Window{Season: season, Start: rangeStart, End: last})
			}
			continue
		}
		for !rangeStart.After(last) {
			rangeEnd := earlierOf(last, rangeStart.AddDate(0, 0, span-1))
			out = append(out, Window{Season: season, Start: rangeStart, End: rangeEnd})
			rangeStart = rangeEnd.AddDate(0, 0, 1)
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return day(y, m, d)
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
