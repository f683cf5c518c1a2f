package bref

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/statlink/external/providerhttp"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/platform/resilience"
	"github.com/riskibarqy/statlink/internal/usecase"
)

const modernBatting = `<html><body>
<table id="players_standard_batting">
<thead><tr><th data-stat="ranker">Rk</th><th data-stat="name_display">Player</th><th data-stat="team_name_abbr">Team</th>
<th data-stat="b_pa">PA</th><th data-stat="b_hr">HR</th><th data-stat="b_batting_avg">BA</th><th data-stat="awards">Awards</th></tr></thead>
<tbody>
<tr><th data-stat="ranker">1</th><td data-stat="name_display" data-append-csv="troutmi01"><a href="/players/t/troutmi01.shtml">Mike Trout</a>*</td>
<td data-stat="team_name_abbr">LAA</td><td data-stat="b_pa">362</td><td data-stat="b_hr">18</td><td data-stat="b_batting_avg">.263</td><td data-stat="awards"></td></tr>
<tr class="thead"><th data-stat="ranker">Rk</th><td data-stat="name_display">Player</td></tr>
<tr><th data-stat="ranker">2</th><td data-stat="name_display" data-append-csv="doejo01">John Doe</td>
<td data-stat="team_name_abbr">2TM</td><td data-stat="b_pa">100</td><td data-stat="b_hr">3</td><td data-stat="b_batting_avg">.210</td><td data-stat="awards"></td></tr>
<tr class="partial_table"><th data-stat="ranker"></th><td data-stat="name_display" data-append-csv="doejo01">John Doe</td>
<td data-stat="team_name_abbr">NYY</td><td data-stat="b_pa">50</td><td data-stat="b_hr">1</td><td data-stat="b_batting_avg">.200</td><td data-stat="awards"></td></tr>
<tr><th data-stat="ranker"></th><td data-stat="name_display">League Average</td>
<td data-stat="team_name_abbr"></td><td data-stat="b_pa">300</td><td data-stat="b_hr">8</td><td data-stat="b_batting_avg">.248</td><td data-stat="awards"></td></tr>
</tbody></table></body></html>`

const legacyPitching = `<html><body><div id="all_players_standard_pitching"><!--
<table id="players_standard_pitching">
<thead><tr><th data-stat="ranker">Rk</th><th data-stat="player">Name</th><th data-stat="team_ID">Tm</th>
<th data-stat="earned_run_avg">ERA</th><th data-stat="IP">IP</th><th data-stat="SO">SO</th></tr></thead>
<tbody><tr><th data-stat="ranker">1</th><td data-stat="player" data-append-csv="colege01">Gerrit Cole</td>
<td data-stat="team_ID">NYY</td><td data-stat="earned_run_avg">2.63</td><td data-stat="IP">209.0</td><td data-stat="SO">222</td></tr></tbody>
</table>
--></div></body></html>`

func newTestClient(t *testing.T, pages map[string]string) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		HTTP: providerhttp.NewClient(providerhttp.ClientConfig{
			Name:    "bref",
			BaseURL: server.URL,
			Retry:   resilience.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
			Logger:  logging.NewNop(),
		}),
		Logger: logging.NewNop(),
	})
}

func TestClient_FetchModernBattingTable(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, map[string]string{"/leagues/majors/2023-standard-batting.shtml": modernBatting})

	q := statrecord.Query{Season: 2023, PlayerType: statrecord.PlayerTypeBatter, Category: statrecord.CategoryBatting}
	records, err := statrecord.Collect(client.Fetch(context.Background(), q))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 player rows, got=%d", len(records))
	}
	trout := records[0]
	if trout.NativeID != "troutmi01" || trout.PlayerName != "Mike Trout" || trout.Season != 2023 {
		t.Fatalf("unexpected record: %+v", trout)
	}
	if hr, _ := trout.Stat(statrecord.FieldHR); hr != 18 {
		t.Fatalf("expected hr=18, got=%v", hr)
	}
	if team, _ := records[1].Label(statrecord.FieldTeam); team != "2TM" {
		t.Fatalf("expected combined row for traded player, got team=%q", team)
	}
}

func TestClient_FetchLegacyTableInsideComment(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, map[string]string{"/leagues/majors/2019-standard-pitching.shtml": legacyPitching})

	q := statrecord.Query{Season: 2019, PlayerType: statrecord.PlayerTypePitcher, Category: statrecord.CategoryPitching}
	records, err := statrecord.Collect(client.Fetch(context.Background(), q))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 || records[0].NativeID != "colege01" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if era, _ := records[0].Stat(statrecord.FieldERA); era != 2.63 {
		t.Fatalf("expected era=2.63, got=%v", era)
	}
}

func TestClient_FetchMissingTable(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, map[string]string{"/leagues/majors/2023-standard-batting.shtml": "<html><body>redesign</body></html>"})

	q := statrecord.Query{Season: 2023, PlayerType: statrecord.PlayerTypeBatter, Category: statrecord.CategoryBatting}
	_, err := statrecord.Collect(client.Fetch(context.Background(), q))
	if !errors.Is(err, usecase.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestClient_FetchUnknownSeasonIsRejected(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, map[string]string{})

	q := statrecord.Query{Season: 1880, PlayerType: statrecord.PlayerTypeBatter, Category: statrecord.CategoryBatting}
	_, err := statrecord.Collect(client.Fetch(context.Background(), q))
	if !errors.Is(err, usecase.ErrRequestRejected) {
		t.Fatalf("expected ErrRequestRejected, got %v", err)
	}
}
