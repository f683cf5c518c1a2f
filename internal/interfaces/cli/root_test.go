package cli

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/statlink/internal/config"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/infrastructure/snapshotfile"
	"github.com/riskibarqy/statlink/internal/interfaces/view"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand(&RootOptions{})
	require.Equal(t, "statlink", cmd.Use)

	for _, name := range []string{"refresh", "lookup", "fetch", "status", "serve"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := NewRootCommand(&RootOptions{})

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, formatText, format.DefValue)

	refresh, _, err := cmd.Find([]string{"refresh"})
	require.NoError(t, err)
	for _, name := range []string{"table", "force", "output"} {
		assert.NotNil(t, refresh.Flags().Lookup(name), "refresh --%s", name)
	}

	lookup, _, err := cmd.Find([]string{"lookup"})
	require.NoError(t, err)
	for _, name := range []string{"id", "name", "key", "provider", "mlb-only", "debut-year"} {
		assert.NotNil(t, lookup.Flags().Lookup(name), "lookup --%s", name)
	}
}

// seedCrosswalk writes a fresh crosswalk file and points the config at it, so
// commands never reach the network.
func seedCrosswalk(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "people.csv")
	table, err := crosswalk.NewTable([]crosswalk.Record{
		{
			Key: "K1", NameFirst: "Will", NameLast: "Smith", MLBFirst: 2016, MLBLast: 2024,
			IDs: map[crosswalk.Scheme]string{crosswalk.SchemeMLBAM: "669257", crosswalk.SchemeFanGraphs: "19197", crosswalk.SchemeBRef: "smithwi05"},
		},
		{
			Key: "K2", NameFirst: "Will", NameLast: "Smith", MLBFirst: 2019, MLBLast: 2024,
			IDs: map[crosswalk.Scheme]string{crosswalk.SchemeMLBAM: "656968", crosswalk.SchemeFanGraphs: "19375", crosswalk.SchemeBRef: "smithwi04"},
		},
		{
			Key: "K3", NameFirst: "Will", NameLast: "Smith",
			IDs: map[crosswalk.Scheme]string{crosswalk.SchemeBRefMinors: "smith-001wil"},
		},
	}, crosswalk.Meta{FetchedAt: time.Now(), Source: "test"})
	require.NoError(t, err)
	require.NoError(t, snapshotfile.NewStore(logging.NewNop()).Save(context.Background(), path, table))

	t.Setenv("APP_ENV", config.EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("CROSSWALK_MIRROR_ENABLED", "false")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("CROSSWALK_FILE", path)
	t.Setenv("CROSSWALK_MAX_AGE", "720h")
	t.Setenv("CHADWICK_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("CROSSWALK_UPSTREAM_URLS", "")
	return path
}

func run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), code
}

func TestLookup_ByProviderID(t *testing.T) {
	seedCrosswalk(t)

	out, code := run(t, "lookup", "--id", "19375", "--provider", "fg", "--format", "json")
	require.Equal(t, ExitSuccess, code, out)

	var players []view.Player
	require.NoError(t, sonic.Unmarshal([]byte(out), &players))
	if len(players) != 1 || players[0].Key != "K2" {
		t.Fatalf("expected K2, got=%+v", players)
	}
}

func TestLookup_IDForNameUsesDebutYear(t *testing.T) {
	seedCrosswalk(t)

	out, code := run(t, "lookup", "--name", "will smith", "--provider", "bref", "--debut-year", "2016")
	require.Equal(t, ExitSuccess, code)
	if strings.TrimSpace(out) != "smithwi05" {
		t.Fatalf("expected smithwi05, got=%q", out)
	}

	out, code = run(t, "lookup", "--name", "will smith", "--provider", "bref")
	require.Equal(t, ExitSuccess, code)
	if strings.TrimSpace(out) != "smithwi04" {
		t.Fatalf("expected latest debut to win, got=%q", out)
	}
}

func TestLookup_NameTableSkipsMinorLeaguers(t *testing.T) {
	seedCrosswalk(t)

	out, code := run(t, "lookup", "--name", "Smith", "--mlb-only")
	require.Equal(t, ExitSuccess, code)
	if strings.Contains(out, "K3") || !strings.Contains(out, "K1") || !strings.Contains(out, "K2") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if !strings.HasPrefix(out, "KEY") {
		t.Fatalf("expected header row, got:\n%s", out)
	}
}

func TestLookup_ReverseByKey(t *testing.T) {
	seedCrosswalk(t)

	out, code := run(t, "lookup", "--key", "K1", "--provider", "statcast", "--format", "json")
	require.Equal(t, ExitSuccess, code)

	var got map[string]string
	require.NoError(t, sonic.Unmarshal([]byte(out), &got))
	if got["id"] != "669257" {
		t.Fatalf("expected mlbam id, got=%+v", got)
	}
}

func TestLookup_NotFound(t *testing.T) {
	seedCrosswalk(t)

	if _, code := run(t, "lookup", "--id", "nobody", "--provider", "bref"); code != ExitFailure {
		t.Fatalf("expected exit %d for unknown id, got=%d", ExitFailure, code)
	}
}

func TestStatus_ReportsLocalSnapshot(t *testing.T) {
	seedCrosswalk(t)

	out, code := run(t, "status", "--format", "json")
	require.Equal(t, ExitSuccess, code, out)

	var got view.Status
	require.NoError(t, sonic.Unmarshal([]byte(out), &got))
	if got.Crosswalk == nil || got.Crosswalk.Rows != 3 {
		t.Fatalf("expected 3 crosswalk rows, got=%+v", got.Crosswalk)
	}
	if len(got.Resources) != 1 || got.Resources[0].Stale {
		t.Fatalf("expected fresh crosswalk resource, got=%+v", got.Resources)
	}
}

func TestRefresh_StaleDownloadFailureExitsUpstream(t *testing.T) {
	seedCrosswalk(t)
	t.Setenv("CROSSWALK_MAX_AGE", "1ns")
	t.Setenv("CHADWICK_MAX_ATTEMPTS", "1")

	out, code := run(t, "refresh", "--table", "crosswalk")
	require.Equal(t, ExitUpstream, code, out)
	require.Empty(t, out)
}

func TestLookup_StaleCrosswalkWarnsAndAnswers(t *testing.T) {
	seedCrosswalk(t)
	t.Setenv("CROSSWALK_MAX_AGE", "1ns")
	t.Setenv("CHADWICK_MAX_ATTEMPTS", "1")

	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"lookup", "--id", "19375", "--provider", "fg", "--format", "json"}, &stdout, &stderr)
	require.Equal(t, ExitSuccess, code, stderr.String())
	require.Contains(t, stdout.String(), `"K2"`)
	require.Contains(t, stderr.String(), "warning: crosswalk is stale")
}

func TestRefresh_InvalidateDeletesLocalCopy(t *testing.T) {
	path := seedCrosswalk(t)
	t.Setenv("CHADWICK_MAX_ATTEMPTS", "1")

	_, code := run(t, "refresh", "--invalidate")
	require.Equal(t, ExitUpstream, code)
	_, err := os.Stat(path)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRefresh_ForcedDownloadFailureIsUpstreamError(t *testing.T) {
	seedCrosswalk(t)
	t.Setenv("CHADWICK_MAX_ATTEMPTS", "1")

	if _, code := run(t, "refresh", "--force"); code != ExitUpstream {
		t.Fatalf("expected exit %d, got=%d", ExitUpstream, code)
	}
}

func TestUsageErrors(t *testing.T) {
	cases := [][]string{
		{"bogus"},
		{"--format", "yaml", "status"},
		{"lookup"},
		{"lookup", "--id", "1", "--name", "x"},
		{"lookup", "--key", "K1"},
		{"lookup", "--id", "1", "--provider", "espn"},
		{"lookup", "--unknown-flag"},
		{"refresh", "--table", "batting"},
		{"refresh", "--invalidate", "--output", "/tmp/people.csv"},
		{"fetch", "--season", "2023"},
		{"fetch", "--provider", "fangraphs"},
		{"fetch", "--provider", "fangraphs", "--season", "2023", "--category", "fielding"},
		{"fetch", "--provider", "fangraphs", "--start", "2023-04-01"},
	}
	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, code := run(t, args...); code != ExitUsage {
				t.Fatalf("expected exit %d, got=%d", ExitUsage, code)
			}
		})
	}
}
