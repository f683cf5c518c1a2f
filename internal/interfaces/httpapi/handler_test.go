package httpapi

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	"github.com/riskibarqy/statlink/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/statlink/internal/infrastructure/snapshotfile"
	"github.com/riskibarqy/statlink/internal/interfaces/view"
	"github.com/riskibarqy/statlink/internal/platform/cache"
	"github.com/riskibarqy/statlink/internal/platform/id"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/usecase"
	"github.com/stretchr/testify/require"
)

const testAdminToken = "admin-secret"

type stubRegister struct {
	calls atomic.Int32
	down  atomic.Bool
}

func (s *stubRegister) FetchTable(context.Context) (*crosswalk.Table, error) {
	s.calls.Add(1)
	if s.down.Load() {
		return nil, fmt.Errorf("%w: register offline", usecase.ErrUpstreamUnavailable)
	}
	return registerTable(time.Now())
}

func registerTable(fetchedAt time.Time) (*crosswalk.Table, error) {
	return crosswalk.NewTable([]crosswalk.Record{
		{
			Key: "K1", NameFirst: "Will", NameLast: "Smith", MLBFirst: 2016, MLBLast: 2024,
			IDs: map[crosswalk.Scheme]string{crosswalk.SchemeMLBAM: "669257", crosswalk.SchemeFanGraphs: "a123", crosswalk.SchemeBRef: "smithwi05"},
		},
		{
			Key: "K2", NameFirst: "Mookie", NameLast: "Betts", MLBFirst: 2014, MLBLast: 2024,
			IDs: map[crosswalk.Scheme]string{crosswalk.SchemeMLBAM: "605141", crosswalk.SchemeFanGraphs: "13611", crosswalk.SchemeBRef: "bettsmo01"},
		},
	}, crosswalk.Meta{FetchedAt: fetchedAt, Source: "stub://register"})
}

func (s *stubRegister) Source() string { return "stub://register" }

type stubConnector struct {
	provider crosswalk.Provider
	records  []statrecord.Record
}

func (c stubConnector) Provider() crosswalk.Provider { return c.provider }

func (c stubConnector) Fetch(context.Context, statrecord.Query) iter.Seq2[statrecord.Record, error] {
	return statrecord.FromSlice(c.records)
}

type envelope[T any] struct {
	APIVersion string `json:"apiVersion"`
	Data       T      `json:"data"`
	Error      *struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) (http.Handler, *stubRegister) {
	t.Helper()
	return newTestRouterWithFile(t, nil)
}

// newTestRouterWithFile seeds the snapshot file with local before the router
// is built, so the first read starts from that copy.
func newTestRouterWithFile(t *testing.T, local *crosswalk.Table) (http.Handler, *stubRegister) {
	t.Helper()

	logger := logging.NewNop()
	register := &stubRegister{}
	refresh := usecase.NewRefreshManager(usecase.RefreshManagerConfig{Logger: logger})
	files := snapshotfile.NewStore(logger)
	path := filepath.Join(t.TempDir(), "people.csv")
	if local != nil {
		require.NoError(t, files.Save(context.Background(), path, local))
	}

	xwalk, err := usecase.NewCrosswalkService(usecase.CrosswalkServiceConfig{
		Path:    path,
		Fetcher: register,
		Files:   files,
		Mirror:  memory.NewCrosswalkRepository(),
		Refresh: refresh,
		Logger:  logger,
	})
	require.NoError(t, err)

	acquisition, err := usecase.NewAcquisitionService(usecase.AcquisitionServiceConfig{
		Connectors: []statrecord.Connector{
			stubConnector{provider: crosswalk.ProviderFanGraphs, records: []statrecord.Record{
				{Provider: crosswalk.ProviderFanGraphs, NativeID: "a123", PlayerName: "Will Smith", Season: 2023, Category: statrecord.CategoryBatting,
					Stats: map[statrecord.Field]float64{"pa": 554}},
				{Provider: crosswalk.ProviderFanGraphs, NativeID: "sa9999", PlayerName: "Nobody", Season: 2023, Category: statrecord.CategoryBatting},
			}},
		},
		Crosswalk:    xwalk,
		Resolution:   usecase.NewResolutionService(nil, logger),
		Refresh:      refresh,
		Datasets:     cache.NewStore(0),
		IDs:          id.StaticGenerator("run-1"),
		CrosswalkAge: time.Hour,
		DatasetAge:   time.Hour,
		Logger:       logger,
	})
	require.NoError(t, err)

	handler := NewHandler(HandlerConfig{
		Crosswalk:    xwalk,
		Acquisition:  acquisition,
		Refresh:      refresh,
		CrosswalkAge: time.Hour,
		DatasetAge:   time.Hour,
		Logger:       logger,
	})
	return NewRouter(handler, logger, []string{"*"}, testAdminToken), register
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if method == http.MethodPost {
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_LookupDownloadsCrosswalkOnce(t *testing.T) {
	t.Parallel()

	router, register := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/crosswalk/lookup?provider=fg&id=a123", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeEnvelope[view.Lookup](t, rec)
	if got.Data.Key != "K1" || got.Data.Provider != string(crosswalk.ProviderFanGraphs) {
		t.Fatalf("unexpected lookup: %+v", got.Data)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/crosswalk/lookup?provider=bref&id=unknown01", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
	if register.calls.Load() != 1 {
		t.Fatalf("expected a single download, got=%d", register.calls.Load())
	}
}

func TestHandler_LookupRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	router, register := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/v1/crosswalk/lookup?provider=espn&id=1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if register.calls.Load() != 0 {
		t.Fatalf("expected no download for a bad request")
	}
}

func TestHandler_SearchAndPlayer(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/crosswalk/search?name=betts&mlbOnly=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	players := decodeEnvelope[[]view.Player](t, rec)
	if len(players.Data) != 1 || players.Data[0].Key != "K2" {
		t.Fatalf("unexpected search result: %+v", players.Data)
	}
	if players.Data[0].IDs[string(crosswalk.SchemeBRef)] != "bettsmo01" {
		t.Fatalf("expected bref id in player ids, got=%+v", players.Data[0].IDs)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/crosswalk/search", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without name or id, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/crosswalk/players/K1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	player := decodeEnvelope[view.Player](t, rec)
	if player.Data.Name != "Will Smith" || player.Data.MLBPlayedFirst != 2016 {
		t.Fatalf("unexpected player: %+v", player.Data)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/crosswalk/players/K404", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown key, got %d", rec.Code)
	}
}

func TestHandler_RefreshRequiresAdminToken(t *testing.T) {
	t.Parallel()

	router, register := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/crosswalk/refresh?force=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/crosswalk/refresh?force=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeEnvelope[view.Snapshot](t, rec)
	if snap.Data.Rows != 2 || snap.Data.Source != "stub://register" {
		t.Fatalf("unexpected snapshot: %+v", snap.Data)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/crosswalk/refresh?force=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	if register.calls.Load() != 2 {
		t.Fatalf("expected forced refresh to download again, got=%d", register.calls.Load())
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/crosswalk/refresh?force=maybe", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid force flag, got %d", rec.Code)
	}
}

func TestHandler_Acquire(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	body := `{"providers":["fangraphs"],"season":2023,"playerType":"batter","category":"batting"}`
	rec := doRequest(t, router, http.MethodPost, "/v1/acquisitions", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeEnvelope[view.Acquisition](t, rec)
	if got.Data.RunID != "run-1" {
		t.Fatalf("unexpected run id: %q", got.Data.RunID)
	}
	if len(got.Data.Players) != 1 || got.Data.Players[0].Key != "K1" {
		t.Fatalf("expected K1 joined, got=%+v", got.Data.Players)
	}
	rows := got.Data.Players[0].Records[string(crosswalk.ProviderFanGraphs)]
	if len(rows) != 1 || rows[0].Stats["pa"] != 554 {
		t.Fatalf("unexpected fangraphs rows: %+v", rows)
	}
	if got.Data.UnresolvedByProvider[string(crosswalk.ProviderFanGraphs)] != 1 {
		t.Fatalf("expected one unresolved fangraphs record, got=%+v", got.Data.UnresolvedByProvider)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeEnvelope[view.Status](t, rec)
	if status.Data.Crosswalk == nil || status.Data.Crosswalk.Rows != 2 {
		t.Fatalf("expected crosswalk snapshot in status, got=%+v", status.Data.Crosswalk)
	}
	if status.Data.Mirror == nil || status.Data.Mirror.Rows != 2 {
		t.Fatalf("expected mirror snapshot in status, got=%+v", status.Data.Mirror)
	}
	if len(status.Data.Resources) < 2 {
		t.Fatalf("expected crosswalk and dataset resources, got=%+v", status.Data.Resources)
	}
}

func TestHandler_AcquireRejectsBadPayloads(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t)

	cases := map[string]string{
		"empty body":        ``,
		"unknown field":     `{"providers":["fangraphs"],"season":2023,"playerType":"batter","category":"batting","extra":1}`,
		"missing providers": `{"season":2023,"playerType":"batter","category":"batting"}`,
		"bad category":      `{"providers":["fangraphs"],"season":2023,"playerType":"batter","category":"fielding"}`,
		"bad provider":      `{"providers":["espn"],"season":2023,"playerType":"batter","category":"batting"}`,
		"bad date":          `{"providers":["fangraphs"],"startDate":"2023/04/01","endDate":"2023-04-30","playerType":"batter","category":"batting"}`,
		"bad max age":       `{"providers":["fangraphs"],"season":2023,"playerType":"batter","category":"batting","maxAge":"-1h"}`,
		"no season":         `{"providers":["fangraphs"],"playerType":"batter","category":"batting"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/v1/acquisitions", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandler_StaleCrosswalkServesReadsButFailsRefresh(t *testing.T) {
	t.Parallel()

	fetchedAt := time.Now().Add(-48 * time.Hour).UTC().Truncate(time.Second)
	local, err := registerTable(fetchedAt)
	require.NoError(t, err)
	router, register := newTestRouterWithFile(t, local)
	register.down.Store(true)

	rec := doRequest(t, router, http.MethodGet, "/v1/crosswalk/lookup?provider=fg&id=a123", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, fetchedAt.Format(time.RFC3339), rec.Header().Get(staleHeader))

	rec = doRequest(t, router, http.MethodPost, "/v1/crosswalk/refresh", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the register is down, got %d: %s", rec.Code, rec.Body.String())
	}

	register.down.Store(false)
	rec = doRequest(t, router, http.MethodPost, "/v1/crosswalk/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/v1/crosswalk/lookup?provider=fg&id=a123", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get(staleHeader))
}

func TestHandler_InvalidateCrosswalkDownloadsAgain(t *testing.T) {
	t.Parallel()

	router, register := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/v1/crosswalk/lookup?provider=mlbam&id=605141", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/v1/crosswalk/invalidate", nil)
	unauth := httptest.NewRecorder()
	router.ServeHTTP(unauth, req)
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", unauth.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/crosswalk/invalidate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/v1/crosswalk/lookup?provider=mlbam&id=605141", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	if register.calls.Load() != 2 {
		t.Fatalf("expected a second download after invalidate, got=%d", register.calls.Load())
	}
}
