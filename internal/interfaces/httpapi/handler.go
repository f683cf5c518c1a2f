package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	"github.com/riskibarqy/statlink/internal/interfaces/view"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/usecase"
)

const (
	dateLayout          = "2006-01-02"
	maxRequestBodyBytes = 1 << 20
	// staleHeader holds the fetch time of a crosswalk served after a
	// failed refresh.
	staleHeader = "X-Crosswalk-Stale"
)

type HandlerConfig struct {
	Crosswalk    *usecase.CrosswalkService
	Acquisition  *usecase.AcquisitionService
	Refresh      *usecase.RefreshManager
	CrosswalkAge time.Duration
	DatasetAge   time.Duration
	Logger       *logging.Logger
	Now          func() time.Time
}

type Handler struct {
	crosswalk    *usecase.CrosswalkService
	acquisition  *usecase.AcquisitionService
	refresh      *usecase.RefreshManager
	crosswalkAge time.Duration
	datasetAge   time.Duration
	logger       *logging.Logger
	validator    *validator.Validate
	now          func() time.Time
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Handler{
		crosswalk:    cfg.Crosswalk,
		acquisition:  cfg.Acquisition,
		refresh:      cfg.Refresh,
		crosswalkAge: cfg.CrosswalkAge,
		datasetAge:   cfg.DatasetAge,
		logger:       cfg.Logger,
		validator:    validator.New(),
		now:          cfg.Now,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStatus")
	defer span.End()

	out := view.Status{Resources: []view.Resource{}}
	if table, ok := h.crosswalk.Snapshot(); ok {
		snap := view.NewTableSnapshot(table)
		out.Crosswalk = &snap
	}

	info, ok, err := h.crosswalk.MirrorStatus(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "read mirror status failed", "error", err)
	} else if ok {
		snap := view.NewSnapshot(info)
		out.Mirror = &snap
	}

	now := h.now()
	for _, name := range h.refresh.Resources() {
		st, ok := h.refresh.Status(name)
		if !ok {
			continue
		}
		maxAge := h.datasetAge
		if name == usecase.ResourceCrosswalk {
			maxAge = h.crosswalkAge
		}
		out.Resources = append(out.Resources, view.NewResource(st, maxAge, now))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) LookupCrosswalk(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LookupCrosswalk")
	defer span.End()

	query := r.URL.Query()
	provider, err := crosswalk.ParseProvider(query.Get("provider"))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	nativeID := strings.TrimSpace(query.Get("id"))

	if !h.ensureCrosswalk(ctx, w) {
		return
	}

	key, ok, err := h.crosswalk.Lookup(provider, nativeID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: %s id %q", usecase.ErrNotFound, provider, nativeID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view.Lookup{Provider: string(provider), NativeID: nativeID, Key: string(key)})
}

func (h *Handler) SearchCrosswalk(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchCrosswalk")
	defer span.End()

	query := r.URL.Query()
	mlbOnly, err := parseOptionalBool(query.Get("mlbOnly"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if !h.ensureCrosswalk(ctx, w) {
		return
	}

	var records []crosswalk.Record
	switch {
	case strings.TrimSpace(query.Get("name")) != "":
		records, err = h.crosswalk.LookupName(query.Get("name"), mlbOnly)
	case strings.TrimSpace(query.Get("id")) != "":
		records, err = h.crosswalk.LookupAny(query.Get("id"), mlbOnly)
	default:
		err = fmt.Errorf("%w: name or id is required", usecase.ErrInvalidInput)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view.NewPlayers(records))
}

func (h *Handler) GetCrosswalkPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCrosswalkPlayer")
	defer span.End()

	key := crosswalk.CanonicalKey(strings.TrimSpace(r.PathValue("key")))
	if !h.ensureCrosswalk(ctx, w) {
		return
	}

	record, err := h.crosswalk.Player(key)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view.NewPlayer(record))
}

func (h *Handler) RefreshCrosswalk(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshCrosswalk")
	defer span.End()

	force, err := parseOptionalBool(r.URL.Query().Get("force"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var table *crosswalk.Table
	if force {
		table, err = h.crosswalk.ForceRefresh(ctx)
	} else {
		table, err = h.crosswalk.EnsureStrict(ctx, h.crosswalkAge)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "refresh crosswalk failed", "force", force, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view.NewTableSnapshot(table))
}

func (h *Handler) InvalidateCrosswalk(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InvalidateCrosswalk")
	defer span.End()

	if err := h.crosswalk.Invalidate(ctx); err != nil {
		h.logger.WarnContext(ctx, "invalidate crosswalk failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) InvalidateDatasets(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InvalidateDatasets")
	defer span.End()

	h.acquisition.InvalidateDatasets(ctx)
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) Acquire(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Acquire")
	defer span.End()

	req, err := decodeAcquisitionRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	in, err := req.toUsecase()
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	res, err := h.acquisition.Acquire(ctx, in)
	if err != nil {
		h.logger.WarnContext(ctx, "acquisition failed", "providers", req.Providers, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view.NewAcquisition(res))
}

// ensureCrosswalk readies the crosswalk for a read. A stale table still
// answers; the response carries staleHeader with the refresh failure.
func (h *Handler) ensureCrosswalk(ctx context.Context, w http.ResponseWriter) bool {
	st, err := h.crosswalk.Ensure(ctx, h.crosswalkAge)
	if err != nil {
		h.logger.WarnContext(ctx, "ensure crosswalk failed", "error", err)
		writeError(ctx, w, err)
		return false
	}
	if st.Stale {
		w.Header().Set(staleHeader, st.Table.FetchedAt().UTC().Format(time.RFC3339))
	}
	return true
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type acquisitionRequest struct {
	Providers  []string `json:"providers" validate:"required,min=1,dive,required"`
	Season     int      `json:"season" validate:"omitempty,gte=1871,lte=2100"`
	StartDate  string   `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate    string   `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	PlayerType string   `json:"playerType" validate:"required,oneof=batter pitcher"`
	Category   string   `json:"category" validate:"required,oneof=pitch batting pitching expected_stats exit_velocity percentile_rankings pitch_arsenal_stats sprint_speed outs_above_average home_runs"`
	PlayerIDs  []string `json:"playerIds" validate:"omitempty,dive,required"`
	MinPA      int      `json:"minPa" validate:"gte=0"`
	GamePK     int      `json:"gamePk" validate:"gte=0"`
	MaxAge     string   `json:"maxAge"`
}

func decodeAcquisitionRequest(r *http.Request) (acquisitionRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()

	var req acquisitionRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return acquisitionRequest{}, fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return acquisitionRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

func (req acquisitionRequest) toUsecase() (usecase.AcquisitionRequest, error) {
	out := usecase.AcquisitionRequest{
		Query: statrecord.Query{
			Season:     req.Season,
			PlayerType: statrecord.PlayerType(req.PlayerType),
			Category:   statrecord.Category(req.Category),
			PlayerIDs:  req.PlayerIDs,
			MinPA:      req.MinPA,
			GamePK:     req.GamePK,
		},
	}

	for _, raw := range req.Providers {
		p, err := crosswalk.ParseProvider(raw)
		if err != nil {
			return usecase.AcquisitionRequest{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
		}
		out.Providers = append(out.Providers, p)
	}

	var err error
	if req.StartDate != "" {
		if out.Query.Start, err = time.Parse(dateLayout, req.StartDate); err != nil {
			return usecase.AcquisitionRequest{}, fmt.Errorf("%w: startDate: %v", usecase.ErrInvalidInput, err)
		}
	}
	if req.EndDate != "" {
		if out.Query.End, err = time.Parse(dateLayout, req.EndDate); err != nil {
			return usecase.AcquisitionRequest{}, fmt.Errorf("%w: endDate: %v", usecase.ErrInvalidInput, err)
		}
	}
	if req.MaxAge != "" {
		if out.MaxAge, err = time.ParseDuration(req.MaxAge); err != nil || out.MaxAge <= 0 {
			return usecase.AcquisitionRequest{}, fmt.Errorf("%w: maxAge must be a positive duration", usecase.ErrInvalidInput)
		}
	}

	return out, nil
}

func parseOptionalBool(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: invalid boolean %q", usecase.ErrInvalidInput, raw)
	}
	return v, nil
}
