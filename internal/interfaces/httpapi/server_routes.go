package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/status", handler.GetStatus)
}

func registerCrosswalkRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/crosswalk/lookup", handler.LookupCrosswalk)
	mux.HandleFunc("GET /v1/crosswalk/search", handler.SearchCrosswalk)
	mux.HandleFunc("GET /v1/crosswalk/players/{key}", handler.GetCrosswalkPlayer)
}

func registerAcquisitionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/acquisitions", handler.Acquire)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("POST /v1/crosswalk/refresh", RequireAdminToken(adminToken, http.HandlerFunc(handler.RefreshCrosswalk)))
	mux.Handle("POST /v1/crosswalk/invalidate", RequireAdminToken(adminToken, http.HandlerFunc(handler.InvalidateCrosswalk)))
	mux.Handle("POST /v1/datasets/invalidate", RequireAdminToken(adminToken, http.HandlerFunc(handler.InvalidateDatasets)))
}
