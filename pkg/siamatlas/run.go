package siamatlas

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/siamatlas/siamatlas/internal/metrics"
)

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails. Shutdown is graceful with a 5 second drain window.
//
// Routes (all JSON unless noted):
//
//	GET  /health, /api/health                       health status
//	GET  /metrics                                   prometheus metrics
//
//	POST /api/auth/signin                           username-or-email + password
//	POST /api/auth/signout
//	GET  /api/auth/me
//	POST /api/auth/refresh
//
//	POST   /api/provinces                           create (auth)
//	GET    /api/provinces                           list
//	GET    /api/provinces/{id}                      get with districts
//	PUT    /api/provinces/{id}                      update (gate + lock check)
//	DELETE /api/provinces/{id}                      delete (creator only)
//	POST   /api/provinces/{id}/save                 best-effort editor save
//
//	POST   /api/provinces/{provinceId}/districts    create (auth)
//	GET    /api/provinces/{provinceId}/districts    list
//	GET    /api/districts/{id}
//	PUT    /api/districts/{id}
//	DELETE /api/districts/{id}
//
//	POST   /api/provinces/{id}/periods              append period
//	PUT    /api/provinces/{id}/periods/{index}
//	DELETE /api/provinces/{id}/periods/{index}
//	POST   /api/districts/{id}/periods
//	PUT    /api/districts/{id}/periods/{index}
//	DELETE /api/districts/{id}/periods/{index}
//
//	POST /api/media                                 multipart {file,type} -> {url}
//
//	POST /api/register                              multipart application + CV
//	GET  /api/admin/register                        list applications (admin)
//	POST /api/admin/register/{id}/accept
//	POST /api/admin/register/{id}/reject
//
//	POST /api/collaborations                        request access
//	GET  /api/collaborations                        list (?kind=&target=)
//	POST /api/collaborations/{id}/accept            creator only
//	POST /api/collaborations/{id}/reject            creator only
//
//	GET  /api/updates                               recent audit feed (?limit=)
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	router := a.Router()

	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().Str("addr", addr).Str("backend", string(a.config.Backend)).Msg("starting server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// Router builds the full route table. Exposed separately so tests can drive
// the API through httptest without binding a port.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(a.instrument)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	api.HandleFunc("/auth/signin", a.handleSignIn).Methods("POST")
	api.HandleFunc("/auth/signout", a.handleSignOut).Methods("POST")
	api.HandleFunc("/auth/me", a.handleGetCurrentAdmin).Methods("GET")
	api.HandleFunc("/auth/refresh", a.handleRefreshToken).Methods("POST")

	api.HandleFunc("/provinces", a.handleCreateProvince).Methods("POST")
	api.HandleFunc("/provinces", a.handleListProvinces).Methods("GET")
	api.HandleFunc("/provinces/{id}", a.handleGetProvince).Methods("GET")
	api.HandleFunc("/provinces/{id}", a.handleUpdateProvince).Methods("PUT")
	api.HandleFunc("/provinces/{id}", a.handleDeleteProvince).Methods("DELETE")
	api.HandleFunc("/provinces/{id}/save", a.handleSaveProvince).Methods("POST")

	api.HandleFunc("/provinces/{provinceId}/districts", a.handleCreateDistrict).Methods("POST")
	api.HandleFunc("/provinces/{provinceId}/districts", a.handleListDistricts).Methods("GET")
	api.HandleFunc("/districts/{id}", a.handleGetDistrict).Methods("GET")
	api.HandleFunc("/districts/{id}", a.handleUpdateDistrict).Methods("PUT")
	api.HandleFunc("/districts/{id}", a.handleDeleteDistrict).Methods("DELETE")

	api.HandleFunc("/provinces/{id}/periods", a.handleAddProvincePeriod).Methods("POST")
	api.HandleFunc("/provinces/{id}/periods/{index}", a.handleUpdateProvincePeriod).Methods("PUT")
	api.HandleFunc("/provinces/{id}/periods/{index}", a.handleDeleteProvincePeriod).Methods("DELETE")
	api.HandleFunc("/districts/{id}/periods", a.handleAddDistrictPeriod).Methods("POST")
	api.HandleFunc("/districts/{id}/periods/{index}", a.handleUpdateDistrictPeriod).Methods("PUT")
	api.HandleFunc("/districts/{id}/periods/{index}", a.handleDeleteDistrictPeriod).Methods("DELETE")

	api.HandleFunc("/media", a.handleUploadMedia).Methods("POST")

	api.HandleFunc("/register", a.handleRegister).Methods("POST")
	api.HandleFunc("/admin/register", a.handleListRegistrations).Methods("GET")
	api.HandleFunc("/admin/register/{id}/accept", a.handleAcceptRegistration).Methods("POST")
	api.HandleFunc("/admin/register/{id}/reject", a.handleRejectRegistration).Methods("POST")

	api.HandleFunc("/collaborations", a.handleCreateCollaborationRequest).Methods("POST")
	api.HandleFunc("/collaborations", a.handleListCollaborationRequests).Methods("GET")
	api.HandleFunc("/collaborations/{id}/accept", a.handleAcceptCollaborationRequest).Methods("POST")
	api.HandleFunc("/collaborations/{id}/reject", a.handleRejectCollaborationRequest).Methods("POST")

	api.HandleFunc("/updates", a.handleListUpdates).Methods("GET")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// instrument records request counts and latency per route template.
func (a *App) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.RequestsTotal.WithLabelValues(route, fmt.Sprintf("%d", rec.status)).Inc()
		metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		a.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
