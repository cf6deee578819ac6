package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Stateless reading validation (no device required)
		r.Post("/readings/validate", s.handleValidateReading)

		// Marketplace and device lifecycle
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleMarketplace)
			r.Post("/", s.handleRegisterDevice)

			r.Route("/{address}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Patch("/", s.handleUpdateDevice)
				r.Put("/active", s.handleSetDeviceActive)
				r.Post("/purchase", s.handlePurchaseAccess)
				r.Get("/access", s.handleGetAccess)
				r.Post("/readings", s.handlePublishReading)
			})
		})

		// Owner dashboard
		r.Get("/owners/{address}/devices", s.handleOwnerDevices)

		// Subscription views and overlay state
		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", s.handleListSubscriptions)

			r.Route("/{device}", func(r chi.Router) {
				r.Get("/", s.handleGetSubscription)
				r.Put("/auto-renewal", s.handleSetAutoRenewal)
				r.Post("/consumption", s.handleRecordConsumption)
				r.Delete("/", s.handleCancelSubscription)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// addressParam extracts and validates a hex address URL parameter.
// The second return value is false if the parameter is not a valid address;
// a 400 response has already been written in that case.
func addressParam(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	raw := chi.URLParam(r, name)
	if !common.IsHexAddress(raw) {
		writeBadRequest(w, "invalid address: "+raw)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// addressQuery extracts and validates a hex address query parameter.
func addressQuery(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	raw := r.URL.Query().Get(name)
	if !common.IsHexAddress(raw) {
		writeBadRequest(w, "invalid or missing "+name+" address")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
