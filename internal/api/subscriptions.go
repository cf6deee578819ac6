package api

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/registry"
	"github.com/somniastreams/marketcore/internal/subscription"
)

// subscriptionResponse is a subscription view with display-formatted amounts.
type subscriptionResponse struct {
	subscription.View
	PriceDisplay            string `json:"price_display"`
	TotalPaidDisplay        string `json:"total_paid_display"`
	RemainingBalanceDisplay string `json:"remaining_balance_display"`
}

func toSubscriptionResponse(v subscription.View) subscriptionResponse {
	return subscriptionResponse{
		View:                    v,
		PriceDisplay:            registry.FormatBaseUnits(v.PricePerDataPoint),
		TotalPaidDisplay:        registry.FormatBaseUnits(v.TotalPaid),
		RemainingBalanceDisplay: registry.FormatBaseUnits(v.RemainingBalance),
	}
}

// handleListSubscriptions returns the subscriber's visible subscriptions.
//
// Query parameters:
//   - subscriber: subscriber address (required)
func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subscriber, ok := addressQuery(w, r, "subscriber")
	if !ok {
		return
	}

	views, err := s.subscriptions.Views(r.Context(), subscriber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]subscriptionResponse, len(views))
	for i, v := range views {
		out[i] = toSubscriptionResponse(v)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscriptions": out,
		"count":         len(out),
	})
}

// handleGetSubscription returns one subscription view.
//
// Query parameters:
//   - subscriber: subscriber address (required)
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	device, ok := addressParam(w, r, "device")
	if !ok {
		return
	}
	subscriber, ok := addressQuery(w, r, "subscriber")
	if !ok {
		return
	}

	view, err := s.subscriptions.View(r.Context(), subscriber, device)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriptionResponse(view))
}

// autoRenewalRequest toggles the local auto-renewal preference.
type autoRenewalRequest struct {
	Subscriber string `json:"subscriber"`
	Enabled    bool   `json:"enabled"`
}

// handleSetAutoRenewal updates the local auto-renewal preference.
// This touches only the overlay; no chain transaction is made.
func (s *Server) handleSetAutoRenewal(w http.ResponseWriter, r *http.Request) {
	device, ok := addressParam(w, r, "device")
	if !ok {
		return
	}

	var req autoRenewalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !common.IsHexAddress(req.Subscriber) {
		writeBadRequest(w, "invalid subscriber address")
		return
	}

	err := s.subscriptions.SetAutoRenewal(r.Context(), common.HexToAddress(req.Subscriber), device, req.Enabled)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"auto_renewal": req.Enabled})
}

// consumptionRequest records data points consumed against a subscription.
type consumptionRequest struct {
	Subscriber string `json:"subscriber"`
	Points     int64  `json:"points"`
}

// handleRecordConsumption adds consumed data points to the local overlay.
func (s *Server) handleRecordConsumption(w http.ResponseWriter, r *http.Request) {
	device, ok := addressParam(w, r, "device")
	if !ok {
		return
	}

	var req consumptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !common.IsHexAddress(req.Subscriber) {
		writeBadRequest(w, "invalid subscriber address")
		return
	}
	if req.Points <= 0 {
		writeBadRequest(w, "points must be positive")
		return
	}

	err := s.subscriptions.RecordConsumption(r.Context(), common.HexToAddress(req.Subscriber), device, req.Points)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCancelSubscription cancels a subscription locally and returns the
// computed refund amount. The on-chain grant is untouched.
//
// Query parameters:
//   - subscriber: subscriber address (required)
func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	device, ok := addressParam(w, r, "device")
	if !ok {
		return
	}
	subscriber, ok := addressQuery(w, r, "subscriber")
	if !ok {
		return
	}

	refund, err := s.subscriptions.Cancel(r.Context(), subscriber, device)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"refund":         refund,
		"refund_display": registry.FormatBaseUnits(refund),
	})
}
