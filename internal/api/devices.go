package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somniastreams/marketcore/internal/discovery"
	"github.com/somniastreams/marketcore/internal/registry"
)

// hoursPerDay converts the subscription duration from request days.
const hoursPerDay = 24

// marketDevice is a hydrated device with a display-formatted price.
type marketDevice struct {
	discovery.HydratedDevice
	PriceDisplay string `json:"price_display"`
}

// deviceResponse is a bare registry record with a display-formatted price.
type deviceResponse struct {
	registry.DeviceRecord
	PriceDisplay string `json:"price_display"`
}

func toMarketDevices(devices []discovery.HydratedDevice) []marketDevice {
	out := make([]marketDevice, len(devices))
	for i, d := range devices {
		out[i] = marketDevice{
			HydratedDevice: d,
			PriceDisplay:   registry.FormatBaseUnits(d.PricePerDataPoint),
		}
	}
	return out
}

// handleMarketplace returns marketplace devices hydrated from the chain.
//
// Query parameters:
//   - limit: maximum number of devices to return (0 = no limit)
func (s *Server) handleMarketplace(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	devices, err := s.engine.DiscoverMarketplace(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": toMarketDevices(devices),
		"count":   len(devices),
	})
}

// deviceParamsRequest carries the writable device fields for register and
// update calls. Price is a decimal display string; duration is in days.
type deviceParamsRequest struct {
	Caller            string `json:"caller"`
	DeviceAddress     string `json:"device_address"`
	Name              string `json:"name"`
	DeviceType        string `json:"device_type"`
	Location          string `json:"location"`
	PricePerDataPoint string `json:"price_per_data_point"`
	DurationDays      int    `json:"subscription_duration_days"`
	MetadataURI       string `json:"metadata_uri"`
}

// params converts the request body into validated registry parameters.
func (req *deviceParamsRequest) params(device common.Address) (registry.RegisterParams, error) {
	price, err := registry.ParseDecimalUnits(req.PricePerDataPoint)
	if err != nil {
		return registry.RegisterParams{}, err
	}

	params := registry.RegisterParams{
		DeviceAddress:        device,
		Name:                 req.Name,
		DeviceType:           registry.DeviceType(req.DeviceType),
		Location:             req.Location,
		PricePerDataPoint:    price,
		SubscriptionDuration: time.Duration(req.DurationDays) * hoursPerDay * time.Hour,
		MetadataURI:          req.MetadataURI,
	}
	if err := params.Validate(); err != nil {
		return registry.RegisterParams{}, err
	}
	return params, nil
}

// handleRegisterDevice registers a new device on chain and remembers it in
// the local discovery hint store.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !common.IsHexAddress(req.Caller) {
		writeBadRequest(w, "invalid caller address")
		return
	}
	if !common.IsHexAddress(req.DeviceAddress) {
		writeBadRequest(w, "invalid device address")
		return
	}

	params, err := req.params(common.HexToAddress(req.DeviceAddress))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	txHash, err := s.engine.RegisterDevice(r.Context(), common.HexToAddress(req.Caller), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"tx_hash":        txHash.Hex(),
		"device_address": params.DeviceAddress.Hex(),
	})
}

// handleGetDevice returns the authoritative record for one device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r, "address")
	if !ok {
		return
	}

	record, err := s.registry.Device(r.Context(), address)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deviceResponse{
		DeviceRecord: record,
		PriceDisplay: registry.FormatBaseUnits(record.PricePerDataPoint),
	})
}

// handleUpdateDevice rewrites the mutable fields of a device record.
// Only the stored owner may update; ownership is checked on chain.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r, "address")
	if !ok {
		return
	}

	var req deviceParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !common.IsHexAddress(req.Caller) {
		writeBadRequest(w, "invalid caller address")
		return
	}

	params, err := req.params(address)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	txHash, err := s.registry.Update(r.Context(), common.HexToAddress(req.Caller), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tx_hash": txHash.Hex()})
}

// setActiveRequest toggles a device's active flag.
type setActiveRequest struct {
	Caller string `json:"caller"`
	Active bool   `json:"active"`
}

// handleSetDeviceActive soft-deletes or restores a device.
func (s *Server) handleSetDeviceActive(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r, "address")
	if !ok {
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !common.IsHexAddress(req.Caller) {
		writeBadRequest(w, "invalid caller address")
		return
	}

	txHash, err := s.registry.SetActive(r.Context(), common.HexToAddress(req.Caller), address, req.Active)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tx_hash": txHash.Hex(),
		"active":  req.Active,
	})
}

// purchaseRequest pays for one subscription period.
type purchaseRequest struct {
	Subscriber string `json:"subscriber"`
	Value      string `json:"value"`
}

// handlePurchaseAccess purchases subscription access to a device.
func (s *Server) handlePurchaseAccess(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r, "address")
	if !ok {
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !common.IsHexAddress(req.Subscriber) {
		writeBadRequest(w, "invalid subscriber address")
		return
	}

	value, err := registry.ParseDecimalUnits(req.Value)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	txHash, err := s.subscriptions.Purchase(r.Context(), common.HexToAddress(req.Subscriber), address, value)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"tx_hash": txHash.Hex()})
}

// handleGetAccess returns the subscriber's raw access grant for a device.
//
// Query parameters:
//   - subscriber: subscriber address (required)
func (s *Server) handleGetAccess(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r, "address")
	if !ok {
		return
	}
	subscriber, ok := addressQuery(w, r, "subscriber")
	if !ok {
		return
	}

	expiry, err := s.registry.AccessExpiry(r.Context(), subscriber, address)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if expiry.IsZero() {
		writeNotFound(w, "no subscription for this device")
		return
	}

	totalPaid, err := s.registry.TotalPaid(r.Context(), subscriber, address)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscriber":         subscriber.Hex(),
		"device":             address.Hex(),
		"expiry":             expiry,
		"total_paid":         totalPaid,
		"total_paid_display": registry.FormatBaseUnits(totalPaid),
	})
}

// handleOwnerDevices returns the hydrated device list for one owner.
func (s *Server) handleOwnerDevices(w http.ResponseWriter, r *http.Request) {
	owner, ok := addressParam(w, r, "address")
	if !ok {
		return
	}

	devices, err := s.engine.LoadOwnerDevices(r.Context(), owner, nil)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeNotFound(w, "owner has no devices")
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": toMarketDevices(devices),
		"count":   len(devices),
	})
}
