package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/somniastreams/marketcore/internal/registry"
	"github.com/somniastreams/marketcore/internal/sensordata"
)

// readingRequest wraps a raw reading payload with its declared type.
type readingRequest struct {
	DeviceType string          `json:"device_type"`
	Reading    json.RawMessage `json:"reading"`
}

// decodeReading parses the raw payload into the reading shape for the
// declared device type.
func decodeReading(deviceType string, raw json.RawMessage) (sensordata.Reading, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("reading payload is required")
	}

	switch registry.DeviceType(deviceType) {
	case registry.DeviceTypeGPSTracker:
		var r sensordata.GPSReading
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("invalid gps reading: %w", err)
		}
		return r, nil
	case registry.DeviceTypeWeatherStation:
		var r sensordata.WeatherReading
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("invalid weather reading: %w", err)
		}
		return r, nil
	case registry.DeviceTypeAirQualityMonitor:
		var r sensordata.AirQualityReading
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("invalid air quality reading: %w", err)
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown device type %q", deviceType)
}

// handleValidateReading runs bounds validation on a reading without
// publishing it. Always returns 200 with the full validation result so
// clients can show every violation at once.
func (s *Server) handleValidateReading(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	reading, err := decodeReading(req.DeviceType, req.Reading)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result := reading.Validate()
	resp := map[string]any{
		"valid":  result.Valid,
		"errors": result.Errors,
	}
	if !result.Valid {
		resp["message"] = sensordata.FormatErrors(result.Errors)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePublishReading validates a reading against the device's registered
// type and state, then publishes it to the data stream.
func (s *Server) handlePublishReading(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "reading publication is not enabled")
		return
	}

	address, ok := addressParam(w, r, "address")
	if !ok {
		return
	}

	var req readingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	reading, err := decodeReading(req.DeviceType, req.Reading)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.publisher.Publish(r.Context(), address, reading); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "published"})
}
