package sensordata

import (
	"strconv"
	"strings"
)

// ValidationResult is the outcome of validating one reading. Errors are
// collected in fixed rule order; validation never stops at the first
// violation.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// GPSReading carries raw field inputs for a GPS tracker payload. Latitude
// and longitude are required; the rest are optional and only validated when
// present and numeric.
type GPSReading struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Altitude  string `json:"altitude"`
	Accuracy  string `json:"accuracy"`
	Speed     string `json:"speed"`
	Heading   string `json:"heading"`
}

// WeatherReading carries raw field inputs for a weather station payload.
// All six fields are required.
type WeatherReading struct {
	Temperature   string `json:"temperature"`
	Humidity      string `json:"humidity"`
	Pressure      string `json:"pressure"`
	WindSpeed     string `json:"wind_speed"`
	WindDirection string `json:"wind_direction"`
	Rainfall      string `json:"rainfall"`
}

// AirQualityReading carries raw field inputs for an air quality monitor
// payload. All six fields are required and integer-parsed.
type AirQualityReading struct {
	PM25 string `json:"pm25"`
	PM10 string `json:"pm10"`
	CO2  string `json:"co2"`
	NO2  string `json:"no2"`
	O3   string `json:"o3"`
	AQI  string `json:"aqi"`
}

// ValidateGPS checks a GPS reading against plausible physical bounds.
func ValidateGPS(r GPSReading) ValidationResult {
	var errs []string

	// Latitude: -90 to 90
	if lat, err := strconv.ParseFloat(r.Latitude, 64); err != nil || lat < -90 || lat > 90 {
		errs = append(errs, "Latitude must be between -90 and 90")
	}

	// Longitude: -180 to 180
	if lon, err := strconv.ParseFloat(r.Longitude, 64); err != nil || lon < -180 || lon > 180 {
		errs = append(errs, "Longitude must be between -180 and 180")
	}

	// Altitude: -500 to 10000 meters
	if alt, ok := parseOptional(r.Altitude); ok && (alt < -500 || alt > 10000) {
		errs = append(errs, "Altitude should be between -500 and 10,000 meters")
	}

	// Accuracy: 0 to 1000 meters
	if acc, ok := parseOptional(r.Accuracy); ok && (acc < 0 || acc > 1000) {
		errs = append(errs, "Accuracy should be between 0 and 1000 meters")
	}

	// Speed: 0 to 1000 km/h
	if spd, ok := parseOptional(r.Speed); ok && (spd < 0 || spd > 1000) {
		errs = append(errs, "Speed should be between 0 and 1000 km/h")
	}

	// Heading: 0 to 360 degrees
	if hdg, ok := parseOptional(r.Heading); ok && (hdg < 0 || hdg > 360) {
		errs = append(errs, "Heading must be between 0 and 360 degrees")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateWeather checks a weather reading against plausible physical bounds.
func ValidateWeather(r WeatherReading) ValidationResult {
	var errs []string

	// Temperature: -100 to 150°F
	if v, err := strconv.ParseFloat(r.Temperature, 64); err != nil || v < -100 || v > 150 {
		errs = append(errs, "Temperature must be between -100 and 150°F")
	}

	// Humidity: 0 to 100%
	if v, err := strconv.ParseFloat(r.Humidity, 64); err != nil || v < 0 || v > 100 {
		errs = append(errs, "Humidity must be between 0 and 100%")
	}

	// Pressure: 800 to 1100 hPa
	if v, err := strconv.ParseFloat(r.Pressure, 64); err != nil || v < 800 || v > 1100 {
		errs = append(errs, "Pressure must be between 800 and 1100 hPa")
	}

	// Wind speed: 0 to 300 mph
	if v, err := strconv.ParseFloat(r.WindSpeed, 64); err != nil || v < 0 || v > 300 {
		errs = append(errs, "Wind speed must be between 0 and 300 mph")
	}

	// Wind direction: 0 to 360 degrees
	if v, err := strconv.ParseFloat(r.WindDirection, 64); err != nil || v < 0 || v > 360 {
		errs = append(errs, "Wind direction must be between 0 and 360 degrees")
	}

	// Rainfall: 0 to 100 inches/hour
	if v, err := strconv.ParseFloat(r.Rainfall, 64); err != nil || v < 0 || v > 100 {
		errs = append(errs, "Rainfall must be between 0 and 100 inches/hour")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateAirQuality checks an air quality reading against plausible bounds.
func ValidateAirQuality(r AirQualityReading) ValidationResult {
	var errs []string

	// PM2.5: 0 to 1000 μg/m³
	if v, err := strconv.Atoi(strings.TrimSpace(r.PM25)); err != nil || v < 0 || v > 1000 {
		errs = append(errs, "PM2.5 must be between 0 and 1000 μg/m³")
	}

	// PM10: 0 to 1000 μg/m³
	if v, err := strconv.Atoi(strings.TrimSpace(r.PM10)); err != nil || v < 0 || v > 1000 {
		errs = append(errs, "PM10 must be between 0 and 1000 μg/m³")
	}

	// CO2: 300 to 5000 ppm
	if v, err := strconv.Atoi(strings.TrimSpace(r.CO2)); err != nil || v < 300 || v > 5000 {
		errs = append(errs, "CO₂ must be between 300 and 5000 ppm")
	}

	// NO2: 0 to 500 ppb
	if v, err := strconv.Atoi(strings.TrimSpace(r.NO2)); err != nil || v < 0 || v > 500 {
		errs = append(errs, "NO₂ must be between 0 and 500 ppb")
	}

	// O3: 0 to 500 ppb
	if v, err := strconv.Atoi(strings.TrimSpace(r.O3)); err != nil || v < 0 || v > 500 {
		errs = append(errs, "O₃ must be between 0 and 500 ppb")
	}

	// AQI: 0 to 500
	if v, err := strconv.Atoi(strings.TrimSpace(r.AQI)); err != nil || v < 0 || v > 500 {
		errs = append(errs, "AQI must be between 0 and 500")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// FormatErrors joins validation errors into one display string.
func FormatErrors(errs []string) string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return errs[0]
	default:
		return strings.Join(errs, ". ")
	}
}

// parseOptional parses an optional field. Absent or non-numeric values are
// skipped rather than flagged.
func parseOptional(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
