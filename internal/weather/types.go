// Package weather holds the five canonical payload shapes, the normalizers
// that produce them from upstream feeds, and the cached fetch service.
package weather

// Condition is the primary weather condition of an observation or interval.
type Condition struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentWeather is the canonical current-conditions payload. Timestamps are
// millisecond epochs.
type CurrentWeather struct {
	Type         string    `json:"type"` // always "current_weather"
	Name         string    `json:"name"`
	Country      string    `json:"country"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Condition    Condition `json:"condition"`
	TemperatureC float64   `json:"temperature"`
	FeelsLikeC   float64   `json:"feelsLike"`
	HumidityPct  int       `json:"humidity"`
	PressureHPa  int       `json:"pressure"`
	WindSpeed    float64   `json:"windSpeed"`
	WindDeg      int       `json:"windDeg"`
	CloudPct     int       `json:"clouds"`
	VisibilityM  int       `json:"visibility"`
	ObservedAtMs int64     `json:"observedAt"`
	SunriseMs    int64     `json:"sunrise"`
	SunsetMs     int64     `json:"sunset"`
	// Fallback marks a synthesized placeholder served after upstream failure.
	Fallback bool `json:"fallback,omitempty"`
}

const TypeCurrentWeather = "current_weather"

// ForecastPoint is one interval of a forecast, in upstream chronological order.
type ForecastPoint struct {
	TimestampMs       int64     `json:"timestamp"`
	TemperatureC      float64   `json:"temperature"`
	FeelsLikeC        float64   `json:"feelsLike"`
	HumidityPct       int       `json:"humidity"`
	PressureHPa       int       `json:"pressure"`
	Condition         Condition `json:"condition"`
	WindSpeed         float64   `json:"windSpeed"`
	WindDeg           int       `json:"windDeg"`
	CloudPct          int       `json:"clouds"`
	PrecipProbability float64   `json:"precipProbability"`
}

// Forecast is the canonical forecast payload.
type Forecast struct {
	Type   string          `json:"type"` // always "forecast"
	Lat    float64         `json:"lat"`
	Lon    float64         `json:"lon"`
	Points []ForecastPoint `json:"points"`
}

const TypeForecast = "forecast"

// TrackPoint is one position on a storm's historical or forecast track.
type TrackPoint struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	TimestampMs int64   `json:"timestamp"`
}

// Hurricane is the canonical active-storm payload.
type Hurricane struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Category      string       `json:"category"`
	Lat           float64      `json:"lat"`
	Lon           float64      `json:"lon"`
	MovementDir   int          `json:"movementDir"`
	MovementSpeed float64      `json:"movementSpeed"`
	PressureMb    float64      `json:"pressure"`
	WindMph       float64      `json:"wind"`
	History       []TrackPoint `json:"history"`
	Forecast      []TrackPoint `json:"forecast"`
}

// Wildfire is one satellite fire detection.
type Wildfire struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Brightness  float64 `json:"brightness"`
	Confidence  string  `json:"confidence"`
	TimestampMs int64   `json:"timestamp"`
}

// Disaster is one natural-event record. Location and timestamp are nil when
// the upstream event carries no geometry.
type Disaster struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	TimestampMs *int64   `json:"timestamp"`
	Link        string   `json:"link,omitempty"`
}
