package weather

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Normalizers convert each upstream feed's bespoke schema into one of the
// canonical shapes. They are total over well-formed input; beyond existence
// checks they do not defend against schema violations.

type rawCurrent struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility int   `json:"visibility"`
	Dt         int64 `json:"dt"`
}

// NormalizeCurrent converts an OpenWeatherMap current-conditions response.
// Upstream epoch-second timestamps become millisecond epochs.
func NormalizeCurrent(data []byte) (CurrentWeather, error) {
	var raw rawCurrent
	if err := json.Unmarshal(data, &raw); err != nil {
		return CurrentWeather{}, fmt.Errorf("%w: current: %v", ErrMalformed, err)
	}

	out := CurrentWeather{
		Type:         TypeCurrentWeather,
		Name:         raw.Name,
		Country:      raw.Sys.Country,
		Lat:          raw.Coord.Lat,
		Lon:          raw.Coord.Lon,
		TemperatureC: raw.Main.Temp,
		FeelsLikeC:   raw.Main.FeelsLike,
		HumidityPct:  raw.Main.Humidity,
		PressureHPa:  raw.Main.Pressure,
		WindSpeed:    raw.Wind.Speed,
		WindDeg:      raw.Wind.Deg,
		CloudPct:     raw.Clouds.All,
		VisibilityM:  raw.Visibility,
		ObservedAtMs: raw.Dt * 1000,
		SunriseMs:    raw.Sys.Sunrise * 1000,
		SunsetMs:     raw.Sys.Sunset * 1000,
	}
	if len(raw.Weather) > 0 {
		w := raw.Weather[0]
		out.Condition = Condition{Code: w.ID, Description: w.Description, Icon: w.Icon}
	}
	return out, nil
}

type rawForecast struct {
	City struct {
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
	} `json:"city"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
			Pressure  int     `json:"pressure"`
		} `json:"main"`
		Weather []struct {
			ID          int    `json:"id"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   int     `json:"deg"`
		} `json:"wind"`
		Clouds struct {
			All int `json:"all"`
		} `json:"clouds"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

// NormalizeForecast converts an OpenWeatherMap interval forecast. Interval
// order is preserved from upstream (chronological).
func NormalizeForecast(data []byte) (Forecast, error) {
	var raw rawForecast
	if err := json.Unmarshal(data, &raw); err != nil {
		return Forecast{}, fmt.Errorf("%w: forecast: %v", ErrMalformed, err)
	}

	out := Forecast{
		Type:   TypeForecast,
		Lat:    raw.City.Coord.Lat,
		Lon:    raw.City.Coord.Lon,
		Points: make([]ForecastPoint, 0, len(raw.List)),
	}
	for _, it := range raw.List {
		p := ForecastPoint{
			TimestampMs:       it.Dt * 1000,
			TemperatureC:      it.Main.Temp,
			FeelsLikeC:        it.Main.FeelsLike,
			HumidityPct:       it.Main.Humidity,
			PressureHPa:       it.Main.Pressure,
			WindSpeed:         it.Wind.Speed,
			WindDeg:           it.Wind.Deg,
			CloudPct:          it.Clouds.All,
			PrecipProbability: it.Pop,
		}
		if len(it.Weather) > 0 {
			w := it.Weather[0]
			p.Condition = Condition{Code: w.ID, Description: w.Description, Icon: w.Icon}
		}
		out.Points = append(out.Points, p)
	}
	return out, nil
}

type rawStormPoint struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Date string  `json:"date"`
}

type rawStorms struct {
	ActiveStorms []struct {
		ID             string          `json:"id"`
		Name           string          `json:"name"`
		Classification string          `json:"classification"`
		Lat            float64         `json:"latitudeNumeric"`
		Lon            float64         `json:"longitudeNumeric"`
		MovementDir    int             `json:"movementDir"`
		MovementSpeed  float64         `json:"movementSpeed"`
		Pressure       float64         `json:"pressure"`
		Intensity      float64         `json:"intensity"`
		Track          []rawStormPoint `json:"track"`
		ForecastTrack  []rawStormPoint `json:"forecastTrack"`
	} `json:"activeStorms"`
}

// NormalizeHurricanes converts an active-storms feed. Storms without an
// upstream id get a time-based synthetic one.
func NormalizeHurricanes(data []byte) ([]Hurricane, error) {
	var raw rawStorms
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: hurricane: %v", ErrMalformed, err)
	}

	out := make([]Hurricane, 0, len(raw.ActiveStorms))
	for _, s := range raw.ActiveStorms {
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("storm-%d", clock.Now().UnixMilli())
		}
		out = append(out, Hurricane{
			ID:            id,
			Name:          s.Name,
			Category:      s.Classification,
			Lat:           s.Lat,
			Lon:           s.Lon,
			MovementDir:   s.MovementDir,
			MovementSpeed: s.MovementSpeed,
			PressureMb:    s.Pressure,
			WindMph:       s.Intensity,
			History:       trackPoints(s.Track),
			Forecast:      trackPoints(s.ForecastTrack),
		})
	}
	return out, nil
}

func trackPoints(raw []rawStormPoint) []TrackPoint {
	out := make([]TrackPoint, 0, len(raw))
	for _, p := range raw {
		out = append(out, TrackPoint{Lat: p.Lat, Lon: p.Lon, TimestampMs: parseStormDate(p.Date)})
	}
	return out
}

// parseStormDate accepts RFC3339 or "YYYY-MM-DD HH:MM" date strings and
// returns a millisecond epoch; unparseable dates yield zero.
func parseStormDate(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli()
	}
	if t, err := time.Parse("2006-01-02 15:04", s); err == nil {
		return t.UnixMilli()
	}
	return 0
}

// NormalizeWildfires parses a FIRMS-style CSV feed. Columns are located by
// header name; rows empty after trimming are skipped.
func NormalizeWildfires(data []byte) ([]Wildfire, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("%w: wildfire: empty feed", ErrMalformed)
	}

	cols := map[string]int{}
	for i, name := range strings.Split(strings.TrimSpace(lines[0]), ",") {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"latitude", "longitude", "acq_date", "acq_time"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: wildfire: missing column %q", ErrMalformed, required)
		}
	}

	out := make([]Wildfire, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")

		w := Wildfire{
			ID:          fmt.Sprintf("fire-%d-%04x", clock.Now().UnixMilli(), rand.Intn(0x10000)),
			Lat:         floatField(fields, cols, "latitude"),
			Lon:         floatField(fields, cols, "longitude"),
			Brightness:  floatField(fields, cols, "bright_ti4"),
			Confidence:  stringField(fields, cols, "confidence"),
			TimestampMs: acquisitionMillis(stringField(fields, cols, "acq_date"), stringField(fields, cols, "acq_time")),
		}
		out = append(out, w)
	}
	return out, nil
}

func stringField(fields []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func floatField(fields []string, cols map[string]int, name string) float64 {
	v, err := strconv.ParseFloat(stringField(fields, cols, name), 64)
	if err != nil {
		return 0
	}
	return v
}

// acquisitionMillis combines a YYYY-MM-DD acquisition date with an HHMM
// acquisition time, split into hour/minute substrings, in local time.
func acquisitionMillis(date, hhmm string) int64 {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return 0
	}
	if len(hhmm) == 3 {
		hhmm = "0" + hhmm
	}
	if len(hhmm) != 4 {
		return day.UnixMilli()
	}
	hour, errH := strconv.Atoi(hhmm[:2])
	mins, errM := strconv.Atoi(hhmm[2:])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || mins < 0 || mins > 59 {
		return day.UnixMilli()
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, mins, 0, 0, time.Local).UnixMilli()
}

type rawEvents struct {
	Events []struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Link       string `json:"link"`
		Categories []struct {
			Title string `json:"title"`
		} `json:"categories"`
		Geometry []struct {
			Date        string    `json:"date"`
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"events"`
}

// NormalizeDisasters converts an EONET events feed. Only the first geometry
// entry per event is used; EONET orders coordinates [lon, lat], reversed here
// to the canonical [lat, lon]. Missing geometry yields nil location and
// timestamp rather than an error.
func NormalizeDisasters(data []byte) ([]Disaster, error) {
	var raw rawEvents
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: disaster: %v", ErrMalformed, err)
	}

	out := make([]Disaster, 0, len(raw.Events))
	for _, ev := range raw.Events {
		d := Disaster{ID: ev.ID, Title: ev.Title, Link: ev.Link}
		if len(ev.Categories) > 0 {
			d.Category = ev.Categories[0].Title
		}
		if len(ev.Geometry) > 0 && len(ev.Geometry[0].Coordinates) >= 2 {
			g := ev.Geometry[0]
			lat, lon := g.Coordinates[1], g.Coordinates[0]
			d.Lat, d.Lon = &lat, &lon
			if ms := parseStormDate(g.Date); ms != 0 {
				d.TimestampMs = &ms
			}
		}
		out = append(out, d)
	}
	return out, nil
}
