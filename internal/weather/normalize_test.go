package weather

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentFixture = `{
	"name": "Reykjavik",
	"sys": {"country": "IS", "sunrise": 1700000000, "sunset": 1700020000},
	"coord": {"lat": 64.1466, "lon": -21.9426},
	"weather": [{"id": 600, "main": "Snow", "description": "light snow", "icon": "13d"}],
	"main": {"temp": -2.5, "feels_like": -7.1, "humidity": 86, "pressure": 998},
	"wind": {"speed": 9.3, "deg": 40},
	"clouds": {"all": 90},
	"visibility": 8000,
	"dt": 1700010000
}`

func TestNormalizeCurrent_RoundTrip(t *testing.T) {
	out, err := NormalizeCurrent([]byte(currentFixture))
	require.NoError(t, err)

	assert.Equal(t, TypeCurrentWeather, out.Type)
	assert.Equal(t, "Reykjavik", out.Name)
	assert.Equal(t, "IS", out.Country)
	assert.Equal(t, 64.1466, out.Lat)
	assert.Equal(t, -21.9426, out.Lon)
	assert.Equal(t, -2.5, out.TemperatureC)
	assert.Equal(t, -7.1, out.FeelsLikeC)
	assert.Equal(t, 86, out.HumidityPct)
	assert.Equal(t, 998, out.PressureHPa)
	assert.Equal(t, 9.3, out.WindSpeed)
	assert.Equal(t, 40, out.WindDeg)
	assert.Equal(t, 90, out.CloudPct)
	assert.Equal(t, 8000, out.VisibilityM)
	assert.Equal(t, Condition{Code: 600, Description: "light snow", Icon: "13d"}, out.Condition)

	// epoch seconds convert to milliseconds exactly x1000
	assert.Equal(t, int64(1700010000)*1000, out.ObservedAtMs)
	assert.Equal(t, int64(1700000000)*1000, out.SunriseMs)
	assert.Equal(t, int64(1700020000)*1000, out.SunsetMs)
	assert.False(t, out.Fallback)
}

func TestNormalizeCurrent_NoConditionEntry(t *testing.T) {
	out, err := NormalizeCurrent([]byte(`{"name":"X","weather":[],"dt":1}`))
	require.NoError(t, err)
	assert.Equal(t, Condition{}, out.Condition)
}

func TestNormalizeCurrent_MalformedJSON(t *testing.T) {
	_, err := NormalizeCurrent([]byte(`{not json`))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestNormalizeForecast_OrderPreserved(t *testing.T) {
	fixture := `{
		"city": {"coord": {"lat": 10, "lon": 20}},
		"list": [
			{"dt": 100, "main": {"temp": 1, "feels_like": 0, "humidity": 10, "pressure": 1000},
			 "weather": [{"id": 500, "description": "rain", "icon": "10d"}],
			 "wind": {"speed": 2, "deg": 90}, "clouds": {"all": 20}, "pop": 0.4},
			{"dt": 200, "main": {"temp": 2, "feels_like": 1, "humidity": 20, "pressure": 1001},
			 "weather": [{"id": 800, "description": "clear", "icon": "01d"}],
			 "wind": {"speed": 3, "deg": 180}, "clouds": {"all": 0}, "pop": 0}
		]
	}`
	out, err := NormalizeForecast([]byte(fixture))
	require.NoError(t, err)

	assert.Equal(t, TypeForecast, out.Type)
	assert.Equal(t, 10.0, out.Lat)
	require.Len(t, out.Points, 2)
	assert.Equal(t, int64(100000), out.Points[0].TimestampMs)
	assert.Equal(t, int64(200000), out.Points[1].TimestampMs)
	assert.Equal(t, 0.4, out.Points[0].PrecipProbability)
	assert.Equal(t, "rain", out.Points[0].Condition.Description)
	assert.Equal(t, "clear", out.Points[1].Condition.Description)
}

func TestNormalizeHurricanes(t *testing.T) {
	fixture := `{"activeStorms": [
		{"id": "al062024", "name": "Florence", "classification": "HU",
		 "latitudeNumeric": 25.4, "longitudeNumeric": -76.2,
		 "movementDir": 315, "movementSpeed": 12, "pressure": 956, "intensity": 105,
		 "track": [
			{"lat": 20.1, "lon": -70.0, "date": "2024-09-01T00:00:00Z"},
			{"lat": 22.0, "lon": -72.5, "date": "2024-09-02T00:00:00Z"}
		 ],
		 "forecastTrack": [{"lat": 27.0, "lon": -78.0, "date": "2024-09-04 12:00"}]},
		{"name": "Unnamed", "latitudeNumeric": 12, "longitudeNumeric": -40}
	]}`
	storms, err := NormalizeHurricanes([]byte(fixture))
	require.NoError(t, err)
	require.Len(t, storms, 2)

	fl := storms[0]
	assert.Equal(t, "al062024", fl.ID)
	assert.Equal(t, "HU", fl.Category)
	assert.Equal(t, 956.0, fl.PressureMb)
	assert.Equal(t, 105.0, fl.WindMph)
	require.Len(t, fl.History, 2)
	wantFirst := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, wantFirst, fl.History[0].TimestampMs)
	require.Len(t, fl.Forecast, 1)
	wantFc := time.Date(2024, 9, 4, 12, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, wantFc, fl.Forecast[0].TimestampMs)

	// missing id falls back to a time-based synthetic one
	assert.NotEmpty(t, storms[1].ID)
	assert.Contains(t, storms[1].ID, "storm-")
}

func TestNormalizeHurricanes_SyntheticIDUsesClock(t *testing.T) {
	frozen := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	SetClock(frozen)
	defer SetClock(nil)

	storms, err := NormalizeHurricanes([]byte(`{"activeStorms":[{"name":"X"}]}`))
	require.NoError(t, err)
	require.Len(t, storms, 1)
	assert.Equal(t, "storm-1717200000000", storms[0].ID)
}

func TestNormalizeWildfires(t *testing.T) {
	csv := "latitude,longitude,acq_date,acq_time,bright_ti4,confidence\n" +
		"10.5,20.5,2024-01-01,1345,320.1,85\n" +
		"\n" +
		"-33.9,151.2,2024-01-02,030,301.7,n\n"
	fires, err := NormalizeWildfires([]byte(csv))
	require.NoError(t, err)
	require.Len(t, fires, 2)

	f := fires[0]
	assert.Equal(t, 10.5, f.Lat)
	assert.Equal(t, 20.5, f.Lon)
	assert.Equal(t, 320.1, f.Brightness)
	assert.Equal(t, "85", f.Confidence)
	want := time.Date(2024, 1, 1, 13, 45, 0, 0, time.Local).UnixMilli()
	assert.Equal(t, want, f.TimestampMs)
	assert.NotEmpty(t, f.ID)

	// three-digit acq_time is zero-padded to 00:30
	want2 := time.Date(2024, 1, 2, 0, 30, 0, 0, time.Local).UnixMilli()
	assert.Equal(t, want2, fires[1].TimestampMs)
}

func TestNormalizeWildfires_MissingColumn(t *testing.T) {
	_, err := NormalizeWildfires([]byte("latitude,longitude\n1,2\n"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestNormalizeDisasters(t *testing.T) {
	fixture := `{"events": [
		{"id": "EONET_1", "title": "Iceland Volcano", "link": "https://example.org/1",
		 "categories": [{"title": "Volcanoes"}, {"title": "Other"}],
		 "geometry": [
			{"date": "2024-03-01T08:00:00Z", "type": "Point", "coordinates": [-19.6, 63.9]},
			{"date": "2024-03-02T08:00:00Z", "type": "Point", "coordinates": [-19.7, 63.8]}
		 ]},
		{"id": "EONET_2", "title": "No Geometry", "categories": [{"title": "Drought"}]}
	]}`
	events, err := NormalizeDisasters([]byte(fixture))
	require.NoError(t, err)
	require.Len(t, events, 2)

	v := events[0]
	assert.Equal(t, "Volcanoes", v.Category) // first category only
	// EONET coordinates are [lon, lat]; canonical form reverses them
	require.NotNil(t, v.Lat)
	require.NotNil(t, v.Lon)
	assert.Equal(t, 63.9, *v.Lat)
	assert.Equal(t, -19.6, *v.Lon)
	require.NotNil(t, v.TimestampMs)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC).UnixMilli(), *v.TimestampMs)

	// missing geometry yields nil location/timestamp, not an error
	ng := events[1]
	assert.Nil(t, ng.Lat)
	assert.Nil(t, ng.Lon)
	assert.Nil(t, ng.TimestampMs)
}
