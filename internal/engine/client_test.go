package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoscope/atmoscope/internal/core/model"
	"github.com/atmoscope/atmoscope/internal/weather"
)

func TestClient_RequestWireFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(weather.CurrentWeather{Type: weather.TypeCurrentWeather})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	_, err := c.Current(context.Background(), 59.3, 18.1)
	require.NoError(t, err)
	assert.Equal(t, 59.3, got["latitude"])
	assert.Equal(t, 18.1, got["longitude"])
}

func TestClient_TilesRequestWireFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	_, err := c.TileMetadata(context.Background(), model.Wind, model.Regional, nil)
	require.NoError(t, err)
	assert.Equal(t, "wind", got["layerType"])
	assert.Equal(t, "regional", got["zoomCategory"])
}

func TestClient_ErrorEnvelopeBecomesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"forecast data unavailable"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	_, err := c.Forecast(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, weather.IsUpstream(err))
}
