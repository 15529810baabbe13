package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ExposeBuildInfo("test")
	ObserveHTTP("POST", "/api/weather/current", 200, 0.001)
	IncCacheHit("current")
	IncCacheMiss("tiles")
	IncPrefetchTask("warmed")
	IncTransition("committed")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{
		"app_build_info",
		"http_requests_total",
		`weather_cache_results_total{kind="current",outcome="hit"}`,
		`weather_cache_results_total{kind="tiles",outcome="miss"}`,
		`prefetch_tasks_total{outcome="warmed"}`,
		`layer_transitions_total{disposition="committed"}`,
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics payload missing %q; got:\n%s", name, body)
		}
	}
}
