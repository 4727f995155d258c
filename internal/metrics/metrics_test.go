package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/plants/{id_plant}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/plants/{id_plant}", "404"))
	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/plants/"+id, nil))
	}
	after := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/plants/{id_plant}", "404"))

	if after-before != 3 {
		t.Errorf("requests_total grew by %v, want 3", after-before)
	}
}

func TestObserveInference(t *testing.T) {
	ObserveInference("classify", time.Now(), nil)
	ObserveInference("classify", time.Now(), errors.New("boom"))

	if n := testutil.CollectAndCount(InferenceDuration); n < 2 {
		t.Errorf("InferenceDuration has %d series, want at least 2", n)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RequestInFlight.Set(0)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "plantcare_http_requests_in_flight") {
		t.Error("metrics output is missing plantcare_http_requests_in_flight")
	}
}
