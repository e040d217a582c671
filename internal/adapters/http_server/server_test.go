package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	server "shelterfinder/internal/adapters/http_server"
	"shelterfinder/internal/adapters/observability"
)

func newTestServer(p *server.Progress) http.Handler {
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(observability.InitRegistry()))
	srv.MountHandlers(&server.Handlers{P: p})
	return srv.Mux()
}

func TestServer_Healthz(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer(nil).ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response: %d %q", rr.Code, rr.Body.String())
	}
}

func TestServer_Progress(t *testing.T) {
	p := server.NewProgress()
	p.SetTotal(3)
	p.Record(true, false)
	p.Record(false, true)

	rr := httptest.NewRecorder()
	newTestServer(p).ServeHTTP(rr, httptest.NewRequest("GET", "/v1/progress", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	want := map[string]float64{"total": 3, "checked": 2, "available": 1, "failed": 1}
	for k, v := range want {
		if body[k] != v {
			t.Fatalf("%s: expected %v, got %v", k, v, body[k])
		}
	}
}

func TestServer_ProgressWithoutRun(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer(nil).ServeHTTP(rr, httptest.NewRequest("GET", "/v1/progress", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestServer_MetricsAndNotFound(t *testing.T) {
	h := newTestServer(nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `shelters_http_requests_total{method="GET",route="/healthz",status="200"}`) {
		t.Fatalf("healthz request not counted:\n%s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestServer_RequestLogCarriesRunAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel).With().Str("run_id", "run-1").Logger()
	t.Cleanup(func() { log.Logger = prev })

	rr := httptest.NewRecorder()
	newTestServer(server.NewProgress()).ServeHTTP(rr, httptest.NewRequest("GET", "/v1/progress", nil))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["run_id"] != "run-1" || entry["route"] != "/v1/progress" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Fatalf("missing request_id: %v", entry)
	}
	if entry["status"] != float64(200) {
		t.Fatalf("unexpected status: %v", entry["status"])
	}
}
