package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/pkg/plugin"
)

// fakePlugins satisfies PluginSource.
type fakePlugins struct {
	plugins []plugin.Plugin
	routes  map[string][]plugin.Route
	health  map[string]plugin.HealthStatus
}

func (f *fakePlugins) AllRoutes() map[string][]plugin.Route { return f.routes }
func (f *fakePlugins) All() []plugin.Plugin                 { return f.plugins }
func (f *fakePlugins) HealthAll(context.Context) map[string]plugin.HealthStatus {
	return f.health
}

type namedPlugin struct{ info plugin.PluginInfo }

func (p *namedPlugin) Info() plugin.PluginInfo                         { return p.info }
func (p *namedPlugin) Init(context.Context, plugin.Dependencies) error { return nil }
func (p *namedPlugin) Start(context.Context) error                     { return nil }
func (p *namedPlugin) Stop(context.Context) error                      { return nil }

// stubGuard rejects every /api/ request without the magic header.
type stubGuard struct{}

func (stubGuard) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/auth/whoami", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (stubGuard) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") && r.Header.Get("X-Test-Auth") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newTestServer(opts Options) (*Server, *fakePlugins) {
	src := &fakePlugins{
		plugins: []plugin.Plugin{&namedPlugin{info: plugin.PluginInfo{
			Name: "ppp", Version: "0.1.0", Description: "PPP mirror",
		}}},
		routes: map[string][]plugin.Route{
			"ppp": {{
				Method: http.MethodPost,
				Path:   "/profiles/sync",
				Handler: func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusAccepted)
				},
			}},
		},
		health: map[string]plugin.HealthStatus{"ppp": {Status: "healthy"}},
	}
	return New("127.0.0.1:0", src, zap.NewNop(), opts), src
}

func get(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(Options{})
	rr := get(srv.mux, http.MethodGet, "/healthz")

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Code != http.StatusOK || body["status"] != "alive" {
		t.Errorf("healthz = %d %v", rr.Code, body)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		ready      ReadinessChecker
		wantStatus int
		wantBody   string
	}{
		{"nil checker", nil, http.StatusOK, "ready"},
		{"ready", func(context.Context) error { return nil }, http.StatusOK, "ready"},
		{"not ready", func(context.Context) error { return errors.New("database unreachable") }, http.StatusServiceUnavailable, "not ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(Options{Ready: tt.ready})
			rr := get(srv.mux, http.MethodGet, "/readyz")

			var body map[string]string
			_ = json.NewDecoder(rr.Body).Decode(&body)
			if rr.Code != tt.wantStatus || body["status"] != tt.wantBody {
				t.Errorf("readyz = %d %v", rr.Code, body)
			}
		})
	}
}

func TestHealth_reports_plugins(t *testing.T) {
	srv, src := newTestServer(Options{})

	var body HealthResponse
	rr := get(srv.mux, http.MethodGet, "/api/v1/health")
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Service != "pppmirror" || body.Version == nil {
		t.Errorf("health = %+v", body)
	}

	src.health["ppp"] = plugin.HealthStatus{Status: "unhealthy", Message: "engine not started"}
	rr = get(srv.mux, http.MethodGet, "/api/v1/health")
	body = HealthResponse{}
	_ = json.NewDecoder(rr.Body).Decode(&body)
	if body.Status != "degraded" || body.Plugins["ppp"].Message != "engine not started" {
		t.Errorf("degraded health = %+v", body)
	}
}

func TestPlugins(t *testing.T) {
	srv, _ := newTestServer(Options{})
	rr := get(srv.mux, http.MethodGet, "/api/v1/plugins")

	var list []PluginResponse
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Name != "ppp" || list[0].Version != "0.1.0" {
		t.Errorf("plugins = %+v", list)
	}
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(Options{})
	rr := get(srv.mux, http.MethodGet, "/metrics")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Errorf("metrics = %d", rr.Code)
	}
}

func TestPluginRoutes_mounted(t *testing.T) {
	srv, _ := newTestServer(Options{})
	if rr := get(srv.mux, http.MethodPost, "/api/v1/ppp/profiles/sync"); rr.Code != http.StatusAccepted {
		t.Errorf("plugin route status = %d, want 202", rr.Code)
	}
}

func TestUnknownAPIPath_problem(t *testing.T) {
	srv, _ := newTestServer(Options{})
	rr := get(srv.mux, http.MethodGet, "/api/v1/nope")

	if rr.Code != http.StatusNotFound || rr.Header().Get("Content-Type") != "application/problem+json" {
		t.Errorf("unknown path = %d %q", rr.Code, rr.Header().Get("Content-Type"))
	}
	var p Problem
	_ = json.NewDecoder(rr.Body).Decode(&p)
	if p.Type != ProblemTypeNotFound || p.Instance != "/api/v1/nope" {
		t.Errorf("problem = %+v", p)
	}
}

func TestHandler_applies_middleware_chain(t *testing.T) {
	srv, _ := newTestServer(Options{})
	rr := get(srv.Handler(), http.MethodGet, "/healthz")

	if rr.Header().Get(VersionHeader) == "" {
		t.Errorf("%s missing", VersionHeader)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestHandler_labels_metrics_by_route(t *testing.T) {
	srv, _ := newTestServer(Options{})
	counter := httpRequestsTotal.WithLabelValues(http.MethodPost, "POST /api/v1/ppp/profiles/sync", "202")
	before := testutil.ToFloat64(counter)

	if rr := get(srv.Handler(), http.MethodPost, "/api/v1/ppp/profiles/sync"); rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rr.Code)
	}
	if delta := testutil.ToFloat64(counter) - before; delta != 1 {
		t.Errorf("counter delta = %v, want 1", delta)
	}
}

func TestHandler_auth_guard(t *testing.T) {
	srv, _ := newTestServer(Options{Auth: stubGuard{}})
	h := srv.Handler()

	if rr := get(h, http.MethodGet, "/healthz"); rr.Code != http.StatusOK {
		t.Errorf("healthz behind guard = %d", rr.Code)
	}
	if rr := get(h, http.MethodPost, "/api/v1/ppp/profiles/sync"); rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated plugin route = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/whoami", http.NoBody)
	req.Header.Set("X-Test-Auth", "1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("guard route = %d, want 200", rr.Code)
	}
}

func TestDevMode_serves_swagger(t *testing.T) {
	srv, _ := newTestServer(Options{DevMode: true})
	rr := get(srv.mux, http.MethodGet, "/swagger/index.html")
	if rr.Code != http.StatusOK {
		t.Errorf("swagger status = %d", rr.Code)
	}

	srv, _ = newTestServer(Options{})
	if rr := get(srv.mux, http.MethodGet, "/swagger/index.html"); rr.Code == http.StatusOK {
		t.Error("swagger served outside dev mode")
	}
}
