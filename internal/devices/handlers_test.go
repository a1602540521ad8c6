package devices

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/HerbHall/pppmirror/pkg/models"
	"github.com/HerbHall/pppmirror/pkg/plugin"
	"github.com/HerbHall/pppmirror/pkg/plugin/plugintest"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New() })
}

func newTestModule(t *testing.T) (*Module, *http.ServeMux) {
	t.Helper()
	m := &Module{logger: zap.NewNop(), cfg: DefaultConfig(), store: testStore(t, nil)}
	mux := http.NewServeMux()
	for _, r := range m.Routes() {
		mux.HandleFunc(r.Method+" /api/v1/devices"+r.Path, r.Handler)
	}
	return m, mux
}

func TestHandleCreate_and_Get(t *testing.T) {
	_, mux := newTestModule(t)

	body := `{"name":"pop-north","address":"10.10.0.1","username":"api","password":"pw"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body)
	}
	if strings.Contains(rr.Body.String(), "pw") {
		t.Errorf("response leaks password: %s", rr.Body)
	}
	var created models.Device
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Port != 8728 {
		t.Errorf("port = %d, want default 8728", created.Port)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/devices/"+created.ID, http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), `"password"`) {
		t.Errorf("get response includes password: %s", rr.Body)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/devices/", http.NoBody))
	var list []models.Device
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("list len = %d, want 1", len(list))
	}
}

func TestHandleCreate_validation(t *testing.T) {
	_, mux := newTestModule(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing name", `{"address":"10.0.0.1","username":"u"}`, http.StatusBadRequest},
		{"bad port", `{"name":"a","address":"10.0.0.1","username":"u","port":70000}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/devices/", bytes.NewBufferString(tt.body)))
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestHandleCreate_conflict(t *testing.T) {
	_, mux := newTestModule(t)
	body := `{"name":"a","address":"10.0.0.1","username":"u"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/devices/", strings.NewReader(body)))
		if rr.Code != want {
			t.Fatalf("request %d status = %d, want %d", i, rr.Code, want)
		}
	}
}

func TestHandleGet_and_Delete_not_found(t *testing.T) {
	_, mux := newTestModule(t)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/devices/missing", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/devices/missing", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Errorf("delete status = %d, want 404", rr.Code)
	}
}

func TestHandleDelete(t *testing.T) {
	m, mux := newTestModule(t)
	d := &models.Device{Name: "a", Address: "10.0.0.1", Username: "u"}
	if err := m.store.Create(t.Context(), d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/devices/"+d.ID, http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
}
