package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/sso-sentinel/internal/prefs"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

// memKV is an in-memory settings store with an injectable write failure
type memKV struct {
	m      map[string]string
	setErr error
}

func newMemKV() *memKV { return &memKV{m: make(map[string]string)} }

func (k *memKV) Get(key string) (string, bool, error) {
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *memKV) Set(key, value string) error {
	if k.setErr != nil {
		return k.setErr
	}
	k.m[key] = value
	return nil
}

func settingsRouter(t *testing.T, kv prefs.KV) http.Handler {
	t.Helper()
	p, err := prefs.Load(kv, logger.NewNop())
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	h := &Handler{preferences: p, logger: logger.NewNop()}

	mux := chi.NewRouter()
	mux.Get("/api/settings", h.GetSettings)
	mux.Put("/api/settings/{key}", h.UpdateSetting)
	return mux
}

func putSetting(t *testing.T, handler http.Handler, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/settings/"+key, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestUpdateSettingAppliesAction(t *testing.T) {
	handler := settingsRouter(t, newMemKV())

	rec := putSetting(t, handler, "notification", `{"value": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"notification":true`) {
		t.Errorf("settings payload missing updated value: %s", rec.Body.String())
	}
}

func TestUpdateSettingUnknownKey(t *testing.T) {
	handler := settingsRouter(t, newMemKV())

	rec := putSetting(t, handler, "blue_icon", `{"value": true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateSettingPersistenceFailure(t *testing.T) {
	kv := newMemKV()
	handler := settingsRouter(t, kv)

	// A write failure on a valid key is a server error, not a bad request
	kv.setErr = errors.New("disk full")
	rec := putSetting(t, handler, "notification", `{"value": true}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestUpdateSettingRejectsBadValues(t *testing.T) {
	handler := settingsRouter(t, newMemKV())

	tests := []struct {
		key  string
		body string
	}{
		{"notification", `{"value": "yes"}`},
		{"poll_interval_seconds", `{"value": true}`},
		{"check_on_wake", `{"value": 1}`},
		{"notification", `not json`},
	}
	for _, tt := range tests {
		if rec := putSetting(t, handler, tt.key, tt.body); rec.Code != http.StatusBadRequest {
			t.Errorf("PUT %s %q: status = %d, want %d", tt.key, tt.body, rec.Code, http.StatusBadRequest)
		}
	}
}
