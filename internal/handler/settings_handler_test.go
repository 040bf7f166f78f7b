package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/settings"
)

func TestGetSettings(t *testing.T) {
	svc := &mockSettingsService{getFn: func(ctx context.Context) (*settings.View, error) {
		return &settings.View{OpenAIKeySet: true, OpenAIKeyHint: "****abcd", MailComplete: true, MailMissing: []string{}}, nil
	}}
	router := newTestRouter(t, testDeps{settings: svc})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	var resp settingsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Settings.OpenAIKeyHint != "****abcd" {
		t.Errorf("settings = %+v", resp.Settings)
	}
}

func TestSaveOpenAIKey(t *testing.T) {
	var gotKey string
	svc := &mockSettingsService{
		saveOpenAIKeyFn: func(ctx context.Context, key string) error {
			gotKey = key
			return nil
		},
		getFn: func(ctx context.Context) (*settings.View, error) {
			return &settings.View{OpenAIKeySet: true, MailComplete: false}, nil
		},
	}
	router := newTestRouter(t, testDeps{settings: svc})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/settings/openai", strings.NewReader(`{"api_key":"sk-1"}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotKey != "sk-1" {
		t.Errorf("key = %q", gotKey)
	}
	var resp settingsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status.Level != model.StatusWarning {
		t.Errorf("status = %+v, want warning while mail settings are incomplete", resp.Status)
	}
}

func TestSaveOpenAIKey_Empty(t *testing.T) {
	svc := &mockSettingsService{saveOpenAIKeyFn: func(ctx context.Context, key string) error {
		return model.NewEmptyAPIKeyError()
	}}
	router := newTestRouter(t, testDeps{settings: svc})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/settings/openai", strings.NewReader(`{"api_key":""}`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSaveMailSettings(t *testing.T) {
	var got model.MailSettings
	svc := &mockSettingsService{
		saveMailSettingsFn: func(ctx context.Context, mail model.MailSettings) error {
			got = mail
			return nil
		},
		getFn: func(ctx context.Context) (*settings.View, error) {
			return &settings.View{MailComplete: true}, nil
		},
	}
	router := newTestRouter(t, testDeps{settings: svc})

	body := `{"service_id":"svc","template_id":"tpl","public_key":"pk"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/settings/mail", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got != (model.MailSettings{ServiceID: "svc", TemplateID: "tpl", PublicKey: "pk"}) {
		t.Errorf("saved = %+v", got)
	}
}

func TestClearAll(t *testing.T) {
	called := false
	svc := &mockSettingsService{clearAllFn: func(ctx context.Context) error {
		called = true
		return nil
	}}
	router := newTestRouter(t, testDeps{settings: svc})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/settings", nil))

	if w.Code != http.StatusOK || !called {
		t.Errorf("status = %d called = %v", w.Code, called)
	}
}
