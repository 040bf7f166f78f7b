package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/arxivnotify/internal/model"
)

func TestEmailJSClient_Send(t *testing.T) {
	var got emailJSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	c := NewEmailJSClient(srv.Client(), srv.URL)
	err := c.Send(context.Background(), completeSettings, map[string]any{"to_email": "a@x.com"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if got.ServiceID != "svc" || got.TemplateID != "tpl" || got.UserID != "pk" {
		t.Errorf("request = %+v", got)
	}
	if got.TemplateParams["to_email"] != "a@x.com" {
		t.Errorf("template_params = %v", got.TemplateParams)
	}
}

func TestEmailJSClient_RelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("The recipients address is empty\n"))
	}))
	defer srv.Close()

	c := NewEmailJSClient(srv.Client(), srv.URL)
	err := c.Send(context.Background(), model.MailSettings{}, nil)

	var relayErr *RelayError
	if !errors.As(err, &relayErr) {
		t.Fatalf("error = %v, want RelayError", err)
	}
	if relayErr.StatusCode != http.StatusUnprocessableEntity || relayErr.Text != "The recipients address is empty" {
		t.Errorf("RelayError = %+v", relayErr)
	}
}

func TestNewEmailJSClient_DefaultEndpoint(t *testing.T) {
	c := NewEmailJSClient(http.DefaultClient, "")
	if c.endpoint != DefaultEmailJSEndpoint {
		t.Errorf("endpoint = %q", c.endpoint)
	}
}
