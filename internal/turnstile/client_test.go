package turnstile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ignite/optin-service/internal/config"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(config.TurnstileConfig{
		SecretKey:      "test-secret",
		BaseURL:        server.URL,
		TimeoutSeconds: 5,
	})
	return client, server
}

func TestClient_VerifyPass(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != verifyPath {
			t.Errorf("URL.Path = %q, want %q", r.URL.Path, verifyPath)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostFormValue("secret"); got != "test-secret" {
			t.Errorf("secret = %q, want test-secret", got)
		}
		if got := r.PostFormValue("response"); got != "challenge-token" {
			t.Errorf("response = %q, want challenge-token", got)
		}
		if got := r.PostFormValue("remoteip"); got != "203.0.113.7" {
			t.Errorf("remoteip = %q, want 203.0.113.7", got)
		}
		w.Write([]byte(`{"success":true}`))
	})
	defer server.Close()

	ok, err := client.Verify(context.Background(), "challenge-token", "203.0.113.7")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("Verify = false, want true")
	}
}

func TestClient_VerifyFail(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	})
	defer server.Close()

	ok, err := client.Verify(context.Background(), "bad-token", "")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Error("Verify = true, want false")
	}
}

func TestClient_VerifyServiceError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer server.Close()

	if _, err := client.Verify(context.Background(), "token", ""); err == nil {
		t.Error("Verify succeeded, want error on 503")
	}
}
