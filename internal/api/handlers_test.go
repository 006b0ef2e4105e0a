package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/optin-service/internal/config"
	"github.com/ignite/optin-service/internal/contact"
	"github.com/ignite/optin-service/internal/resend"
	"github.com/ignite/optin-service/internal/store"
	"github.com/ignite/optin-service/internal/subscription"
)

type fakeMailer struct {
	sent []resend.SendEmailRequest
	err  error
}

func (f *fakeMailer) SendEmail(_ context.Context, req resend.SendEmailRequest) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, req)
	return nil
}

type fakeContacts struct {
	defaultUpserts  []resend.Contact
	audienceUpserts map[string][]resend.Contact
	err             error
}

func (f *fakeContacts) UpsertContact(_ context.Context, c resend.Contact) error {
	if f.err != nil {
		return f.err
	}
	f.defaultUpserts = append(f.defaultUpserts, c)
	return nil
}

func (f *fakeContacts) UpsertContactToAudience(_ context.Context, audienceID string, c resend.Contact) error {
	if f.err != nil {
		return f.err
	}
	if f.audienceUpserts == nil {
		f.audienceUpserts = make(map[string][]resend.Contact)
	}
	f.audienceUpserts[audienceID] = append(f.audienceUpserts[audienceID], c)
	return nil
}

type fakeVerifier struct {
	verdict bool
}

func (f *fakeVerifier) Verify(_ context.Context, _, _ string) (bool, error) {
	return f.verdict, nil
}

type testEnv struct {
	handler  http.Handler
	mr       *miniredis.Miniredis
	mailer   *fakeMailer
	contacts *fakeContacts
	verifier *fakeVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := &testEnv{
		mr:       mr,
		mailer:   &fakeMailer{},
		contacts: &fakeContacts{},
		verifier: &fakeVerifier{verdict: true},
	}

	subs, err := subscription.NewService(store.New(client), env.mailer, env.contacts, config.SubscribeConfig{
		BaseURL:    "https://news.example.com",
		FromName:   "Example News",
		FromEmail:  "news@example.com",
		TTLSeconds: 86400,
		Audiences:  map[string]string{"WEEKLY": "aud-weekly"},
	})
	if err != nil {
		t.Fatalf("subscription.NewService failed: %v", err)
	}

	contactSvc := contact.NewService(env.verifier, env.mailer, config.ContactConfig{
		FromName:  "Website",
		FromEmail: "noreply@example.com",
		Recipient: "hello@example.com",
	})

	h, err := NewHandlers(subs, contactSvc)
	if err != nil {
		t.Fatalf("NewHandlers failed: %v", err)
	}
	env.handler = SetupRoutes(h)
	return env
}

func (e *testEnv) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// issuedToken returns the single primary-record key in the store.
func (e *testEnv) issuedToken(t *testing.T) string {
	t.Helper()
	var tokens []string
	for _, k := range e.mr.Keys() {
		if !strings.HasPrefix(k, "pending_email:") {
			tokens = append(tokens, k)
		}
	}
	if len(tokens) != 1 {
		t.Fatalf("store holds %d primary records, want 1", len(tokens))
	}
	return tokens[0]
}

func TestSubscribeEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/subscribe", url.Values{
		"email":      {"a@b.com"},
		"first_name": {"Ada"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || !strings.Contains(resp.Message, "Confirmation email sent") {
		t.Errorf("response = %+v", resp)
	}

	tok := env.issuedToken(t)
	if v, err := env.mr.Get("pending_email:a@b.com"); err != nil || v != tok {
		t.Errorf("pointer key = %q (%v), want %q", v, err, tok)
	}
	if len(env.mailer.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(env.mailer.sent))
	}
	if !strings.Contains(env.mailer.sent[0].HTML, "code="+tok) {
		t.Error("confirmation email missing token URL")
	}
}

func TestSubscribeEndpoint_MissingEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/subscribe", url.Values{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSubscribeEndpoint_DoubleSubmission(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"email": {"a@b.com"}}
	if w := env.postForm("/subscribe", form); w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	w := env.postForm("/subscribe", form)
	if w.Code != http.StatusOK {
		t.Fatalf("second status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already on its way") {
		t.Errorf("second body = %s", w.Body.String())
	}
	if len(env.mailer.sent) != 1 {
		t.Errorf("emails sent = %d, want 1", len(env.mailer.sent))
	}
	env.issuedToken(t) // exactly one token issued
}

func TestConfirmEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.postForm("/subscribe", url.Values{"email": {"a@b.com"}})
	tok := env.issuedToken(t)

	w := env.get("/confirm?code=" + tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q, want HTML", ct)
	}
	if !strings.Contains(w.Body.String(), "a@b.com") {
		t.Error("success page missing confirmed address")
	}

	if len(env.contacts.defaultUpserts) != 1 {
		t.Fatalf("default upserts = %d, want 1", len(env.contacts.defaultUpserts))
	}
	if env.contacts.defaultUpserts[0].Unsubscribed {
		t.Error("contact upserted as unsubscribed")
	}

	// Both keys deleted
	if env.mr.Exists(tok) || env.mr.Exists("pending_email:a@b.com") {
		t.Error("store keys survived confirmation")
	}

	// Replay yields 404
	if w := env.get("/confirm?code=" + tok); w.Code != http.StatusNotFound {
		t.Errorf("replay status = %d, want 404", w.Code)
	}
}

func TestConfirmEndpoint_MissingCode(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/confirm")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestConfirmEndpoint_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/confirm?code=unknown")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if len(env.contacts.defaultUpserts) != 0 {
		t.Error("provider called for unknown token")
	}
}

func TestConfirmEndpoint_ProviderRejection(t *testing.T) {
	env := newTestEnv(t)

	env.postForm("/subscribe", url.Values{"email": {"a@b.com"}})
	tok := env.issuedToken(t)

	env.contacts.err = &resend.APIError{StatusCode: 422, Message: "Invalid email address"}
	w := env.get("/confirm?code=" + tok)

	// Provider's status, but only a generic HTML message
	if w.Code != 422 {
		t.Errorf("status = %d, want provider's 422", w.Code)
	}
	if strings.Contains(w.Body.String(), "Invalid email address") {
		t.Error("provider detail leaked into HTML response")
	}
}

func TestContactEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/contact", url.Values{
		"name":                  {"Ada"},
		"email":                 {"ada@example.com"},
		"message":               {"Hello"},
		"cf-turnstile-response": {"challenge-token"},
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204, body %s", w.Code, w.Body.String())
	}
	if len(env.mailer.sent) != 1 {
		t.Errorf("emails sent = %d, want 1", len(env.mailer.sent))
	}
}

func TestContactEndpoint_Honeypot(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/contact", url.Values{
		"name":                  {"Bot"},
		"email":                 {"bot@spam.example"},
		"message":               {"Buy now"},
		"website":               {"http://spam.example"},
		"cf-turnstile-response": {"challenge-token"},
	})
	// Indistinguishable from an accepted submission
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if len(env.mailer.sent) != 0 {
		t.Error("honeypot submission was forwarded")
	}
}

func TestContactEndpoint_FailedCaptcha(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.verdict = false

	w := env.postForm("/contact", url.Values{
		"name":                  {"Ada"},
		"email":                 {"ada@example.com"},
		"message":               {"Hello"},
		"cf-turnstile-response": {"bad-token"},
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if len(env.mailer.sent) != 0 {
		t.Error("email sent despite failed captcha")
	}
}

func TestContactEndpoint_MissingCaptcha(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/contact", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"Hello"},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRootBanner(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want plaintext", ct)
	}
}

func TestUnknownRoutesAre405(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodDelete, "/subscribe", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /subscribe status = %d, want 405", w.Code)
	}

	if w := env.get("/nope"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /nope status = %d, want 405", w.Code)
	}
}

func TestPreflightCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/subscribe", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("Access-Control-Allow-Methods = %q, want POST",
			w.Header().Get("Access-Control-Allow-Methods"))
	}
}
