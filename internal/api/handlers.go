package api

import (
	"errors"
	"net"
	"net/http"

	"github.com/ignite/optin-service/internal/contact"
	"github.com/ignite/optin-service/internal/pkg/httputil"
	"github.com/ignite/optin-service/internal/pkg/logger"
	"github.com/ignite/optin-service/internal/resend"
	"github.com/ignite/optin-service/internal/subscription"
)

const banner = "optin-service: double opt-in subscription API\n"

// Handlers holds the workflow services behind the HTTP surface.
type Handlers struct {
	subs    *subscription.Service
	contact *contact.Service
	pages   *pages
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(subs *subscription.Service, contactSvc *contact.Service) (*Handlers, error) {
	p, err := newPages()
	if err != nil {
		return nil, err
	}
	return &Handlers{subs: subs, contact: contactSvc, pages: p}, nil
}

// Root serves the plaintext banner.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	httputil.Text(w, http.StatusOK, banner)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type subscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Subscribe handles POST /subscribe.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid form data")
		return
	}

	res, err := h.subs.Subscribe(r.Context(), subscription.SubscribeInput{
		Email:     r.PostFormValue("email"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Audience:  r.PostFormValue("audience"),
	})

	var apiErr *resend.APIError
	switch {
	case errors.Is(err, subscription.ErrEmailRequired):
		httputil.Error(w, http.StatusBadRequest, "email is required")
	case errors.As(err, &apiErr):
		// Provider detail is allowed in JSON responses
		httputil.Error(w, providerStatus(apiErr), apiErr.Message)
	case err != nil:
		logger.Error("subscribe failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
	case res.AlreadyPending:
		httputil.JSON(w, http.StatusOK, subscribeResponse{
			Success: true,
			Message: "A confirmation email is already on its way. Please check your inbox.",
		})
	default:
		httputil.JSON(w, http.StatusOK, subscribeResponse{
			Success: true,
			Message: "Confirmation email sent. Please check your inbox.",
		})
	}
}

// Confirm handles GET /confirm?code=<token>.
func (h *Handlers) Confirm(w http.ResponseWriter, r *http.Request) {
	res, err := h.subs.Confirm(r.Context(), r.URL.Query().Get("code"))

	var apiErr *resend.APIError
	switch {
	case errors.Is(err, subscription.ErrCodeRequired):
		httputil.HTML(w, http.StatusBadRequest,
			h.pages.renderError("The confirmation code is missing from the link."))
	case errors.Is(err, subscription.ErrExpiredOrInvalid):
		httputil.HTML(w, http.StatusNotFound,
			h.pages.renderError("This confirmation link is expired or invalid."))
	case errors.As(err, &apiErr):
		// HTML responses carry only a generic message, never provider detail
		logger.Error("confirm rejected by provider", "error", err)
		httputil.HTML(w, providerStatus(apiErr),
			h.pages.renderError("Something went wrong while confirming your subscription. Please try again later."))
	case err != nil:
		logger.Error("confirm failed", "error", err)
		httputil.HTML(w, http.StatusInternalServerError,
			h.pages.renderError("Something went wrong while confirming your subscription. Please try again later."))
	default:
		httputil.HTML(w, http.StatusOK, h.pages.renderSuccess(res.Email))
	}
}

// Contact handles POST /contact.
func (h *Handlers) Contact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid form data")
		return
	}

	err := h.contact.Submit(r.Context(), contact.Submission{
		Name:         r.PostFormValue("name"),
		Email:        r.PostFormValue("email"),
		Message:      r.PostFormValue("message"),
		Honeypot:     r.PostFormValue("website"),
		CaptchaToken: r.PostFormValue("cf-turnstile-response"),
	}, contact.RequestMeta{
		RemoteIP:  remoteIP(r),
		Country:   r.Header.Get("CF-IPCountry"),
		UserAgent: r.UserAgent(),
	})

	switch {
	case errors.Is(err, contact.ErrCaptchaRequired), errors.Is(err, contact.ErrMissingFields):
		httputil.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contact.ErrCaptchaFailed):
		httputil.Error(w, http.StatusForbidden, "captcha verification failed")
	case err != nil:
		// Generic failure; no provider or metadata detail leaks to the caller
		logger.Error("contact submission failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to process submission")
	default:
		httputil.NoContent(w)
	}
}

// providerStatus maps a provider error to a response status. The provider's
// own status is used when it is an error status; anything else becomes 500.
func providerStatus(apiErr *resend.APIError) int {
	if apiErr.StatusCode >= 400 {
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}

// remoteIP extracts the client address. Behind the RealIP middleware the
// RemoteAddr may already be a bare IP without a port.
func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
