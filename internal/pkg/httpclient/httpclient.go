// Package httpclient defines the HTTP execution interface shared by the
// provider clients. Provider calls are deliberately not retried: a rejected
// send or verification is surfaced to the caller immediately.
package httpclient

import (
	"net/http"
	"time"
)

// Doer is the interface for executing HTTP requests.
// *http.Client satisfies it; tests substitute their own implementations.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns an http.Client with the given total-request timeout.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
