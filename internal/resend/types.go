package resend

import "fmt"

// SendEmailRequest is the payload for the transactional send endpoint.
type SendEmailRequest struct {
	From    string   `json:"from"` // "Display Name <sender@domain>"
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Contact is the payload for the contact upsert endpoints. Unsubscribed is
// always serialized so a confirmed subscriber is explicitly opted in.
type Contact struct {
	Email        string `json:"email"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Unsubscribed bool   `json:"unsubscribed"`
}

// APIError is a non-2xx response from the Resend API. StatusCode carries the
// provider's own status so callers can surface it.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend: API error (status %d): %s", e.StatusCode, e.Message)
}

// errorBody is the provider's error envelope.
type errorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}
