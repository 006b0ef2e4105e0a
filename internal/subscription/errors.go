package subscription

import "errors"

// Sentinel errors for the subscription service layer.
var (
	ErrEmailRequired = errors.New("email is required")
	ErrCodeRequired  = errors.New("confirmation code is required")
	// ErrExpiredOrInvalid covers unknown, expired, and already-consumed
	// tokens. These are indistinguishable once the record is gone and must
	// produce the same response.
	ErrExpiredOrInvalid = errors.New("confirmation link is expired or invalid")
)
