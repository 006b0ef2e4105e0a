package subscription

import "strings"

// emailKeyPrefix namespaces the email-pointer keys in the shared store.
const emailKeyPrefix = "pending_email:"

// PendingSubscription is the record stored under the token key while a
// subscriber's confirmation is outstanding. Records are immutable after
// creation; confirmation consumes and deletes rather than updates.
type PendingSubscription struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Audience  string `json:"audience,omitempty"`
	// Timestamp is the unix time of issuance. Diagnostics only: expiry is
	// enforced by the store's TTL, not re-validated at confirm time.
	Timestamp int64 `json:"timestamp"`
}

// emailKey returns the secondary store key for an address. The value under
// it is the currently outstanding token for that address.
func emailKey(email string) string {
	return emailKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}
