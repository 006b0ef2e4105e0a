// Package subscription implements the double opt-in confirmation workflow:
// token issuance with duplicate-request suppression, time-bounded pending
// records, and the confirm-time transition that registers the contact with
// the mailing-list provider and consumes the token.
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/optin-service/internal/config"
	"github.com/ignite/optin-service/internal/pkg/logger"
	"github.com/ignite/optin-service/internal/resend"
	"github.com/ignite/optin-service/internal/store"
	"github.com/ignite/optin-service/internal/token"
)

// Store is the pending-subscription store contract: a value is retrievable
// from the moment Put returns until Delete is called or the TTL elapses.
type Store interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	PutNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// EmailSender delivers the confirmation email.
type EmailSender interface {
	SendEmail(ctx context.Context, req resend.SendEmailRequest) error
}

// ContactUpserter registers a confirmed subscriber with the mailing-list
// provider, on the default list or a named audience.
type ContactUpserter interface {
	UpsertContact(ctx context.Context, contact resend.Contact) error
	UpsertContactToAudience(ctx context.Context, audienceID string, contact resend.Contact) error
}

// Service coordinates the pending-subscription state machine. All methods
// are safe for concurrent use; the only shared state is the external store.
type Service struct {
	store     Store
	mailer    EmailSender
	contacts  ContactUpserter
	cfg       config.SubscribeConfig
	templates *templates
}

// NewService creates the confirmation workflow service.
func NewService(st Store, mailer EmailSender, contacts ContactUpserter, cfg config.SubscribeConfig) (*Service, error) {
	tpl, err := newTemplates()
	if err != nil {
		return nil, err
	}
	return &Service{
		store:     st,
		mailer:    mailer,
		contacts:  contacts,
		cfg:       cfg,
		templates: tpl,
	}, nil
}

// SubscribeInput carries the fields of a subscribe request.
type SubscribeInput struct {
	Email     string
	FirstName string
	LastName  string
	Audience  string
}

// SubscribeResult reports the outcome of a subscribe request. Both a fresh
// issuance and a suppressed duplicate are successes to the caller.
type SubscribeResult struct {
	AlreadyPending bool
}

// Subscribe issues a confirmation token for the address and emails the
// confirmation link. If a token is already outstanding for the address, no
// new token is issued and no email is sent.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	pointerKey := emailKey(in.Email)

	// Deduplication: an outstanding token suppresses reissue so rapid
	// double-submission cannot flood confirmation links.
	_, err := s.store.Get(ctx, pointerKey)
	if err == nil {
		logger.Info("subscribe suppressed, confirmation already outstanding", "email", in.Email)
		return &SubscribeResult{AlreadyPending: true}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking outstanding subscription: %w", err)
	}

	if strings.TrimSpace(in.Email) == "" {
		return nil, ErrEmailRequired
	}

	tok := token.New()
	record := PendingSubscription{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Audience:  in.Audience,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding pending subscription: %w", err)
	}

	// Primary record first, pointer second: a crash between the two writes
	// only risks a duplicate-send window, never loss of the authoritative
	// record.
	if err := s.store.Put(ctx, tok, string(data), s.cfg.TTL()); err != nil {
		return nil, fmt.Errorf("storing pending subscription: %w", err)
	}
	won, err := s.store.PutNX(ctx, pointerKey, tok, s.cfg.TTL())
	if err != nil {
		return nil, fmt.Errorf("storing subscription pointer: %w", err)
	}
	if !won {
		// Lost a subscribe race for this address; both tokens remain
		// valid and only one confirmation will ever consume each.
		logger.Debug("subscription pointer already set by concurrent request", "email", in.Email)
	}

	if err := s.sendConfirmation(ctx, tok, record); err != nil {
		// The records stay in the store so a retry by the same user hits
		// the deduplication path above instead of issuing another token.
		return nil, err
	}

	logger.Info("confirmation email sent", "email", in.Email, "audience", in.Audience)
	return &SubscribeResult{}, nil
}

func (s *Service) sendConfirmation(ctx context.Context, tok string, record PendingSubscription) error {
	confirmURL := fmt.Sprintf("%s/confirm?code=%s", strings.TrimRight(s.cfg.BaseURL, "/"), tok)

	html, text, err := s.templates.render(record.FirstName, confirmURL)
	if err != nil {
		return err
	}

	err = s.mailer.SendEmail(ctx, resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail),
		To:      []string{record.Email},
		Subject: confirmSubject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("sending confirmation email: %w", err)
	}
	return nil
}

// ConfirmResult reports a completed confirmation.
type ConfirmResult struct {
	Email string
}

// Confirm consumes a token: the contact is upserted at the mailing-list
// provider and both store keys are deleted. Deletion happens on the
// provider-rejection path too, so a token is never replayable once a
// confirmation attempt has been made.
func (s *Service) Confirm(ctx context.Context, tok string) (*ConfirmResult, error) {
	if tok == "" {
		return nil, ErrCodeRequired
	}

	data, err := s.store.Get(ctx, tok)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrExpiredOrInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("loading pending subscription: %w", err)
	}

	var record PendingSubscription
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("decoding pending subscription: %w", err)
	}

	upsertErr := s.upsert(ctx, record)

	// Consume the attempt regardless of the provider outcome: the caller
	// sees a terminal page either way and the token must not be replayable.
	if err := s.store.Delete(ctx, tok); err != nil {
		logger.Warn("failed to delete pending subscription record", "error", err)
	}
	if err := s.store.Delete(ctx, emailKey(record.Email)); err != nil {
		logger.Warn("failed to delete subscription pointer", "error", err)
	}

	if upsertErr != nil {
		return nil, fmt.Errorf("registering contact: %w", upsertErr)
	}

	logger.Info("subscription confirmed", "email", record.Email, "audience", record.Audience)
	return &ConfirmResult{Email: record.Email}, nil
}

func (s *Service) upsert(ctx context.Context, record PendingSubscription) error {
	contact := resend.Contact{
		Email:        record.Email,
		FirstName:    record.FirstName,
		LastName:     record.LastName,
		Unsubscribed: false,
	}

	if record.Audience != "" {
		if listID, ok := s.cfg.ListID(record.Audience); ok {
			return s.contacts.UpsertContactToAudience(ctx, listID, contact)
		}
		// Unrecognized audience names fall back to the default list. Logged
		// because a misconfigured audience map would otherwise be invisible.
		logger.Warn("audience has no configured list, using default",
			"audience", record.Audience)
	}
	return s.contacts.UpsertContact(ctx, contact)
}
