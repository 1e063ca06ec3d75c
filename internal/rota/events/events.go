// Package events implements the Event Sink: channel-gated fan-out of
// structured scheduling events to in-app notifications and an email queue.
package events

import (
	"context"

	"github.com/rotakit/rotakit/internal/rota/clock"
	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/store"
	"github.com/rotakit/rotakit/pkg/logger"
)

// EmailPayload is the message handed to the EmailQueue.
type EmailPayload struct {
	RecipientID string
	Subject     string
	Body        string
	Class       domain.NotificationClass
}

// EmailQueue is the injected best-effort email delivery capability.
type EmailQueue interface {
	Enqueue(ctx context.Context, payload EmailPayload) error
}

// Notification is the input to Emit: the event content before channel
// gating is applied.
type Notification struct {
	RecipientID string
	Class       domain.NotificationClass
	Title       string
	Body        string
	ActionLink  string
	ShiftID     *string
	LeaveID     *string
	SwapID      *string
}

// Sink fans out Notifications to in-app rows and the email queue according
// to each recipient's preferences.
type Sink struct {
	store  store.Store
	clock  clock.Clock
	email  EmailQueue
	logger *logger.Logger
}

// New constructs a Sink. email may be nil, in which case email delivery is
// skipped entirely (useful for tests that only assert in-app rows).
func New(st store.Store, clk clock.Clock, email EmailQueue, log *logger.Logger) *Sink {
	return &Sink{store: st, clock: clk, email: email, logger: log}
}

// Emit applies channel gating and delivers n. In-app delivery is
// at-least-once (one row written here); email is best-effort — enqueue
// failures are logged and never propagated to the caller, per spec §4.7.
func (s *Sink) Emit(ctx context.Context, n Notification) error {
	pref, err := s.store.Notifications().GetPreference(ctx, n.RecipientID)
	if err != nil {
		return err
	}

	if pref.InAppEnabled(n.Class) {
		row := &domain.NotificationEvent{
			RecipientID: n.RecipientID,
			Class:       n.Class,
			Title:       n.Title,
			Body:        n.Body,
			ActionLink:  n.ActionLink,
			ShiftID:     n.ShiftID,
			LeaveID:     n.LeaveID,
			SwapID:      n.SwapID,
			InApp:       true,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.store.Notifications().Create(ctx, row); err != nil {
			return err
		}
	}

	if !pref.EmailEnabled(n.Class) {
		return nil
	}
	// During quiet hours the email is dropped: it is not enqueued and not
	// kept for later delivery. The in-app notification above is unaffected.
	if pref.InQuietHours(s.clock.Now()) {
		return nil
	}
	if s.email == nil {
		return nil
	}
	if err := s.email.Enqueue(ctx, EmailPayload{
		RecipientID: n.RecipientID,
		Subject:     n.Title,
		Body:        n.Body,
		Class:       n.Class,
	}); err != nil {
		if s.logger != nil {
			s.logger.Error().Err(err).Str("recipient_id", n.RecipientID).Str("class", string(n.Class)).Msg("email enqueue failed")
		}
		return nil
	}
	return nil
}
