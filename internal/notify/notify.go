// Package notify delivers lifecycle notifications to members. Delivery is
// best-effort: callers log failures and carry on.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Kind identifies a notification template.
type Kind string

const (
	KindMembershipRemoved   Kind = "membership_removed"
	KindMembershipReinvited Kind = "membership_reinvited"
	KindMembershipLeft      Kind = "membership_left"
)

// Message is the payload handed to the delivery channel.
type Message struct {
	Kind      Kind              `json:"kind"`
	Recipient string            `json:"recipient"`
	Data      map[string]string `json:"data,omitempty"`
	SentAt    time.Time         `json:"sent_at"`
}

// Sender delivers a notification to a user.
type Sender interface {
	Send(ctx context.Context, kind Kind, recipient string, data map[string]string) error
}

// LogSender writes notifications to the structured log. It is used when no
// broker is configured.
type LogSender struct{}

// Send logs the notification.
func (LogSender) Send(ctx context.Context, kind Kind, recipient string, data map[string]string) error {
	attrs := []any{"kind", kind, "recipient", recipient}
	for k, v := range data {
		attrs = append(attrs, k, v)
	}
	slog.InfoContext(ctx, "Notification", attrs...)
	return nil
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Send(context.Context, Kind, string, map[string]string) error { return nil }
