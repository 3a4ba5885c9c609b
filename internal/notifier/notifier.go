// Package notifier delivers pre-formatted text messages.
package notifier

import "context"

// Notifier delivers one message. Callers log failures and never retry.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// NoopNotifier drops every message. Used when Telegram is not configured.
type NoopNotifier struct{}

func (NoopNotifier) Send(context.Context, string) error { return nil }
