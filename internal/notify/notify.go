// Package notify decouples command handlers from the chat surface that
// invoked them.
package notify

import "context"

// Notifier sends one plain-text message back to whoever triggered an
// action.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, text string) error

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Discard is a Notifier that drops every message.
var Discard = Func(func(context.Context, string) error { return nil })
