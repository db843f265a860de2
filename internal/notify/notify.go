package notify

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier delivers an alert to an operator. Delivery is best-effort:
// callers log failures and move on, they never escalate them.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// Multi fans an alert out to every configured channel and combines the
// failures, so one broken channel does not silence the rest.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, subject, body string) error {
	var errs error
	for _, n := range m {
		if n == nil {
			continue
		}
		errs = multierr.Append(errs, n.Send(ctx, subject, body))
	}
	return errs
}
