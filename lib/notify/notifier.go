package notify

import (
	"context"
	"errors"
)

// Notifier delivers a run report to some external channel. Delivery
// failures are reported back but treated as non-fatal by callers, a
// failed push never aborts a run.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

type Multi []Notifier

func (m Multi) Notify(ctx context.Context, title, body string) error {
	errlist := []error{}
	for _, n := range m {
		err := n.Notify(ctx, title, body)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}
