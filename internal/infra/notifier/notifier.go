// Package notifier delivers catalog notifications to external chat services.
//
// A Notifier performs exactly one delivery attempt per call and classifies the
// outcome through its error: *RateLimitError when the service asked the caller
// to wait, *ClientError when the request can never succeed as sent, anything
// else is a transient failure. Retrying is the caller's job.
package notifier

import "context"

// Notifier sends one photo message with a caption.
type Notifier interface {
	// SendPhoto makes a single delivery attempt of the photo at photoURL with
	// caption. It must respect ctx cancellation.
	SendPhoto(ctx context.Context, photoURL, caption string) error
}
