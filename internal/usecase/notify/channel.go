// Package notify turns catalog diffs into photo messages and delivers them
// through a Channel with bounded retries.
package notify

import "context"

// Channel is a single delivery destination for formatted catalog messages.
//
// Send makes exactly one delivery attempt. Retrying is the Pipeline's job, so
// implementations must not loop internally. Errors are classified by the
// Pipeline:
//   - a *notifier.RateLimitError carries the wait the destination asked for
//   - any other non-nil error is a transient failure
type Channel interface {
	// Name returns a lowercase identifier used in logs, metrics and health output.
	Name() string

	// IsEnabled reports whether the channel is configured to deliver.
	IsEnabled() bool

	// Send delivers msg once. It returns ErrChannelDisabled when the channel
	// is disabled and ErrInvalidMessage when msg has no media reference.
	Send(ctx context.Context, msg Message) error
}
