// Package notify publishes best-effort notification messages to a managed
// message topic.
package notify

import "context"

// Publisher forwards a serialized message to a named topic. Delivery is
// fire-and-forget from the caller's perspective: the call either confirms
// the synchronous publish or fails, and callers do not retry.
type Publisher interface {
	Publish(ctx context.Context, message []byte) error
}
