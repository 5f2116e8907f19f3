package protocols

import "context"

// DedupeStore remembers gateway message ids long enough to drop provider-side
// webhook redeliveries of the same message.
type DedupeStore interface {
	Seen(ctx context.Context, instance, messageID string) (bool, error)
}
