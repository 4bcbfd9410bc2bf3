package locker

import "context"

// Locker serialises critical sections keyed by an integer. Two callers holding
// the same key never run fn concurrently; different keys proceed independently.
// The Postgres implementation takes a transaction-scoped advisory lock
// (pg_advisory_xact_lock) that is released when the wrapping transaction ends.
type Locker interface {
	WithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error
}
