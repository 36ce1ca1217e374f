// Package exit is the durable outbox between the matching engine and
// the broadcaster. Events are written here in the same transaction
// window as the entry WAL append, then drained to the broker by the
// broadcaster; ACKED rows are truncated once the broker confirms them.
package exit
