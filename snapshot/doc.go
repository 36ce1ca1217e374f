// Package snapshot persists and restores the resting order book.
// A writer walks the live book inside a read epoch and gob-encodes
// every active order; the loader rebuilds the book from that file so
// WAL replay only has to cover records after the snapshot sequence.
package snapshot
