// Package orderbook implements the in-memory matching engine for limit,
// market, and special order types. It maintains two intrusive red-black
// trees for bid and ask price levels plus a third for order expiry,
// supports high-throughput matching, and integrates with the write-ahead
// log (WAL) and snapshotter.
//
// The orderbook operates as a single-writer system with lock-free reads
// using epoch-based memory reclamation.
package orderbook
