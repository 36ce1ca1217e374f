// Package service orchestrates the engine: orderbook, WAL, outbox,
// snapshots, and memory reclamation sit behind one write entry point.
//
// It provides a clean API for placing, cancelling, and querying
// orders, decoupled from network transports like gRPC.
package service
