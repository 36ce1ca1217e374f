// Package memory provides the low-level primitives for memory
// management and safe reclamation: a typed object pool, a lock-free
// retire ring, and global epoch tracking used by the orderbook and
// snapshotter.
//
// The memory package is dependency-free and forms the foundation
// for concurrent object reuse and RCU-style epoch advancement.
package memory
