// Package rbtree implements an intrusive, comparator-driven red-black tree.
//
// Nodes are embedded inside caller-owned records; the tree never allocates
// or frees node memory, it only rewires linkage fields and the color tag.
// A single sentinel node doubles as every missing leaf and as the parent of
// the root, which removes the "is this the root?" branch from every rotation
// and fixup routine.
//
// The tree is single-writer: no operation may run concurrently with a
// mutation on the same tree without external synchronization.
package rbtree
