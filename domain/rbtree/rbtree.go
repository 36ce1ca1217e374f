package rbtree

type Color uint8

const (
	red   Color = 0
	black Color = 1
)

// CompareFunc orders two caller records. It must be deterministic and must
// not mutate tree structure. Negative means a sorts before b.
type CompareFunc[T any] func(a, b T) int

// Node is the tree linkage embedded in a caller-owned record. A zero Node is
// detached; Insert attaches it and Delete detaches it again. The record's
// memory must stay valid for as long as the node remains attached.
type Node[T any] struct {
	left   *Node[T]
	right  *Node[T]
	parent *Node[T]
	color  Color
	item   T
}

// Item returns the record the node was bound to at Insert.
func (n *Node[T]) Item() T { return n.item }

// Tree anchors the root and owns the shared sentinel. The sentinel is both
// the leaf sentinel (every missing child points at it) and the root's
// parent: the actual root lives in sentinel.left, so an empty tree is
// sentinel.left == &sentinel.
type Tree[T any] struct {
	sentinel Node[T]
	compare  CompareFunc[T]
	size     int
	scrub    bool
}

// New returns an initialized tree using compare for ordering.
func New[T any](compare CompareFunc[T]) *Tree[T] {
	return new(Tree[T]).Init(compare)
}

// Init initializes the tree in place and returns it. No allocation happens
// beyond the handle itself.
func (t *Tree[T]) Init(compare CompareFunc[T]) *Tree[T] {
	// The root slot is the sentinel's left child; pointing it back at the
	// sentinel marks the tree empty. The sentinel must be black so fixups
	// can treat the root's parent like any other black node.
	t.sentinel.left = &t.sentinel
	t.sentinel.color = black
	t.compare = compare
	t.size = 0
	return t
}

// EnableScrubOnDelete poisons a node's linkage fields once it is detached,
// turning use-after-delete into a detectable fault instead of silent
// corruption. Intended for tests and debug builds.
func (t *Tree[T]) EnableScrubOnDelete() { t.scrub = true }

// Size returns the number of attached nodes.
func (t *Tree[T]) Size() int { return t.size }

// Empty reports whether no nodes are attached.
func (t *Tree[T]) Empty() bool { return t.sentinel.left == &t.sentinel }

func (t *Tree[T]) root() *Node[T] { return t.sentinel.left }

// Insert attaches n, bound to item, keeping comparator order. n must be
// detached; that is a caller contract, not a runtime check. Records that
// compare equal are placed after existing equals in traversal order.
func (t *Tree[T]) Insert(n *Node[T], item T) {
	sentinel := &t.sentinel

	n.item = item
	n.left = sentinel
	n.right = sentinel
	n.color = red

	parent := sentinel
	child := &sentinel.left
	for *child != sentinel {
		parent = *child
		if t.compare(n.item, parent.item) < 0 {
			child = &parent.left
		} else {
			child = &parent.right
		}
	}
	*child = n
	n.parent = parent

	t.insertFixup(n)

	// The fixup loop may have pushed red all the way up.
	sentinel.left.color = black
	t.size++
}

func (t *Tree[T]) insertFixup(n *Node[T]) {
	for {
		parent := n.parent

		// No explicit root test: the root's parent is the sentinel and
		// the sentinel is always black.
		if parent.color == black {
			return
		}

		grandparent := parent.parent
		var uncle *Node[T]

		if parent == grandparent.left {
			uncle = grandparent.right

			if uncle.color == black {
				if n == parent.right {
					n = parent
					t.leftRotate(n)
				}

				parent = n.parent
				parent.color = black

				grandparent = parent.parent
				grandparent.color = red
				t.rightRotate(grandparent)

				continue
			}
		} else {
			uncle = grandparent.left

			if uncle.color == black {
				if n == parent.left {
					n = parent
					t.rightRotate(n)
				}

				parent = n.parent
				parent.color = black

				grandparent = parent.parent
				grandparent.color = red
				t.leftRotate(grandparent)

				continue
			}
		}

		// Red uncle: recolor and push the violation up.
		uncle.color = black
		parent.color = black
		grandparent.color = red

		n = grandparent
	}
}

// Find returns the node whose record compares equal to item, or nil.
func (t *Tree[T]) Find(item T) *Node[T] {
	sentinel := &t.sentinel

	next := sentinel.left
	for next != sentinel {
		c := t.compare(item, next.item)
		switch {
		case c < 0:
			next = next.left
		case c > 0:
			next = next.right
		default:
			return next
		}
	}
	return nil
}

// FindLessOrEqual returns the node equal to item if one exists, otherwise
// the greatest node below it, otherwise nil.
func (t *Tree[T]) FindLessOrEqual(item T) *Node[T] {
	sentinel := &t.sentinel

	var best *Node[T]
	next := sentinel.left
	for next != sentinel {
		c := t.compare(item, next.item)
		switch {
		case c < 0:
			next = next.left
		case c > 0:
			// Every rightward step passes a node not above item.
			best = next
			next = next.right
		default:
			return next
		}
	}
	return best
}

// FindGreaterOrEqual returns the node equal to item if one exists, otherwise
// the least node above it, otherwise nil.
func (t *Tree[T]) FindGreaterOrEqual(item T) *Node[T] {
	sentinel := &t.sentinel

	var best *Node[T]
	next := sentinel.left
	for next != sentinel {
		c := t.compare(item, next.item)
		switch {
		case c < 0:
			best = next
			next = next.left
		case c > 0:
			next = next.right
		default:
			return next
		}
	}
	return best
}

// Delete detaches n. n must currently be attached to this tree. External
// linkage to the node's neighbors survives: if the node had two children its
// in-order successor is moved into its position rather than copied.
func (t *Tree[T]) Delete(n *Node[T]) {
	sentinel := &t.sentinel

	subst := n
	var child *Node[T]

	switch {
	case n.left == sentinel:
		child = n.right
	case n.right == sentinel:
		child = n.left
	default:
		// The in-order successor has no left child by construction.
		subst = t.BranchMin(n.right)
		child = subst.right
	}

	t.parentRelink(child, subst)

	color := subst.color

	if subst != n {
		// Move the substitute into the deleted node's position.
		subst.color = n.color

		subst.left = n.left
		subst.left.parent = subst

		subst.right = n.right
		subst.right.parent = subst

		t.parentRelink(subst, n)
	}

	if t.scrub {
		n.left = nil
		n.right = nil
		n.parent = nil
	}

	// Splicing out a red node never changes a black-height.
	if color == black {
		t.deleteFixup(child)
	}
	t.size--
}

func (t *Tree[T]) deleteFixup(n *Node[T]) {
	for n != t.root() && n.color == black {
		parent := n.parent

		if n == parent.left {
			sibling := parent.right

			if sibling.color != black {
				sibling.color = black
				parent.color = red

				t.leftRotate(parent)

				sibling = parent.right
			}

			if sibling.right.color == black {
				sibling.color = red

				if sibling.left.color == black {
					n = parent
					continue
				}

				sibling.left.color = black

				t.rightRotate(sibling)
				// If n is the leaf sentinel the rotation above may have
				// retargeted its parent pointer, so the sibling must be
				// reloaded through the cached parent, which the rotation
				// is guaranteed not to move.
				sibling = parent.right
			}

			sibling.color = parent.color
			parent.color = black
			sibling.right.color = black

			t.leftRotate(parent)

			break
		} else {
			sibling := parent.left

			if sibling.color != black {
				sibling.color = black
				parent.color = red

				t.rightRotate(parent)

				sibling = parent.left
			}

			if sibling.left.color == black {
				sibling.color = red

				if sibling.right.color == black {
					n = parent
					continue
				}

				sibling.right.color = black

				t.leftRotate(sibling)
				// Mirror of the sibling reload above.
				sibling = parent.left
			}

			sibling.color = parent.color
			parent.color = black
			sibling.left.color = black

			t.rightRotate(parent)

			break
		}
	}

	// Finalizes the red-node-promoted-to-black exit; a no-op otherwise.
	n.color = black
}

func (t *Tree[T]) leftRotate(n *Node[T]) {
	child := n.right
	n.right = child.left
	child.left.parent = n
	child.left = n

	t.parentRelink(child, n)

	n.parent = child
}

func (t *Tree[T]) rightRotate(n *Node[T]) {
	child := n.left
	n.left = child.right
	child.right.parent = n
	child.right = n

	t.parentRelink(child, n)

	n.parent = child
}

// parentRelink rewires n's parent to point at subst instead of n. When the
// parent is the sentinel its left slot is exactly the root pointer, so the
// root case needs no special handling.
func (t *Tree[T]) parentRelink(subst, n *Node[T]) {
	parent := n.parent
	subst.parent = parent
	if n == parent.left {
		parent.left = subst
	} else {
		parent.right = subst
	}
}
