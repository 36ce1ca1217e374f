package rbtree

// BranchMin returns the leftmost node of the subtree rooted at n.
// n must not be the sentinel.
func (t *Tree[T]) BranchMin(n *Node[T]) *Node[T] {
	sentinel := &t.sentinel
	for n.left != sentinel {
		n = n.left
	}
	return n
}

// BranchMax returns the rightmost node of the subtree rooted at n.
// n must not be the sentinel.
func (t *Tree[T]) BranchMax(n *Node[T]) *Node[T] {
	sentinel := &t.sentinel
	for n.right != sentinel {
		n = n.right
	}
	return n
}

// Min returns the least node, or nil if the tree is empty.
func (t *Tree[T]) Min() *Node[T] {
	if t.Empty() {
		return nil
	}
	return t.BranchMin(t.root())
}

// Max returns the greatest node, or nil if the tree is empty.
func (t *Tree[T]) Max() *Node[T] {
	if t.Empty() {
		return nil
	}
	return t.BranchMax(t.root())
}

// Next returns the in-order successor of n, or nil at the maximum.
func (t *Tree[T]) Next(n *Node[T]) *Node[T] {
	sentinel := &t.sentinel
	if n.right != sentinel {
		return t.BranchMin(n.right)
	}
	p := n.parent
	for p != sentinel && n == p.right {
		n = p
		p = p.parent
	}
	if p == sentinel {
		return nil
	}
	return p
}

// Prev returns the in-order predecessor of n, or nil at the minimum.
func (t *Tree[T]) Prev(n *Node[T]) *Node[T] {
	sentinel := &t.sentinel
	if n.left != sentinel {
		return t.BranchMax(n.left)
	}
	p := n.parent
	for p != sentinel && n == p.left {
		n = p
		p = p.parent
	}
	if p == sentinel {
		return nil
	}
	return p
}

// ForEachAscending applies fn from least to greatest record.
// If fn returns false, iteration stops early.
func (t *Tree[T]) ForEachAscending(fn func(T) bool) {
	for n := t.Min(); n != nil; n = t.Next(n) {
		if !fn(n.item) {
			return
		}
	}
}

// ForEachDescending applies fn from greatest to least record.
// If fn returns false, iteration stops early.
func (t *Tree[T]) ForEachDescending(fn func(T) bool) {
	for n := t.Max(); n != nil; n = t.Prev(n) {
		if !fn(n.item) {
			return
		}
	}
}
