package orderbook

import "talos/domain/rbtree"

type Side int
type OrderType int
type Status int

const (
	Bid Side = iota
	Ask
)

const (
	Limit OrderType = iota
	Market
	IOC
	FOK
	PostOnly
)

const (
	Active Status = iota
	Inactive
)

// Order is a pure domain entity. It owns all of its index linkage: the
// FIFO links for its price level and the embedded tree node for the
// expiry index, so placing an order allocates nothing beyond the order
// itself.
type Order struct {
	ID     uint64
	Price  int64
	Qty    int64
	Filled int64
	SeqID  uint64

	Side   Side
	Type   OrderType
	Status Status

	// ExpireAt is a unix-nano deadline; zero means good-till-cancel.
	ExpireAt int64

	expiryNode  rbtree.Node[*Order]
	inExpiry    bool
	retireEpoch uint64

	next *Order
	prev *Order
}

func (o *Order) Remaining() int64 {
	return o.Qty - o.Filled
}

// Read-only traversal helper
func (o *Order) Next() *Order {
	return o.next
}

func (o *Order) RetireEpoch() uint64     { return o.retireEpoch }
func (o *Order) SetRetireEpoch(v uint64) { o.retireEpoch = v }
