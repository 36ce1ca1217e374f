package orderbook

import (
	"sync/atomic"

	"talos/domain/rbtree"
	"talos/infra/memory"
)

// OrderBook is single-writer and deterministic. Both sides are intrusive
// red-black trees of price levels; a third tree indexes resting orders by
// expiry deadline. Orders sharing a deadline keep submission order because
// the tree places later equals to the right.
type OrderBook struct {
	Bids   *rbtree.Tree[*PriceLevel]
	Asks   *rbtree.Tree[*PriceLevel]
	Expiry *rbtree.Tree[*Order]

	LastSeq atomic.Uint64

	// OnRetire, if set, observes every order leaving the book: filled,
	// cancelled, or expired. It runs before the order enters the retire
	// ring, so the fields are still valid.
	OnRetire func(*Order)
}

// CompareExpiry orders resting orders by deadline.
func CompareExpiry(a, b *Order) int {
	switch {
	case a.ExpireAt < b.ExpireAt:
		return -1
	case a.ExpireAt > b.ExpireAt:
		return 1
	default:
		return 0
	}
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		Bids:   rbtree.New(ComparePrice),
		Asks:   rbtree.New(ComparePrice),
		Expiry: rbtree.New(CompareExpiry),
	}
}

// Place matches o against the opposite side and rests any remainder
// according to the order type. Fully retired orders are pushed onto rq for
// epoch-delayed reclamation.
func (b *OrderBook) Place(o *Order, rq *memory.RetireRing) {
	b.LastSeq.Store(o.SeqID)

	// PostOnly never takes liquidity; FOK is all-or-nothing.
	if o.Type == PostOnly {
		if b.wouldCross(o) {
			b.retire(o, rq)
		} else {
			b.rest(o)
		}
		return
	}
	if o.Type == FOK && !b.canFill(o) {
		b.retire(o, rq)
		return
	}

	if o.Side == Bid {
		b.matchBid(o, rq)
	} else {
		b.matchAsk(o, rq)
	}

	if o.Type == Limit && o.Remaining() > 0 {
		b.rest(o)
		return
	}
	// Market, IOC, FOK and anything fully filled.
	b.retire(o, rq)
}

// wouldCross reports whether o would trade immediately against the
// opposite side.
func (b *OrderBook) wouldCross(o *Order) bool {
	if o.Side == Bid {
		best := b.BestAsk()
		return best != nil && best.Price <= o.Price
	}
	best := b.BestBid()
	return best != nil && best.Price >= o.Price
}

// canFill reports whether crossing liquidity covers o's full quantity.
func (b *OrderBook) canFill(o *Order) bool {
	need := o.Remaining()
	if o.Side == Bid {
		b.Asks.ForEachAscending(func(lvl *PriceLevel) bool {
			if o.Type != Market && lvl.Price > o.Price {
				return false
			}
			need -= lvl.TotalQty
			return need > 0
		})
	} else {
		b.Bids.ForEachDescending(func(lvl *PriceLevel) bool {
			if o.Type != Market && lvl.Price < o.Price {
				return false
			}
			need -= lvl.TotalQty
			return need > 0
		})
	}
	return need <= 0
}

// Cancel detaches a resting order by reference and retires it.
func (b *OrderBook) Cancel(o *Order, rq *memory.RetireRing) {
	side := b.Bids
	if o.Side == Ask {
		side = b.Asks
	}

	if n := side.Find(&PriceLevel{Price: o.Price}); n != nil {
		lvl := n.Item()
		lvl.Unlink(o)
		if lvl.Empty() {
			side.Delete(&lvl.node)
		}
	}
	b.retire(o, rq)
}

// SweepExpired cancels every resting order whose deadline has passed and
// returns how many it removed. onExpire, if non-nil, sees each order
// before it is cancelled.
func (b *OrderBook) SweepExpired(now int64, rq *memory.RetireRing, onExpire func(*Order)) int {
	swept := 0
	for {
		n := b.Expiry.Min()
		if n == nil || n.Item().ExpireAt > now {
			return swept
		}
		if onExpire != nil {
			onExpire(n.Item())
		}
		b.Cancel(n.Item(), rq)
		swept++
	}
}

// ---- quotes ----

// BestBid returns the highest bid level, or nil.
func (b *OrderBook) BestBid() *PriceLevel {
	if n := b.Bids.Max(); n != nil {
		return n.Item()
	}
	return nil
}

// BestAsk returns the lowest ask level, or nil.
func (b *OrderBook) BestAsk() *PriceLevel {
	if n := b.Asks.Min(); n != nil {
		return n.Item()
	}
	return nil
}

// NearestBid returns the bid level at price, or the closest one below it.
func (b *OrderBook) NearestBid(price int64) *PriceLevel {
	if n := b.Bids.FindLessOrEqual(&PriceLevel{Price: price}); n != nil {
		return n.Item()
	}
	return nil
}

// NearestAsk returns the ask level at price, or the closest one above it.
func (b *OrderBook) NearestAsk(price int64) *PriceLevel {
	if n := b.Asks.FindGreaterOrEqual(&PriceLevel{Price: price}); n != nil {
		return n.Item()
	}
	return nil
}

// ---- traversal helpers ----

// BidsWalk visits bid levels best (highest) first.
func (b *OrderBook) BidsWalk(fn func(*PriceLevel)) {
	b.Bids.ForEachDescending(func(lvl *PriceLevel) bool {
		fn(lvl)
		return true
	})
}

// AsksWalk visits ask levels best (lowest) first.
func (b *OrderBook) AsksWalk(fn func(*PriceLevel)) {
	b.Asks.ForEachAscending(func(lvl *PriceLevel) bool {
		fn(lvl)
		return true
	})
}

// SnapshotActiveIter visits every active resting order, bids then asks,
// best price first on each side.
func (b *OrderBook) SnapshotActiveIter(visit func(price int64, o *Order)) {
	b.BidsWalk(func(lvl *PriceLevel) {
		for o := lvl.Head(); o != nil; o = o.Next() {
			if o.Status == Active {
				visit(lvl.Price, o)
			}
		}
	})
	b.AsksWalk(func(lvl *PriceLevel) {
		for o := lvl.Head(); o != nil; o = o.Next() {
			if o.Status == Active {
				visit(lvl.Price, o)
			}
		}
	})
}

// ---- matching ----

func (b *OrderBook) matchBid(o *Order, rq *memory.RetireRing) {
	for o.Remaining() > 0 {
		n := b.Asks.Min()
		if n == nil {
			return
		}
		best := n.Item()
		if o.Type != Market && best.Price > o.Price {
			return
		}

		head := best.Head()
		trade := min(o.Remaining(), head.Remaining())

		o.Filled += trade
		head.Filled += trade
		best.TotalQty -= trade

		if head.Remaining() == 0 {
			best.PopHead()
			if best.Empty() {
				b.Asks.Delete(&best.node)
			}
			b.retire(head, rq)
		}
	}
}

func (b *OrderBook) matchAsk(o *Order, rq *memory.RetireRing) {
	for o.Remaining() > 0 {
		n := b.Bids.Max()
		if n == nil {
			return
		}
		best := n.Item()
		if o.Type != Market && best.Price < o.Price {
			return
		}

		head := best.Head()
		trade := min(o.Remaining(), head.Remaining())

		o.Filled += trade
		head.Filled += trade
		best.TotalQty -= trade

		if head.Remaining() == 0 {
			best.PopHead()
			if best.Empty() {
				b.Bids.Delete(&best.node)
			}
			b.retire(head, rq)
		}
	}
}

// ---- internals ----

func (b *OrderBook) rest(o *Order) {
	side := b.Bids
	if o.Side == Ask {
		side = b.Asks
	}

	lvl := b.getOrCreate(side, o.Price)
	lvl.Enqueue(o)

	if o.ExpireAt > 0 {
		b.Expiry.Insert(&o.expiryNode, o)
		o.inExpiry = true
	}
}

func (b *OrderBook) getOrCreate(side *rbtree.Tree[*PriceLevel], price int64) *PriceLevel {
	if n := side.Find(&PriceLevel{Price: price}); n != nil {
		return n.Item()
	}
	lvl := &PriceLevel{Price: price}
	side.Insert(&lvl.node, lvl)
	return lvl
}

func (b *OrderBook) retire(o *Order, rq *memory.RetireRing) {
	o.Status = Inactive
	if b.OnRetire != nil {
		b.OnRetire(o)
	}
	o.retireEpoch = memory.GlobalEpoch.Load()
	if o.inExpiry {
		b.Expiry.Delete(&o.expiryNode)
		o.inExpiry = false
	}
	if !rq.Enqueue(o) {
		panic("retire ring full")
	}
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
