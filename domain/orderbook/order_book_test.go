package orderbook

import (
	"testing"

	"talos/infra/memory"
)

func newTestEnv() (*OrderBook, *memory.RetireRing) {
	return NewOrderBook(), memory.NewRetireRing(256)
}

func place(b *OrderBook, rq *memory.RetireRing, side Side, typ OrderType, price, qty int64, id uint64) *Order {
	o := &Order{
		ID:     id,
		SeqID:  id,
		Side:   side,
		Type:   typ,
		Price:  price,
		Qty:    qty,
		Status: Active,
	}
	b.Place(o, rq)
	return o
}

func TestLimitOrderInsertAndMatch(t *testing.T) {
	book, rq := newTestEnv()
	place(book, rq, Bid, Limit, 100, 5, 1)
	place(book, rq, Ask, Limit, 100, 5, 2)

	if book.Bids.Size() != 0 || book.Asks.Size() != 0 {
		t.Error("orders should have matched and book emptied")
	}
}

func TestPartialFillLeavesRemainder(t *testing.T) {
	book, rq := newTestEnv()
	place(book, rq, Bid, Limit, 100, 10, 1)
	taker := place(book, rq, Ask, Limit, 100, 4, 2)

	if taker.Remaining() != 0 {
		t.Errorf("taker should be fully filled, remaining %d", taker.Remaining())
	}
	lvl := book.BestBid()
	if lvl == nil || lvl.TotalQty != 6 {
		t.Fatalf("expected 6 resting at best bid, got %+v", lvl)
	}
}

func TestIOCOrderNeverRests(t *testing.T) {
	book, rq := newTestEnv()
	place(book, rq, Bid, IOC, 100, 5, 1)

	if book.Bids.Size() != 0 {
		t.Error("IOC order should not persist in the book")
	}
}

func TestFOKOrderIsAllOrNothing(t *testing.T) {
	book, rq := newTestEnv()
	place(book, rq, Ask, Limit, 100, 3, 1)

	// Only 3 available; FOK for 5 must not trade at all.
	maker := book.BestAsk()
	taker := place(book, rq, Bid, FOK, 100, 5, 2)
	if taker.Filled != 0 {
		t.Errorf("FOK should not partially fill, filled %d", taker.Filled)
	}
	if maker.TotalQty != 3 {
		t.Errorf("maker liquidity should be untouched, got %d", maker.TotalQty)
	}

	// Enough liquidity now; FOK for 3 fills completely.
	filled := place(book, rq, Bid, FOK, 100, 3, 3)
	if filled.Remaining() != 0 {
		t.Errorf("FOK with full liquidity should fill, remaining %d", filled.Remaining())
	}
	if book.Asks.Size() != 0 {
		t.Error("ask side should be empty after full FOK fill")
	}
}

func TestPostOnlyRestsOrDies(t *testing.T) {
	book, rq := newTestEnv()
	rested := place(book, rq, Bid, PostOnly, 100, 5, 1)
	if book.Bids.Size() != 1 || rested.Status != Active {
		t.Error("post-only order into an empty book should rest")
	}

	crossing := place(book, rq, Ask, PostOnly, 90, 5, 2)
	if crossing.Filled != 0 {
		t.Error("post-only order must never take liquidity")
	}
	if crossing.Status != Inactive {
		t.Error("crossing post-only order should be rejected, not rested")
	}
	if rested.Filled != 0 {
		t.Error("resting bid should be untouched by rejected post-only ask")
	}
}

func TestPriceTimePriority(t *testing.T) {
	book, rq := newTestEnv()
	first := place(book, rq, Bid, Limit, 100, 5, 1)
	second := place(book, rq, Bid, Limit, 100, 5, 2)
	better := place(book, rq, Bid, Limit, 101, 5, 3)

	// Taker sweeps 101 first, then the earlier order at 100.
	place(book, rq, Ask, Limit, 100, 8, 4)

	if better.Remaining() != 0 {
		t.Error("higher-priced bid should fill first")
	}
	if first.Remaining() != 2 {
		t.Errorf("earlier bid at same price should fill next, remaining %d", first.Remaining())
	}
	if second.Filled != 0 {
		t.Error("later bid at same price should not fill before the earlier one")
	}
}

func TestCancelDetachesResting(t *testing.T) {
	book, rq := newTestEnv()
	o := place(book, rq, Bid, Limit, 100, 5, 1)

	book.Cancel(o, rq)
	if book.Bids.Size() != 0 {
		t.Error("cancel should remove the only order and its level")
	}
	if o.Status != Inactive {
		t.Error("cancelled order should be inactive")
	}
}

func TestCancelMidQueue(t *testing.T) {
	book, rq := newTestEnv()
	a := place(book, rq, Bid, Limit, 100, 1, 1)
	b := place(book, rq, Bid, Limit, 100, 2, 2)
	c := place(book, rq, Bid, Limit, 100, 3, 3)

	book.Cancel(b, rq)

	lvl := book.BestBid()
	if lvl.OrderCount != 2 || lvl.TotalQty != 4 {
		t.Fatalf("level accounting wrong after mid-queue cancel: %+v", lvl)
	}
	if lvl.Head() != a || a.Next() != c {
		t.Error("queue should skip the cancelled order")
	}
}

func TestQuoteLookups(t *testing.T) {
	book, rq := newTestEnv()
	place(book, rq, Bid, Limit, 98, 1, 1)
	place(book, rq, Bid, Limit, 100, 1, 2)
	place(book, rq, Ask, Limit, 105, 1, 3)
	place(book, rq, Ask, Limit, 110, 1, 4)

	if lvl := book.BestBid(); lvl == nil || lvl.Price != 100 {
		t.Errorf("best bid should be 100, got %+v", lvl)
	}
	if lvl := book.BestAsk(); lvl == nil || lvl.Price != 105 {
		t.Errorf("best ask should be 105, got %+v", lvl)
	}
	if lvl := book.NearestBid(99); lvl == nil || lvl.Price != 98 {
		t.Errorf("nearest bid below 99 should be 98, got %+v", lvl)
	}
	if lvl := book.NearestAsk(106); lvl == nil || lvl.Price != 110 {
		t.Errorf("nearest ask above 106 should be 110, got %+v", lvl)
	}
	if lvl := book.NearestBid(50); lvl != nil {
		t.Errorf("no bid at or below 50 expected, got %+v", lvl)
	}
}

func TestSweepExpired(t *testing.T) {
	book, rq := newTestEnv()

	gtc := place(book, rq, Bid, Limit, 100, 1, 1)
	expiring := &Order{ID: 2, SeqID: 2, Side: Bid, Type: Limit, Price: 99, Qty: 1, ExpireAt: 500}
	book.Place(expiring, rq)
	later := &Order{ID: 3, SeqID: 3, Side: Ask, Type: Limit, Price: 200, Qty: 1, ExpireAt: 2000}
	book.Place(later, rq)

	var seen []uint64
	if n := book.SweepExpired(1000, rq, func(o *Order) { seen = append(seen, o.ID) }); n != 1 {
		t.Fatalf("expected 1 expired order, swept %d", n)
	}
	if len(seen) != 1 || seen[0] != 2 {
		t.Errorf("sweep visitor should see order 2, got %v", seen)
	}
	if expiring.Status != Inactive {
		t.Error("expired order should be inactive")
	}
	if gtc.Status != Active || later.Status != Active {
		t.Error("unexpired orders must survive the sweep")
	}

	if n := book.SweepExpired(5000, rq, nil); n != 1 {
		t.Fatalf("expected second sweep to remove one more, got %d", n)
	}
}

func TestSnapshotIterVisitsActive(t *testing.T) {
	book, rq := newTestEnv()
	place(book, rq, Bid, Limit, 100, 1, 1)
	place(book, rq, Ask, Limit, 101, 1, 2)

	foundBid, foundAsk := false, false
	book.SnapshotActiveIter(func(price int64, o *Order) {
		if o.Side == Bid {
			foundBid = true
		}
		if o.Side == Ask {
			foundAsk = true
		}
	})
	if !foundBid || !foundAsk {
		t.Error("snapshot did not visit all orders")
	}
}

func TestSnapshotEmptyBook(t *testing.T) {
	book, _ := newTestEnv()
	called := false
	book.SnapshotActiveIter(func(price int64, o *Order) {
		called = true
	})
	if called {
		t.Error("snapshot on empty book should not call callback")
	}
}

func TestMarketOrderSweepsLevels(t *testing.T) {
	book, rq := newTestEnv()
	place(book, rq, Ask, Limit, 100, 2, 1)
	place(book, rq, Ask, Limit, 101, 2, 2)

	taker := place(book, rq, Bid, Market, 0, 3, 3)
	if taker.Filled != 3 {
		t.Errorf("market order should sweep across levels, filled %d", taker.Filled)
	}
	lvl := book.BestAsk()
	if lvl == nil || lvl.Price != 101 || lvl.TotalQty != 1 {
		t.Fatalf("expected 1 left at 101, got %+v", lvl)
	}
}

func TestRetireRingFullPanics(t *testing.T) {
	book := NewOrderBook()
	rq := memory.NewRetireRing(1)
	place(book, rq, Bid, IOC, 100, 1, 1) // fills the ring

	defer func() {
		if recover() == nil {
			t.Error("expected panic when the retire ring is full")
		}
	}()
	place(book, rq, Bid, IOC, 100, 1, 2)
}
