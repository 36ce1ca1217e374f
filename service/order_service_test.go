package service

import (
	"testing"
	"time"

	"talos/api/wire"
	"talos/domain/orderbook"
	"talos/infra/memory"
	"talos/infra/sequence"
	"talos/infra/wal/entry"
	"talos/snapshot"
)

func newTestService(t *testing.T, walDir string) *OrderService {
	t.Helper()

	w, err := entry.Open(entry.Config{Dir: walDir})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	return NewOrderService(
		orderbook.NewOrderBook(),
		memory.NewPool(func() *orderbook.Order { return &orderbook.Order{} }),
		memory.NewRetireRing(1024),
		snapshot.NewReader(),
		sequence.New(w.Seq()),
		w,
		nil, // outbox
		nil, // trades
	)
}

func TestPlaceMatchAndQuote(t *testing.T) {
	s := newTestService(t, t.TempDir())

	res, err := s.PlaceOrder(wire.PlaceCommand{OrderID: 1, Side: uint32(orderbook.Bid), Price: 100, Qty: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Rested || res.Seq != 1 {
		t.Fatalf("bid should rest with seq 1, got %+v", res)
	}

	res, err = s.PlaceOrder(wire.PlaceCommand{OrderID: 2, Side: uint32(orderbook.Ask), Price: 100, Qty: 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.Filled != 3 || res.Rested {
		t.Fatalf("ask should fully trade, got %+v", res)
	}

	q := s.GetQuote(100)
	if q.BestBid == nil || q.BestBid.Price != 100 || q.BestBid.TotalQty != 2 {
		t.Fatalf("quote wrong after partial fill: %+v", q.BestBid)
	}
	if q.NearestBid == nil || q.NearestBid.Price != 100 {
		t.Fatalf("nearest bid at 100 expected, got %+v", q.NearestBid)
	}
	if q.BestAsk != nil {
		t.Fatalf("ask side should be empty, got %+v", q.BestAsk)
	}
}

func TestCancelByID(t *testing.T) {
	s := newTestService(t, t.TempDir())

	if _, err := s.PlaceOrder(wire.PlaceCommand{OrderID: 7, Side: uint32(orderbook.Bid), Price: 50, Qty: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CancelOrder(7); err != nil {
		t.Fatalf("cancel resting order: %v", err)
	}
	if _, err := s.CancelOrder(7); err != ErrUnknownOrder {
		t.Fatalf("second cancel should report unknown order, got %v", err)
	}
	if q := s.GetQuote(50); q.BestBid != nil {
		t.Fatal("book should be empty after cancel")
	}
}

func TestDuplicateOrderIDRejected(t *testing.T) {
	s := newTestService(t, t.TempDir())

	if _, err := s.PlaceOrder(wire.PlaceCommand{OrderID: 1, Side: uint32(orderbook.Bid), Price: 10, Qty: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PlaceOrder(wire.PlaceCommand{OrderID: 1, Side: uint32(orderbook.Bid), Price: 11, Qty: 1}); err == nil {
		t.Fatal("duplicate resting order id should be rejected")
	}
}

func TestRecoverFromWAL(t *testing.T) {
	walDir := t.TempDir()
	snapDir := t.TempDir()

	s := newTestService(t, walDir)
	_, _ = s.PlaceOrder(wire.PlaceCommand{OrderID: 1, Side: uint32(orderbook.Bid), Price: 100, Qty: 5})
	_, _ = s.PlaceOrder(wire.PlaceCommand{OrderID: 2, Side: uint32(orderbook.Ask), Price: 100, Qty: 3})
	_, _ = s.PlaceOrder(wire.PlaceCommand{OrderID: 3, Side: uint32(orderbook.Ask), Price: 110, Qty: 4})
	if _, err := s.CancelOrder(3); err != nil {
		t.Fatal(err)
	}
	if err := s.entryWAL.Sync(); err != nil {
		t.Fatal(err)
	}

	restored := newTestService(t, walDir)
	if err := restored.Recover(walDir, snapDir); err != nil {
		t.Fatalf("recover: %v", err)
	}

	if got := restored.seqGen.Current(); got != 4 {
		t.Fatalf("sequencer should resume at 4, got %d", got)
	}
	q := restored.GetQuote(100)
	if q.BestBid == nil || q.BestBid.TotalQty != 2 {
		t.Fatalf("replayed book wrong: %+v", q.BestBid)
	}
	if q.BestAsk != nil {
		t.Fatal("cancelled ask should not reappear after replay")
	}

	// The replayed resting order is cancellable by ID.
	if _, err := restored.CancelOrder(1); err != nil {
		t.Fatalf("cancel replayed order: %v", err)
	}
}

func TestSweepIsReplayed(t *testing.T) {
	walDir := t.TempDir()

	s := newTestService(t, walDir)
	deadline := time.Now().UnixNano()
	_, _ = s.PlaceOrder(wire.PlaceCommand{OrderID: 1, Side: uint32(orderbook.Bid), Price: 100, Qty: 1, ExpireAt: deadline - 1})
	_, _ = s.PlaceOrder(wire.PlaceCommand{OrderID: 2, Side: uint32(orderbook.Bid), Price: 90, Qty: 1})

	n, err := s.SweepExpired(deadline)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	_ = s.entryWAL.Sync()

	restored := newTestService(t, walDir)
	if err := restored.Recover(walDir, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	q := restored.GetQuote(100)
	if q.BestBid == nil || q.BestBid.Price != 90 {
		t.Fatalf("only the unexpired bid should survive replay, got %+v", q.BestBid)
	}
}

func TestSnapshotThenRecover(t *testing.T) {
	walDir := t.TempDir()
	snapDir := t.TempDir()

	s := newTestService(t, walDir)
	_, _ = s.PlaceOrder(wire.PlaceCommand{OrderID: 1, Side: uint32(orderbook.Bid), Price: 100, Qty: 5})
	_, _ = s.PlaceOrder(wire.PlaceCommand{OrderID: 2, Side: uint32(orderbook.Ask), Price: 120, Qty: 2})

	s.snapshotOnce(&snapshot.Writer{Dir: snapDir})

	// One more order after the snapshot; replay covers the gap.
	_, _ = s.PlaceOrder(wire.PlaceCommand{OrderID: 3, Side: uint32(orderbook.Bid), Price: 99, Qty: 1})
	_ = s.entryWAL.Sync()

	restored := newTestService(t, walDir)
	if err := restored.Recover(walDir, snapDir); err != nil {
		t.Fatal(err)
	}

	seq, orders := restored.Snapshot()
	if seq != 3 {
		t.Fatalf("expected last seq 3, got %d", seq)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 resting orders after recover, got %d", len(orders))
	}
}

func TestEpochReclaimReturnsOrdersToPool(t *testing.T) {
	s := newTestService(t, t.TempDir())

	// IOC into an empty book retires immediately.
	_, _ = s.PlaceOrder(wire.PlaceCommand{OrderID: 1, Side: uint32(orderbook.Bid), Type: uint32(orderbook.IOC), Price: 100, Qty: 1})

	s.AdvanceEpoch()
	if got := s.ring.Dequeue(); got != nil {
		t.Fatalf("retired order should have been reclaimed, found %+v", got)
	}
}
