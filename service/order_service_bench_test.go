package service

import (
	"testing"

	"talos/api/wire"
	"talos/domain/orderbook"
	"talos/infra/memory"
	"talos/infra/sequence"
	entrywal "talos/infra/wal/entry"
	"talos/snapshot"
)

func BenchmarkPlaceOrderCore(b *testing.B) {
	entryWAL, err := entrywal.Open(entrywal.Config{
		Dir:         b.TempDir(),
		SegmentSize: 64 << 20,
	})
	if err != nil {
		b.Fatal(err)
	}
	defer entryWAL.Close()

	svc := NewOrderService(
		orderbook.NewOrderBook(),
		memory.NewPool(func() *orderbook.Order { return &orderbook.Order{} }),
		memory.NewRetireRing(1<<20),
		snapshot.NewReader(),
		sequence.New(0),
		entryWAL,
		nil,
		nil,
	)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Alternating sides at one price: every second order trades.
		cmd := wire.PlaceCommand{
			OrderID: uint64(i + 1),
			Side:    uint32(i % 2),
			Price:   100,
			Qty:     1,
		}
		if _, err := svc.PlaceOrder(cmd); err != nil {
			b.Fatal(err)
		}
		if i%1024 == 0 {
			svc.AdvanceEpoch()
		}
	}
}
