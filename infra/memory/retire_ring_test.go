package memory

import "testing"

type stub struct {
	id    uint64
	epoch uint64
}

func (s *stub) RetireEpoch() uint64 { return s.epoch }

func TestRetireRingBasic(t *testing.T) {
	r := NewRetireRing(4)
	o1 := &stub{id: 1}
	o2 := &stub{id: 2}

	if !r.Enqueue(o1) || !r.Enqueue(o2) {
		t.Fatal("enqueue failed unexpectedly")
	}
	if r.Dequeue() != o1 {
		t.Error("expected first dequeue to be o1")
	}
	if r.Dequeue() != o2 {
		t.Error("expected second dequeue to be o2")
	}
	if r.Dequeue() != nil {
		t.Error("expected empty ring to return nil")
	}
}

func TestRetireRingFull(t *testing.T) {
	r := NewRetireRing(2)
	if !r.Enqueue(&stub{}) || !r.Enqueue(&stub{}) {
		t.Fatal("ring should accept up to its capacity")
	}
	if r.Enqueue(&stub{}) {
		t.Error("full ring should reject enqueue")
	}
}

func TestReclaimRespectsActiveReaders(t *testing.T) {
	ring := NewRetireRing(8)
	pool := NewPool(func() *stub { return &stub{} })

	var reader ReaderEpoch
	reader.Enter()

	obj := &stub{id: 7, epoch: GlobalEpoch.Load() + 1}
	if !ring.Enqueue(obj) {
		t.Fatal("enqueue failed")
	}

	// Reader entered before the retirement epoch: not reclaimable yet.
	AdvanceEpochAndReclaim(ring, pool, &reader)
	if ring.Dequeue() != obj {
		t.Fatal("object should still be parked in the ring")
	}
	_ = ring.Enqueue(obj)

	reader.Exit()
	AdvanceEpochAndReclaim(ring, pool, &reader)
	if ring.Dequeue() != nil {
		t.Fatal("object should have been reclaimed into the pool")
	}
}
