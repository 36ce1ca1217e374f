package memory

import "sync/atomic"

// GlobalEpoch monotonically increases.
var GlobalEpoch atomic.Uint64

const inactive = ^uint64(0)

// ReaderEpoch marks when a reader entered a read section.
type ReaderEpoch struct {
	epoch atomic.Uint64
}

// NewReaderEpoch returns a reader that starts outside any read section.
// The zero value reads as entered-at-epoch-0 and would pin reclamation.
func NewReaderEpoch() *ReaderEpoch {
	r := &ReaderEpoch{}
	r.epoch.Store(inactive)
	return r
}

func (r *ReaderEpoch) Enter() {
	r.epoch.Store(GlobalEpoch.Load())
}

func (r *ReaderEpoch) Exit() {
	r.epoch.Store(inactive)
}

func (r *ReaderEpoch) Value() uint64 {
	return r.epoch.Load()
}

// Managed lets the reclaimer see when an object was retired.
type Managed interface {
	RetireEpoch() uint64
}

// ReclaimablePool is the ONLY requirement for reclamation.
// It is intentionally type-erased.
type ReclaimablePool interface {
	PutAny(any)
}

// AdvanceEpochAndReclaim advances the epoch and returns retired objects to
// the pool once no active reader can still observe them.
func AdvanceEpochAndReclaim(
	ring *RetireRing,
	pool ReclaimablePool,
	readers ...*ReaderEpoch,
) {
	GlobalEpoch.Add(1)
	minEpoch := minReaderEpoch(readers...)

	for {
		obj := ring.Dequeue()
		if obj == nil {
			return
		}

		if minEpoch != inactive {
			if m, ok := obj.(Managed); ok && m.RetireEpoch() >= minEpoch {
				// Not safe yet; the ring is FIFO so newer ones aren't either.
				_ = ring.Enqueue(obj)
				return
			}
		}
		pool.PutAny(obj)
	}
}

func minReaderEpoch(rs ...*ReaderEpoch) uint64 {
	minEpoch := inactive
	for _, r := range rs {
		if r == nil {
			continue
		}
		if v := r.Value(); v < minEpoch {
			minEpoch = v
		}
	}
	return minEpoch
}
