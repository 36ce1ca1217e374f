package snapshot

import "time"

// Snapshot is a point-in-time copy of every active resting order.
// Seq is the last engine sequence applied before the copy was taken;
// WAL replay resumes from it.
type Snapshot struct {
	Seq     uint64
	Created time.Time
	Orders  []OrderEntry
}

type OrderEntry struct {
	ID       uint64
	SeqID    uint64
	Side     int
	Type     int
	Price    int64
	Qty      int64
	Filled   int64
	ExpireAt int64
}
