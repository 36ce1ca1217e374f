package snapshot

import (
	"encoding/gob"
	"os"

	"talos/domain/orderbook"
	"talos/infra/memory"
)

// Load rebuilds the book from a snapshot file and returns the sequence
// WAL replay should resume after. A missing file is a fresh start, not
// an error. A snapshotted book is uncrossed, so replacing each entry
// through the normal Place path rests it without trading.
func Load(path string, book *orderbook.OrderBook, rq *memory.RetireRing) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, err
	}

	for _, e := range s.Orders {
		o := &orderbook.Order{
			ID:       e.ID,
			SeqID:    e.SeqID,
			Side:     orderbook.Side(e.Side),
			Type:     orderbook.OrderType(e.Type),
			Price:    e.Price,
			Qty:      e.Qty,
			Filled:   e.Filled,
			ExpireAt: e.ExpireAt,
			Status:   orderbook.Active,
		}
		book.Place(o, rq)
	}

	return s.Seq, nil
}
