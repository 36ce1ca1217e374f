package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"talos/domain/orderbook"
)

type Writer struct {
	Dir string
}

// Write walks the book and persists every active resting order. The
// caller holds a read epoch for the duration; the file is written to a
// temp name and renamed so a crash never leaves a torn snapshot.
func (w *Writer) Write(seq uint64, book *orderbook.OrderBook) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	s := Snapshot{
		Seq:     seq,
		Created: time.Now(),
		Orders:  make([]OrderEntry, 0, 1024),
	}

	book.SnapshotActiveIter(func(price int64, o *orderbook.Order) {
		s.Orders = append(s.Orders, OrderEntry{
			ID:       o.ID,
			SeqID:    o.SeqID,
			Side:     int(o.Side),
			Type:     int(o.Type),
			Price:    price,
			Qty:      o.Qty,
			Filled:   o.Filled,
			ExpireAt: o.ExpireAt,
		})
	})

	tmp := filepath.Join(w.Dir, "snapshot.bin.tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(w.Dir, "snapshot.bin"))
}
