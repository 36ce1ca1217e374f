package service

import (
	"log"
	"path/filepath"

	"talos/api/wire"
	"talos/domain/orderbook"
	"talos/infra/wal/entry"
	"talos/snapshot"
)

// Recover rebuilds engine state before traffic is accepted: load the
// latest snapshot, replay WAL records past its sequence, and resume the
// sequencer. The exit outbox is not replayed; the broadcaster drains
// whatever it still holds.
func (s *OrderService) Recover(walDir, snapDir string) error {
	snapSeq, err := snapshot.Load(filepath.Join(snapDir, "snapshot.bin"), s.book, s.ring)
	if err != nil {
		return err
	}
	if snapSeq > 0 {
		log.Printf("[service] snapshot restored (seq=%d)", snapSeq)
	}

	lastSeq, err := entry.Replay(walDir, entry.ProtoSerializer{}, snapSeq, func(rec *entry.Record) error {
		return s.applyRecord(rec)
	})
	if err != nil {
		return err
	}

	s.seqGen.Reset(lastSeq)
	s.book.LastSeq.Store(lastSeq)
	s.indexRestingOrders()

	log.Printf("[service] wal replay complete (last seq=%d)", lastSeq)
	return nil
}

func (s *OrderService) applyRecord(rec *entry.Record) error {
	switch rec.Type {
	case entry.RecordPlace:
		var cmd wire.PlaceCommand
		if err := cmd.UnmarshalWire(rec.Data); err != nil {
			return err
		}
		s.applyPlace(cmd, rec.Seq)

	case entry.RecordCancel:
		var cmd wire.CancelCommand
		if err := cmd.UnmarshalWire(rec.Data); err != nil {
			return err
		}
		// The order may already be gone if it traded before the cancel.
		if o, ok := s.orders[cmd.OrderID]; ok {
			s.book.Cancel(o, s.ring)
			delete(s.orders, cmd.OrderID)
		}

	case entry.RecordSweep:
		s.book.SweepExpired(rec.Time, s.ring, nil)
	}
	return nil
}

// indexRestingOrders rebuilds the ID index after a snapshot load, which
// bypasses applyPlace.
func (s *OrderService) indexRestingOrders() {
	s.book.SnapshotActiveIter(func(price int64, o *orderbook.Order) {
		s.orders[o.ID] = o
	})
}
