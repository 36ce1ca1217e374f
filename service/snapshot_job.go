package service

import (
	"context"
	"log"
	"time"

	"talos/snapshot"
)

// StartSnapshotJob periodically persists the book, then truncates WAL
// segments and acked outbox rows the snapshot has made redundant.
func (s *OrderService) StartSnapshotJob(ctx context.Context, dir string, interval time.Duration) {
	w := &snapshot.Writer{Dir: dir}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.snapshotOnce(w)
			}
		}
	}()
}

func (s *OrderService) snapshotOnce(w *snapshot.Writer) {
	if err := s.entryWAL.Sync(); err != nil {
		log.Printf("[snapshot] wal sync failed: %v", err)
		return
	}

	s.reader.Begin()
	seq := s.seqGen.Current()
	err := w.Write(seq, s.book)
	s.reader.End()
	if err != nil {
		log.Printf("[snapshot] write failed: %v", err)
		return
	}

	if err := s.entryWAL.TruncateBefore(seq); err != nil {
		log.Printf("[snapshot] wal truncate failed: %v", err)
	}
	if s.outbox != nil {
		if _, err := s.outbox.TruncateAckedUpTo(seq); err != nil {
			log.Printf("[snapshot] outbox truncate failed: %v", err)
		}
	}
	log.Printf("[snapshot] written at seq=%d", seq)
}
