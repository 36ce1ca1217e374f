package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"talos/api/wire"
	"talos/domain/orderbook"
	"talos/infra/kafka"
	"talos/infra/memory"
	"talos/infra/sequence"
	"talos/infra/wal/entry"
	"talos/infra/wal/exit"
	"talos/snapshot"
)

var ErrUnknownOrder = errors.New("service: unknown order")

// OrderService is the only write entry point into the engine. Commands
// are serialized under one mutex: WAL append, then deterministic book
// mutation, then the outbox write for anything that traded.
type OrderService struct {
	mu sync.Mutex

	book   *orderbook.OrderBook
	pool   *memory.Pool[orderbook.Order]
	ring   *memory.RetireRing
	reader *snapshot.Reader
	seqGen *sequence.Sequencer

	entryWAL *entry.WAL
	outbox   *exit.Outbox
	trades   *kafka.Producer

	orders map[uint64]*orderbook.Order
}

func NewOrderService(
	book *orderbook.OrderBook,
	pool *memory.Pool[orderbook.Order],
	ring *memory.RetireRing,
	reader *snapshot.Reader,
	seqGen *sequence.Sequencer,
	entryWAL *entry.WAL,
	outbox *exit.Outbox,
	trades *kafka.Producer,
) *OrderService {
	s := &OrderService{
		book:     book,
		pool:     pool,
		ring:     ring,
		reader:   reader,
		seqGen:   seqGen,
		entryWAL: entryWAL,
		outbox:   outbox,
		trades:   trades,
		orders:   make(map[uint64]*orderbook.Order, 1024),
	}
	// Keep the ID index honest when makers retire inside the book.
	book.OnRetire = func(o *orderbook.Order) {
		delete(s.orders, o.ID)
	}
	return s
}

// ---- commands ----

type PlaceResult struct {
	Seq       uint64
	Filled    int64
	Remaining int64
	Rested    bool
}

// PlaceOrder logs the command, runs it through the book, and reports
// the outcome. The WAL and the sequencer advance in lockstep because
// every append happens under the service mutex.
func (s *OrderService) PlaceOrder(cmd wire.PlaceCommand) (PlaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.orders[cmd.OrderID]; dup {
		return PlaceResult{}, errors.New("service: duplicate order id")
	}

	data, err := cmd.MarshalWire()
	if err != nil {
		return PlaceResult{}, err
	}
	seq := s.seqGen.Next()
	rec := entry.NewRecord(entry.RecordPlace, data)
	if err := s.entryWAL.Append(rec); err != nil {
		return PlaceResult{}, err
	}
	if rec.Seq != seq {
		log.Printf("[service] sequencer drift: wal=%d seq=%d", rec.Seq, seq)
	}

	o := s.applyPlace(cmd, seq)

	if o.Filled > 0 {
		s.publishTrade(o, seq)
	}

	return PlaceResult{
		Seq:       seq,
		Filled:    o.Filled,
		Remaining: o.Remaining(),
		Rested:    o.Status == orderbook.Active,
	}, nil
}

// CancelOrder detaches a resting order by its ID.
func (s *OrderService) CancelOrder(orderID uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return 0, ErrUnknownOrder
	}

	cmd := wire.CancelCommand{OrderID: orderID}
	data, err := cmd.MarshalWire()
	if err != nil {
		return 0, err
	}
	seq := s.seqGen.Next()
	rec := entry.NewRecord(entry.RecordCancel, data)
	if err := s.entryWAL.Append(rec); err != nil {
		return 0, err
	}

	s.book.Cancel(o, s.ring)
	delete(s.orders, orderID)
	return seq, nil
}

// SweepExpired removes resting orders past their deadline. It logs one
// sweep record carrying the cutoff so replay repeats it exactly.
func (s *OrderService) SweepExpired(now int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := entry.NewRecord(entry.RecordSweep, nil)
	rec.Time = now
	s.seqGen.Next()
	if err := s.entryWAL.Append(rec); err != nil {
		return 0, err
	}

	return s.book.SweepExpired(now, s.ring, nil), nil
}

// ---- queries ----

type Quote struct {
	BestBid    *orderbook.PriceLevel
	BestAsk    *orderbook.PriceLevel
	NearestBid *orderbook.PriceLevel
	NearestAsk *orderbook.PriceLevel
}

// GetQuote returns top of book plus the levels bracketing price: the
// bid at or below it and the ask at or above it.
func (s *OrderService) GetQuote(price int64) Quote {
	s.reader.Begin()
	defer s.reader.End()

	return Quote{
		BestBid:    s.book.BestBid(),
		BestAsk:    s.book.BestAsk(),
		NearestBid: s.book.NearestBid(price),
		NearestAsk: s.book.NearestAsk(price),
	}
}

// Snapshot returns a consistent copy of every active resting order.
func (s *OrderService) Snapshot() (uint64, []wire.SnapshotOrder) {
	s.reader.Begin()
	defer s.reader.End()

	out := make([]wire.SnapshotOrder, 0, 1024)
	s.book.SnapshotActiveIter(func(price int64, o *orderbook.Order) {
		out = append(out, wire.SnapshotOrder{
			ID:       o.ID,
			Side:     uint32(o.Side),
			Type:     uint32(o.Type),
			Price:    price,
			Qty:      o.Qty,
			Filled:   o.Filled,
			ExpireAt: o.ExpireAt,
		})
	})
	return s.book.LastSeq.Load(), out
}

// ---- background jobs ----

// StartSweepJob expires orders on a fixed cadence.
func (s *OrderService) StartSweepJob(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n, err := s.SweepExpired(time.Now().UnixNano()); err != nil {
					log.Printf("[service] sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("[service] swept %d expired orders", n)
				}
			}
		}
	}()
}

// StartEpochJob advances the reclamation epoch periodically.
func (s *OrderService) StartEpochJob(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.AdvanceEpoch()
			}
		}
	}()
}

// AdvanceEpoch reclaims retired orders no snapshot reader can still see.
func (s *OrderService) AdvanceEpoch() {
	memory.AdvanceEpochAndReclaim(s.ring, s.pool, s.reader.Epoch())
}

// ---- internals ----

func (s *OrderService) applyPlace(cmd wire.PlaceCommand, seq uint64) *orderbook.Order {
	o := s.pool.Get()
	*o = orderbook.Order{
		ID:       cmd.OrderID,
		Side:     orderbook.Side(cmd.Side),
		Type:     orderbook.OrderType(cmd.Type),
		Price:    cmd.Price,
		Qty:      cmd.Qty,
		ExpireAt: cmd.ExpireAt,
		SeqID:    seq,
		Status:   orderbook.Active,
	}

	s.book.Place(o, s.ring)

	if o.Status == orderbook.Active {
		s.orders[o.ID] = o
	}
	return o
}

// publishTrade writes the execution report to the durable outbox and
// best-effort publishes it to the trades topic. The broadcaster
// redelivers from the outbox if the direct publish is lost.
func (s *OrderService) publishTrade(o *orderbook.Order, seq uint64) {
	ev := wire.TradeEvent{
		Seq:     seq,
		OrderID: o.ID,
		Price:   o.Price,
		Qty:     o.Filled,
		Time:    time.Now().UnixNano(),
	}
	payload, err := ev.MarshalWire()
	if err != nil {
		log.Printf("[service] encode trade seq=%d: %v", seq, err)
		return
	}
	if s.outbox != nil {
		if err := s.outbox.PutNew(seq, payload); err != nil {
			log.Printf("[service] outbox write seq=%d: %v", seq, err)
		}
	}
	if s.trades != nil {
		if err := s.trades.SendTrade(context.Background(), o.ID, payload); err != nil {
			log.Printf("[service] trade publish seq=%d: %v", seq, err)
		}
	}
}
