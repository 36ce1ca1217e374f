package broadcaster

import (
	"context"
	"log"
	"strconv"
	"time"

	"talos/infra/wal/exit"

	"github.com/IBM/sarama"
)

const (
	drainInterval    = 250 * time.Millisecond
	truncateInterval = time.Minute
)

// Broadcaster drains the exit outbox to the event broker. Records move
// NEW -> SENT -> ACKED; anything not acked is retried on the next tick,
// so the broker may see duplicates but never misses an event.
type Broadcaster struct {
	outbox   *exit.Outbox
	producer sarama.SyncProducer
	topic    string
}

func New(outbox *exit.Outbox, brokers []string, topic string) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		outbox:   outbox,
		producer: producer,
		topic:    topic,
	}, nil
}

func (b *Broadcaster) Start(ctx context.Context) {
	log.Println("[broadcaster] started")

	go func() {
		drain := time.NewTicker(drainInterval)
		defer drain.Stop()
		truncate := time.NewTicker(truncateInterval)
		defer truncate.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-drain.C:
				b.drainOnce()
			case <-truncate.C:
				b.truncateOnce()
			}
		}
	}()
}

// drainOnce publishes every pending outbox record. MarkSent before the
// send makes redelivery after a crash at-least-once, never at-most-once.
func (b *Broadcaster) drainOnce() {
	err := b.outbox.ScanPending(func(rec exit.Record) error {
		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(strconv.FormatUint(rec.Seq, 10)),
			Value: sarama.ByteEncoder(rec.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			log.Printf("[broadcaster] send seq=%d failed: %v", rec.Seq, err)
			_ = b.outbox.MarkFailed(rec.Seq)
			return nil // retry on the next tick
		}

		return b.outbox.MarkAcked(rec.Seq)
	})
	if err != nil {
		log.Printf("[broadcaster] scan failed: %v", err)
	}
}

func (b *Broadcaster) truncateOnce() {
	n, err := b.outbox.TruncateAckedUpTo(^uint64(0))
	if err != nil {
		log.Printf("[broadcaster] truncate failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[broadcaster] truncated %d acked records", n)
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
