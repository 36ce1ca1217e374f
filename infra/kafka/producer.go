package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes trade executions to the trades topic. Keys are
// the taker order ID so fills for one order land on one partition.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Send(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

// SendTrade publishes a fill keyed by the taker order ID.
func (p *Producer) SendTrade(ctx context.Context, takerID uint64, value []byte) error {
	return p.Send(ctx, []byte(strconv.FormatUint(takerID, 10)), value)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
