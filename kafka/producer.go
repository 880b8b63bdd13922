package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// ProducerAPI abstracts the event bus writer so services can be tested
// without a broker.
type ProducerAPI interface {
	Publish(key string, value []byte) error
}

type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a producer bound to a single topic.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer}
}

func (p *Producer) Publish(key string, value []byte) error {
	return p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

func (p *Producer) Close() {
	_ = p.writer.Close()
}
