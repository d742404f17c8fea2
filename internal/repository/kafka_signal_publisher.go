package repository

import (
	"context"

	"signalforge/internal/domain/models"
	pkgkafka "signalforge/pkg/kafka"
)

// DefaultSignalsTopic is where served-signal events land.
const DefaultSignalsTopic = "signalforge.signals.served"

// KafkaSignalPublisher emits served-signal events for the downstream bot
// layer. Best-effort: the caller logs and ignores publish failures.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher wraps a producer for the given topic.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	if topic == "" {
		topic = DefaultSignalsTopic
	}
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

// PublishServed publishes one served-signal row, keyed by pair so a
// consumer sees each instrument's signals in order.
func (p *KafkaSignalPublisher) PublishServed(ctx context.Context, row *models.SignalLog) error {
	return p.producer.Publish(ctx, p.topic, []byte(row.Pair), row)
}

// Close closes the underlying producer.
func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}
