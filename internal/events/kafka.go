package events

import (
	"context"
	"strconv"

	"github.com/segmentio/kafka-go"

	"trekbook/internal/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a topic keyed by booking id so that the
// events of one booking stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("kafka event publisher initialized", "topic", topic, "brokers", brokers)
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := buildMessage(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error("failed to publish event", "type", e.Type, "booking_id", e.BookingID, "topic", p.topic, "error", err)
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	logger.Info("closing kafka event publisher", "topic", p.topic)
	return p.writer.Close()
}

func buildMessage(e Event) (kafka.Message, error) {
	data, err := encode(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.Itoa(e.BookingID)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
		Time: e.OccurredAt,
	}, nil
}
