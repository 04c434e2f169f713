package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"

	"github.com/segmentio/kafka-go"
)

// Producer streams booking lifecycle events, one writer per topic.
type Producer struct {
	created   *kafka.Writer
	confirmed *kafka.Writer
	cancelled *kafka.Writer
	logger    *logger.Logger
}

type Topics struct {
	BookingCreated   string
	BookingConfirmed string
	BookingCancelled string
}

func NewProducer(brokers []string, topics Topics, log *logger.Logger) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   topic,
		})
	}
	return &Producer{
		created:   newWriter(topics.BookingCreated),
		confirmed: newWriter(topics.BookingConfirmed),
		cancelled: newWriter(topics.BookingCancelled),
		logger:    log,
	}
}

func (p *Producer) publish(w *kafka.Writer, booking models.Booking) error {
	msgBytes, err := json.Marshal(booking)
	if err != nil {
		return err
	}

	p.logger.LogKafka("PUBLISH", w.Topic, fmt.Sprintf("booking=%s status=%s", booking.ID, booking.Status))

	return w.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(booking.ID),
			Value: msgBytes,
		},
	)
}

// PublishBookingCreated streams the booking creation event to Kafka
func (p *Producer) PublishBookingCreated(booking models.Booking) error {
	return p.publish(p.created, booking)
}

// PublishBookingConfirmed streams the booking confirmation event to Kafka
func (p *Producer) PublishBookingConfirmed(booking models.Booking) error {
	return p.publish(p.confirmed, booking)
}

// PublishBookingCancelled streams the booking cancellation event to Kafka
func (p *Producer) PublishBookingCancelled(booking models.Booking) error {
	return p.publish(p.cancelled, booking)
}

// Close flushes and closes all writers.
func (p *Producer) Close() error {
	var firstErr error
	for _, w := range []*kafka.Writer{p.created, p.confirmed, p.cancelled} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
