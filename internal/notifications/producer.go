package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"tourbase/internal/bookings"
	"tourbase/pkg/logger"
)

// BookingEvent is the payload delivered to downstream consumers (email,
// voucher generation, analytics). This engine emits it; delivery is someone
// else's job.
type BookingEvent struct {
	Type          string    `json:"type"`
	BookingID     int64     `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProductID     int64     `json:"product_id"`
	CustomerID    int64     `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	BookingDate   string    `json:"booking_date"`
	BookingTime   string    `json:"booking_time"`
	Participants  int       `json:"participants"`
	Status        string    `json:"status"`
	TotalAmount   float64   `json:"total_amount"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ProducerConfig contains configuration for the Kafka booking event producer
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	RetryMax     int
	Timeout      time.Duration
	RequiredAcks sarama.RequiredAcks
}

func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "booking-events",
		RetryMax:     3,
		Timeout:      10 * time.Second,
		RequiredAcks: sarama.WaitForAll,
	}
}

// Producer publishes booking lifecycle events to Kafka. Implements
// bookings.EventPublisher.
type Producer struct {
	producer sarama.SyncProducer
	config   *ProducerConfig
	log      *logger.Logger
}

func NewProducer(config *ProducerConfig, log *logger.Logger) (*Producer, error) {
	if config == nil {
		config = DefaultProducerConfig()
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = config.Timeout
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Hash partitioner keeps events for one product in order
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info("Kafka booking event producer created", "topic", config.Topic)
	return &Producer{
		producer: producer,
		config:   config,
		log:      log,
	}, nil
}

func (p *Producer) PublishBookingEvent(ctx context.Context, eventType string, booking *bookings.Booking) error {
	event := BookingEvent{
		Type:          eventType,
		BookingID:     booking.ID,
		BookingNumber: booking.BookingNumber,
		ProductID:     booking.ProductID,
		CustomerID:    booking.CustomerID,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		BookingDate:   booking.BookingDate,
		BookingTime:   booking.BookingTime,
		Participants:  booking.Participants,
		Status:        booking.Status,
		TotalAmount:   booking.TotalAmount,
		Currency:      booking.Currency,
		OccurredAt:    time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.config.Topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(booking.ProductID, 10)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(eventType)},
			{Key: []byte("booking_number"), Value: []byte(booking.BookingNumber)},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send booking event: %w", err)
	}

	p.log.Info("Booking event published",
		"event_type", eventType,
		"booking_id", booking.ID,
		"partition", partition,
		"offset", offset)
	return nil
}

func (p *Producer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}

// NoopPublisher drops events when Kafka is disabled by configuration.
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingEvent(ctx context.Context, eventType string, booking *bookings.Booking) error {
	return nil
}
