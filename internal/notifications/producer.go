package notifications

import (
	"context"
	"fmt"
	"time"

	"ticketly/pkg/logger"

	"github.com/IBM/sarama"
)

// KafkaProducerConfig contains configuration for the lifecycle event producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "ticket-events",
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// KafkaLifecyclePublisher publishes ticket lifecycle events to Kafka. It is
// strictly best-effort: a broker failure is logged, never surfaced, because
// a reservation must not fail over a missed notification.
type KafkaLifecyclePublisher struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	log      *logger.Logger
	clock    func() time.Time
}

// NewKafkaLifecyclePublisher creates a new lifecycle event publisher
func NewKafkaLifecyclePublisher(config *KafkaProducerConfig) (*KafkaLifecyclePublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaLifecyclePublisher{
		producer: producer,
		config:   config,
		log:      logger.GetDefault(),
		clock:    time.Now,
	}, nil
}

// newPublisherWithProducer is the seam tests use to inject a mock producer
func newPublisherWithProducer(producer sarama.SyncProducer, config *KafkaProducerConfig) *KafkaLifecyclePublisher {
	return &KafkaLifecyclePublisher{
		producer: producer,
		config:   config,
		log:      logger.GetDefault(),
		clock:    time.Now,
	}
}

func (p *KafkaLifecyclePublisher) publish(ctx context.Context, event *LifecycleEvent) {
	payload, err := event.ToJSON()
	if err != nil {
		p.log.ErrorWithContext(ctx, "failed to marshal lifecycle event", err, map[string]interface{}{
			"ticket_id": event.TicketID,
			"type":      string(event.Type),
		})
		return
	}

	message := &sarama.ProducerMessage{
		Topic: p.config.Topic,
		Key:   sarama.StringEncoder(event.PartitionKey()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("ticket_id"), Value: []byte(event.TicketID)},
			{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.log.ErrorWithContext(ctx, "failed to publish lifecycle event", err, map[string]interface{}{
			"ticket_id": event.TicketID,
			"type":      string(event.Type),
		})
		return
	}

	p.log.InfoWithContext(ctx, "lifecycle event published", map[string]interface{}{
		"type":      string(event.Type),
		"ticket_id": event.TicketID,
		"partition": partition,
		"offset":    offset,
	})
}

// TicketReserved publishes a reservation event
func (p *KafkaLifecyclePublisher) TicketReserved(ctx context.Context, ticketID, eventID, holder string) {
	p.publish(ctx, &LifecycleEvent{
		Type:       EventTicketReserved,
		TicketID:   ticketID,
		EventID:    eventID,
		Holder:     holder,
		OccurredAt: p.clock(),
	})
}

// TicketReleased publishes a lease expiry release event
func (p *KafkaLifecyclePublisher) TicketReleased(ctx context.Context, ticketID, eventID string) {
	p.publish(ctx, &LifecycleEvent{
		Type:       EventTicketReleased,
		TicketID:   ticketID,
		EventID:    eventID,
		OccurredAt: p.clock(),
	})
}

// TicketSold publishes a payment confirmation event
func (p *KafkaLifecyclePublisher) TicketSold(ctx context.Context, ticketID, eventID, holder string) {
	p.publish(ctx, &LifecycleEvent{
		Type:       EventTicketSold,
		TicketID:   ticketID,
		EventID:    eventID,
		Holder:     holder,
		OccurredAt: p.clock(),
	})
}

// TicketRedeemed publishes a gate redemption event
func (p *KafkaLifecyclePublisher) TicketRedeemed(ctx context.Context, ticketID, eventID, holder string) {
	p.publish(ctx, &LifecycleEvent{
		Type:       EventTicketRedeemed,
		TicketID:   ticketID,
		EventID:    eventID,
		Holder:     holder,
		OccurredAt: p.clock(),
	})
}

// Close closes the underlying Kafka producer
func (p *KafkaLifecyclePublisher) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}
