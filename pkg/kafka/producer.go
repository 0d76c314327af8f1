package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/aster/pkg/metrics"
	"github.com/Ramsey-B/aster/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// PersonEvent represents an event about a person record
type PersonEvent struct {
	EventType  string          `json:"event_type"` // created, updated, deleted, merged
	DossierID  string          `json:"dossier_id"`
	PersonID   string          `json:"person_id"`
	Data       json.RawMessage `json:"data,omitempty"`
	MergedFrom []string        `json:"merged_from,omitempty"`
	Actor      string          `json:"actor,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// RelationshipEvent represents an event about a relationship between persons
type RelationshipEvent struct {
	EventType        string          `json:"event_type"` // created, updated, deleted
	DossierID        string          `json:"dossier_id"`
	RelationshipID   string          `json:"relationship_id"`
	RelationshipType string          `json:"relationship_type"`
	PersonAID        string          `json:"person_a_id"`
	PersonBID        string          `json:"person_b_id"`
	Properties       json.RawMessage `json:"properties,omitempty"`
	Actor            string          `json:"actor,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

// PublishPersonEvent publishes a person event to Kafka
func (p *Producer) PublishPersonEvent(ctx context.Context, event *PersonEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishPersonEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.PersonID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "dossier_id", Value: []byte(event.DossierID)},
			{Key: "schema_version", Value: []byte("1.0")},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.KafkaMessagesPublished.WithLabelValues(event.EventType, "error").Inc()
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish person event")
		return err
	}
	metrics.KafkaMessagesPublished.WithLabelValues(event.EventType, "success").Inc()

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"person_id":  event.PersonID,
		"dossier_id": event.DossierID,
	}).Debug("Published person event")

	return nil
}

// PublishRelationshipEvent publishes a relationship event to Kafka
func (p *Producer) PublishRelationshipEvent(ctx context.Context, event *RelationshipEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishRelationshipEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.RelationshipID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "dossier_id", Value: []byte(event.DossierID)},
			{Key: "relationship_type", Value: []byte(event.RelationshipType)},
			{Key: "schema_version", Value: []byte("1.0")},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.KafkaMessagesPublished.WithLabelValues(event.EventType, "error").Inc()
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish relationship event")
		return err
	}
	metrics.KafkaMessagesPublished.WithLabelValues(event.EventType, "success").Inc()

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":        event.EventType,
		"relationship_id":   event.RelationshipID,
		"relationship_type": event.RelationshipType,
	}).Debug("Published relationship event")

	return nil
}
