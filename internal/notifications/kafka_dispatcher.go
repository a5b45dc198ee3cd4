package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaDispatcher publishes envelopes to a single topic keyed by room, so all
// events of one room keep their order within a partition.
type KafkaDispatcher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
	Retries  int
}

func NewKafkaDispatcher(cfg KafkaConfig, logger *zap.Logger) (*KafkaDispatcher, error) {
	config := sarama.NewConfig()
	config.ClientID = cfg.ClientID
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = cfg.Retries
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return NewKafkaDispatcherWithProducer(producer, cfg.Topic, logger), nil
}

func NewKafkaDispatcherWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

func (d *KafkaDispatcher) SendToRoom(ctx context.Context, room, event string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	envelope := newEnvelope(room, event, payload)
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(room),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event)},
			{Key: []byte("event-id"), Value: []byte(envelope.ID.String())},
			{Key: []byte("timestamp"), Value: []byte(envelope.CreatedAt.Format(time.RFC3339))},
		},
	}

	partition, offset, err := d.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	d.logger.Debug("Notification published to Kafka",
		zap.String("topic", d.topic),
		zap.String("room", room),
		zap.String("event", event),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (d *KafkaDispatcher) SendToRooms(ctx context.Context, rooms []string, event string, payload interface{}) error {
	return sendEach(rooms, func(room string) error {
		return d.SendToRoom(ctx, room, event, payload)
	})
}

func (d *KafkaDispatcher) Close() error {
	return d.producer.Close()
}
