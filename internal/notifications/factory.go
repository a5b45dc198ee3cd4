package notifications

import (
	"context"
	"fmt"
	"io"

	"evinventory/internal/config"

	"go.uber.org/zap"
)

// New builds the dispatcher selected by cfg.NotifyBackend. The returned
// closer releases the backend connection.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Dispatcher, io.Closer, error) {
	switch cfg.NotifyBackend {
	case "kafka":
		d, err := NewKafkaDispatcher(KafkaConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopicNotifications,
			ClientID: cfg.KafkaClientID,
			Retries:  cfg.KafkaRetries,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return d, d, nil
	case "redis":
		d, err := NewRedisDispatcher(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return d, d, nil
	case "log", "":
		return NewLogDispatcher(logger), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown notification backend %q", cfg.NotifyBackend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
