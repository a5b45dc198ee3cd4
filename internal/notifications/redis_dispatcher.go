package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisChannelPrefix = "notifications:"

// RedisDispatcher publishes each envelope on a pub/sub channel per room.
type RedisDispatcher struct {
	client *redis.Client
	logger *zap.Logger
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisDispatcher(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisDispatcher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        10,
		MinIdleConns:    2,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("Redis notification dispatcher connected", zap.String("addr", cfg.Addr))
	return &RedisDispatcher{client: client, logger: logger}, nil
}

func RoomChannel(room string) string {
	return redisChannelPrefix + room
}

func (d *RedisDispatcher) SendToRoom(ctx context.Context, room, event string, payload interface{}) error {
	body, err := json.Marshal(newEnvelope(room, event, payload))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	receivers, err := d.client.Publish(ctx, RoomChannel(room), body).Result()
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	d.logger.Debug("Notification published to Redis",
		zap.String("room", room),
		zap.String("event", event),
		zap.Int64("receivers", receivers),
	)
	return nil
}

func (d *RedisDispatcher) SendToRooms(ctx context.Context, rooms []string, event string, payload interface{}) error {
	return sendEach(rooms, func(room string) error {
		return d.SendToRoom(ctx, room, event, payload)
	})
}

func (d *RedisDispatcher) Close() error {
	return d.client.Close()
}
