package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("NOTIFY_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REQUEST_TIMEOUT", "2s")

	cfg := Load()

	assert.Equal(t, "kafka", cfg.NotifyBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestLoad_FallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	t.Setenv("SIDE_EFFECT_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 10*time.Second, cfg.SideEffectTimeout)
}
