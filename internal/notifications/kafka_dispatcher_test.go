package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKafkaDispatcher_SendToRoom(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	room := ServiceCenterRoom(uuid.New())

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "inventory.notifications", msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, room, string(key))

		body, err := msg.Value.Encode()
		require.NoError(t, err)
		var envelope map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &envelope))
		assert.Equal(t, EventLowStockAlert, envelope["event"])
		assert.Equal(t, room, envelope["room"])

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[string(h.Key)] = string(h.Value)
		}
		assert.Equal(t, EventLowStockAlert, headers["event-type"])
		assert.NotEmpty(t, headers["event-id"])
		return nil
	})

	d := NewKafkaDispatcherWithProducer(producer, "inventory.notifications", zap.NewNop())
	err := d.SendToRoom(context.Background(), room, EventLowStockAlert, map[string]int{"count": 1})

	assert.NoError(t, err)
	assert.NoError(t, d.Close())
}

func TestKafkaDispatcher_SendToRoomsJoinsFailures(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	d := NewKafkaDispatcherWithProducer(producer, "topic", zap.NewNop())
	err := d.SendToRooms(context.Background(), []string{"a", "b"}, EventTransferShipped, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "room b")
	assert.NotContains(t, err.Error(), "room a")
	assert.NoError(t, d.Close())
}
