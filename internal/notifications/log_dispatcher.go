package notifications

import (
	"context"

	"go.uber.org/zap"
)

// LogDispatcher writes every event to the log instead of delivering it.
type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendToRoom(_ context.Context, room, event string, payload interface{}) error {
	envelope := newEnvelope(room, event, payload)
	d.logger.Info("Notification",
		zap.String("event_id", envelope.ID.String()),
		zap.String("room", room),
		zap.String("event", event),
		zap.Any("payload", payload),
	)
	return nil
}

func (d *LogDispatcher) SendToRooms(ctx context.Context, rooms []string, event string, payload interface{}) error {
	return sendEach(rooms, func(room string) error {
		return d.SendToRoom(ctx, room, event, payload)
	})
}
