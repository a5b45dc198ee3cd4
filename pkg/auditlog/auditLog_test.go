package auditlog

import (
	"context"
	"errors"
	"testing"

	"evinventory/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) PersistLog(ctx context.Context, auditLog models.AuditLog, data interface{}) error {
	args := m.Called(ctx, auditLog, data)
	return args.Error(0)
}

func TestLog_FillsActionAndUser(t *testing.T) {
	store := new(MockStore)
	userID := uuid.New()
	request := &models.StockTransferRequest{ID: uuid.New()}
	data := map[string]interface{}{"status": "APPROVED"}

	store.On("PersistLog", mock.Anything, models.AuditLog{
		ResourceID:   request.ID,
		ResourceType: "stock_transfer_request",
		Action:       "approved",
		UserID:       &userID,
	}, data).Return(nil)

	err := NewAuditLog(store, zap.NewNop()).Log(context.Background(), "approved", &userID, data, request)

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestLog_ReturnsStoreFailure(t *testing.T) {
	store := new(MockStore)
	store.On("PersistLog", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := NewAuditLog(store, zap.NewNop()).Log(context.Background(), "adjusted_in", nil, nil, &models.StockAdjustment{ID: uuid.New()})

	assert.EqualError(t, err, "db down")
}
