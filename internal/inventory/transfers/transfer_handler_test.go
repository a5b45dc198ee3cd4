package transfers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"evinventory/pkg/models"
	"evinventory/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(f *fixture, identity models.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api", func(c *gin.Context) {
		security.SetIdentity(c, identity)
		c.Next()
	})
	NewTransferHandler(f.service, zap.NewNop()).RegisterRoutes(api)
	return router
}

func TestTransferHandler_CreateAndApprove(t *testing.T) {
	f := newFixture(t)
	f.store.AddStock(f.centralA.ID, f.typeID, 2, 0, 0)

	body, err := json.Marshal(gin.H{
		"request_type":            models.RequestTypeWarehouseRestock,
		"requesting_warehouse_id": f.shop.ID,
		"items":                   []gin.H{{"type_component_id": f.typeID, "quantity": 2}},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/stock-transfer-requests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newRouter(f, f.manager).ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.StockTransferRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.TransferPendingApproval, created.Status)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPatch, "/api/stock-transfer-requests/"+created.ID.String()+"/approve", nil)
	newRouter(f, f.manager).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPatch, "/api/stock-transfer-requests/"+created.ID.String()+"/approve", nil)
	newRouter(f, f.coordinator).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.TransferApproved, f.store.Request(created.ID).Status)
}

func TestTransferHandler_ApproveConflictCarriesContext(t *testing.T) {
	f := newFixture(t)
	f.store.AddStock(f.centralA.ID, f.typeID, 1, 0, 0)
	request := f.restock(t, 3)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPatch, "/api/stock-transfer-requests/"+request.ID.String()+"/approve", nil)
	newRouter(f, f.coordinator).ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	var response struct {
		Error   string                 `json:"error"`
		Context map[string]interface{} `json:"context"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(3), response.Context["requested"])
	assert.Equal(t, float64(1), response.Context["available"])
}

func TestTransferHandler_Reads(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f, f.manager)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/stock-transfer-requests/"+uuid.New().String(), nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/stock-transfer-requests/not-a-uuid", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/stock-transfer-requests?status=LOST", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.restock(t, 1)
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/stock-transfer-requests?status=PENDING_APPROVAL", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var page models.Page[models.StockTransferRequest]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
}
