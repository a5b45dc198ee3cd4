package rate_limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"evinventory/pkg/models"
	"evinventory/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.IsAllowed("u"))
	assert.True(t, rl.IsAllowed("u"))
	assert.False(t, rl.IsAllowed("u"))
	assert.Equal(t, 0, rl.GetRemainingRequests("u"))
	assert.True(t, rl.IsAllowed("other"))

	now = now.Add(61 * time.Second)
	assert.Equal(t, 2, rl.GetRemainingRequests("u"))
	assert.True(t, rl.IsAllowed("u"))

	rl.cleanup()
	assert.Len(t, rl.requests, 1)
}

func TestWriteLimit_OnlyThrottlesWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, time.Minute)
	identity := models.Identity{UserID: uuid.New(), RoleName: "admin"}

	router := gin.New()
	router.Use(func(c *gin.Context) { security.SetIdentity(c, identity) }, rl.WriteLimit())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for _, method := range []string{http.MethodPost, http.MethodPost, http.MethodGet} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, "/x", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusOK}, codes)
}
