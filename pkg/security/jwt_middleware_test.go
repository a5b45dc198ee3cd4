package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"evinventory/pkg/models"
	"evinventory/pkg/roles"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(j *JWT, allowed ...roles.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", j.JWTMiddleware(), Authorize(allowed...), func(c *gin.Context) {
		identity, _ := IdentityFromContext(c)
		c.JSON(http.StatusOK, identity)
	})
	return router
}

func TestJWT_RoundTrip(t *testing.T) {
	j := NewJWT("secret")
	scID := uuid.New()
	identity := models.Identity{UserID: uuid.New(), RoleName: "service_center_manager", ServiceCenterID: &scID}

	token, err := j.GenerateJWT(identity, time.Hour)
	require.NoError(t, err)

	parsed, err := j.ParseIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, identity, parsed)
}

func TestJWTMiddleware(t *testing.T) {
	j := NewJWT("secret")
	router := newRouter(j, roles.ServiceCenterManager)

	manager, err := j.GenerateJWT(models.Identity{UserID: uuid.New(), RoleName: "service_center_manager"}, time.Hour)
	require.NoError(t, err)
	technician, err := j.GenerateJWT(models.Identity{UserID: uuid.New(), RoleName: "service_center_technician"}, time.Hour)
	require.NoError(t, err)
	foreign, err := NewJWT("other").GenerateJWT(models.Identity{UserID: uuid.New(), RoleName: "admin"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"insufficient role", "Bearer " + technician, http.StatusForbidden},
		{"allowed role", "Bearer " + manager, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
