package security

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"evinventory/pkg/models"
	"evinventory/pkg/roles"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const identityKey = "identity"

type Claims struct {
	UserID          string `json:"userID"`
	Role            string `json:"role"`
	ServiceCenterID string `json:"serviceCenterID,omitempty"`
	CompanyID       string `json:"companyID,omitempty"`
	jwt.RegisteredClaims
}

type JWT struct {
	secret []byte
}

func NewJWT(secret string) *JWT {
	return &JWT{secret: []byte(secret)}
}

func (j *JWT) GenerateJWT(identity models.Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: identity.UserID.String(),
		Role:   identity.RoleName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if identity.ServiceCenterID != nil {
		claims.ServiceCenterID = identity.ServiceCenterID.String()
	}
	if identity.CompanyID != nil {
		claims.CompanyID = identity.CompanyID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ParseIdentity validates the token and turns its claims into an Identity.
func (j *JWT) ParseIdentity(tokenString string) (models.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil {
		return models.Identity{}, err
	}
	if !token.Valid {
		return models.Identity{}, errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("invalid userID claim: %w", err)
	}
	identity := models.Identity{UserID: userID, RoleName: claims.Role}

	if identity.ServiceCenterID, err = optionalUUID(claims.ServiceCenterID); err != nil {
		return models.Identity{}, fmt.Errorf("invalid serviceCenterID claim: %w", err)
	}
	if identity.CompanyID, err = optionalUUID(claims.CompanyID); err != nil {
		return models.Identity{}, fmt.Errorf("invalid companyID claim: %w", err)
	}
	return identity, nil
}

func optionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// JWTMiddleware validates the bearer token and stores the caller identity.
func (j *JWT) JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}

		identity, err := j.ParseIdentity(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// Authorize lets the request through when the caller holds one of allowed.
func Authorize(allowed ...roles.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok || !roles.Role(identity.RoleName).HasAny(allowed...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient permissions"})
			return
		}
		c.Next()
	}
}

func IdentityFromContext(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}

// SetIdentity is used by tests and internal callers that bypass the token.
func SetIdentity(c *gin.Context, identity models.Identity) {
	c.Set(identityKey, identity)
}
