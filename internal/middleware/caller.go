package middleware

import (
	"evinventory/internal/inventory/scope"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"
	"evinventory/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Caller returns the authenticated identity and the read scope it implies.
func Caller(c *gin.Context) (models.Identity, scope.Resolver, error) {
	identity, ok := security.IdentityFromContext(c)
	if !ok {
		return models.Identity{}, nil, custom_error.NewForbidden("missing caller identity")
	}
	resolver, err := scope.ForIdentity(identity)
	if err != nil {
		return identity, nil, err
	}
	return identity, resolver, nil
}

// UUIDParam parses a path parameter as a uuid.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, custom_error.NewBadRequest(name, "invalid %s: %q", name, c.Param(name))
	}
	return id, nil
}
