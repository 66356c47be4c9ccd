// internal/handlers/common.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/services"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

// identityFromContext resolves the authenticated caller set by the auth
// middleware into the identity the service layer works with.
func identityFromContext(c *gin.Context) (services.Identity, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return services.Identity{}, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return services.Identity{}, false
	}

	role, _ := utils.GetUserRoleFromContext(c)
	return services.Identity{UserID: userID, Role: models.UserRole(role)}, true
}

// optionalIdentity is identityFromContext for endpoints that also serve
// anonymous callers.
func optionalIdentity(c *gin.Context) *services.Identity {
	if id, ok := identityFromContext(c); ok {
		return &id
	}
	return nil
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
