// internal/services/identity.go
package services

import (
	"github.com/google/uuid"

	"github.com/planmarket/planmarket-backend/internal/models"
)

// Identity carries the authenticated caller into the service layer so that
// ownership and role checks happen next to the state they protect, not in
// the transport layer.
type Identity struct {
	UserID uuid.UUID
	Role   models.UserRole
}

func (id Identity) IsAdmin() bool {
	return id.Role == models.UserRoleAdmin
}

func (id Identity) IsArchitect() bool {
	return id.Role == models.UserRoleArchitect
}
