// internal/models/modification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ModificationRequest is a buyer's paid request for design changes. Payment
// runs through the same checkout/settlement machinery as purchases, with
// payment_type=modification_payment; settlement flips the request to
// completed instead of creating a license.
type ModificationRequest struct {
	BaseModel
	BuyerID     uuid.UUID          `json:"buyer_id" gorm:"type:uuid;not null;index"`
	ArchitectID uuid.UUID          `json:"architect_id" gorm:"type:uuid;not null;index"`
	DesignID    uuid.UUID          `json:"design_id" gorm:"type:uuid;not null;index"`
	Description string             `json:"description" gorm:"type:text;not null"`
	QuoteCents  int64              `json:"quote_cents" gorm:"default:0"`
	Currency    string             `json:"currency" gorm:"size:3;default:'usd'"`
	Status      ModificationStatus `json:"status" gorm:"type:varchar(20);default:'requested';index"`
	CompletedAt *time.Time         `json:"completed_at"`

	// Relationships
	Buyer     User   `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Architect User   `json:"architect,omitempty" gorm:"foreignKey:ArchitectID"`
	Design    Design `json:"design,omitempty" gorm:"foreignKey:DesignID"`
}
