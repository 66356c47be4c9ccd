// internal/models/review.go
package models

import (
	"github.com/google/uuid"
)

// Review is a buyer's rating of a purchased design, soft-deleted rather than
// removed. Design.AverageRating / Design.ReviewCount are recomputed in the
// same database transaction as every review write.
type Review struct {
	BaseModel
	DesignID uuid.UUID    `json:"design_id" gorm:"type:uuid;not null;index"`
	BuyerID  uuid.UUID    `json:"buyer_id" gorm:"type:uuid;not null;index"`
	Rating   int          `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment  string       `json:"comment" gorm:"type:text"`
	Status   ReviewStatus `json:"status" gorm:"type:varchar(20);default:'published';index"`

	// Relationships
	Design Design `json:"design,omitempty" gorm:"foreignKey:DesignID"`
	Buyer  User   `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
}
