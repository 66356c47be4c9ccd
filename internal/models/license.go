// internal/models/license.go
package models

import (
	"github.com/google/uuid"
)

// License grants a buyer access rights to a design's files. The invariants
// (one active license per buyer+design, at most one active exclusive license
// per design) are enforced by unique indexes created in the database package,
// not only by the pre-checks in the purchase service.
type License struct {
	BaseModel
	BuyerID       uuid.UUID     `json:"buyer_id" gorm:"type:uuid;not null;index"`
	DesignID      uuid.UUID     `json:"design_id" gorm:"type:uuid;not null;index"`
	TransactionID uuid.UUID     `json:"transaction_id" gorm:"type:uuid;not null;index"`
	LicenseType   LicenseType   `json:"license_type" gorm:"type:varchar(20);not null"`
	Status        LicenseStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`

	// Relationships
	Buyer       User        `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Design      Design      `json:"design,omitempty" gorm:"foreignKey:DesignID"`
	Transaction Transaction `json:"transaction,omitempty" gorm:"foreignKey:TransactionID"`
}

func (l *License) Active() bool {
	return l.Status == LicenseStatusActive
}
