// internal/models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is the durable purchase-intent record. Exactly one row exists
// per provider checkout session; amounts are minor currency units and are
// immutable once the row reaches paid.
type Transaction struct {
	BaseModel
	BuyerID            uuid.UUID         `json:"buyer_id" gorm:"type:uuid;not null;index"`
	DesignID           *uuid.UUID        `json:"design_id" gorm:"type:uuid;index"`
	ModificationID     *uuid.UUID        `json:"modification_id" gorm:"type:uuid;index"`
	PaymentType        PaymentType       `json:"payment_type" gorm:"type:varchar(30);not null;index"`
	CheckoutSessionID  string            `json:"checkout_session_id" gorm:"size:255;not null;uniqueIndex"`
	PaymentReference   string            `json:"payment_reference" gorm:"size:255"`
	AmountCents        int64             `json:"amount_cents" gorm:"not null"`
	PlatformFeeCents   int64             `json:"platform_fee_cents" gorm:"not null"`
	ArchitectShareCents int64            `json:"architect_share_cents" gorm:"not null"`
	Currency           string            `json:"currency" gorm:"size:3;not null"`
	LicenseType        LicenseType       `json:"license_type" gorm:"type:varchar(20)"`
	Status             TransactionStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaidAt             *time.Time        `json:"paid_at"`
	FailureNote        string            `json:"failure_note,omitempty" gorm:"type:text"`

	// Relationships
	Buyer        User                 `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Design       *Design              `json:"design,omitempty" gorm:"foreignKey:DesignID"`
	Modification *ModificationRequest `json:"modification,omitempty" gorm:"foreignKey:ModificationID"`
}

// ArchitectEarning is the architect's share of a paid transaction. Rows are
// created by settlement and flipped to paid by the payout workflow.
type ArchitectEarning struct {
	BaseModel
	ArchitectID   uuid.UUID     `json:"architect_id" gorm:"type:uuid;not null;index"`
	TransactionID uuid.UUID     `json:"transaction_id" gorm:"type:uuid;not null;uniqueIndex"`
	AmountCents   int64         `json:"amount_cents" gorm:"not null"`
	Currency      string        `json:"currency" gorm:"size:3;not null"`
	Status        EarningStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaidAt        *time.Time    `json:"paid_at"`

	Architect   User        `json:"architect,omitempty" gorm:"foreignKey:ArchitectID"`
	Transaction Transaction `json:"transaction,omitempty" gorm:"foreignKey:TransactionID"`
}

// ContactUnlock permits direct buyer-architect contact for one design,
// granted by an exclusive license or a completed paid modification.
type ContactUnlock struct {
	BaseModel
	DesignID uuid.UUID `json:"design_id" gorm:"type:uuid;not null;uniqueIndex:idx_contact_unlocks_design_buyer"`
	BuyerID  uuid.UUID `json:"buyer_id" gorm:"type:uuid;not null;uniqueIndex:idx_contact_unlocks_design_buyer"`
	Source   string    `json:"source" gorm:"size:30;not null"`
}
