// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums

type UserRole string

const (
	UserRoleArchitect UserRole = "architect"
	UserRoleBuyer     UserRole = "buyer"
	UserRoleAdmin     UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type DesignStatus string

const (
	DesignStatusDraft     DesignStatus = "draft"
	DesignStatusSubmitted DesignStatus = "submitted"
	DesignStatusApproved  DesignStatus = "approved"
	DesignStatusRejected  DesignStatus = "rejected"
	DesignStatusPublished DesignStatus = "published"
)

type LicenseType string

const (
	LicenseTypeStandard  LicenseType = "standard"
	LicenseTypeExclusive LicenseType = "exclusive"
)

type LicenseStatus string

const (
	LicenseStatusActive  LicenseStatus = "active"
	LicenseStatusRevoked LicenseStatus = "revoked"
)

type FileType string

const (
	FileTypeMainPackage  FileType = "main_package"
	FileTypePreviewImage FileType = "preview_image"
	FileTypeCAD          FileType = "cad_file"
	FileTypeBIM          FileType = "bim_file"
	FileTypeOther        FileType = "other"
)

type PaymentType string

const (
	PaymentTypeDesignPurchase      PaymentType = "design_purchase"
	PaymentTypeModificationPayment PaymentType = "modification_payment"
)

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusPaid     TransactionStatus = "paid"
	TransactionStatusFailed   TransactionStatus = "failed"
	TransactionStatusRefunded TransactionStatus = "refunded"
)

type EarningStatus string

const (
	EarningStatusPending EarningStatus = "pending"
	EarningStatusPayable EarningStatus = "payable"
	EarningStatusPaid    EarningStatus = "paid"
)

type ReviewStatus string

const (
	ReviewStatusPublished ReviewStatus = "published"
	ReviewStatusDeleted   ReviewStatus = "deleted"
)

type ModificationStatus string

const (
	ModificationStatusRequested      ModificationStatus = "requested"
	ModificationStatusQuoted         ModificationStatus = "quoted"
	ModificationStatusPendingPayment ModificationStatus = "pending_payment"
	ModificationStatusCompleted      ModificationStatus = "completed"
	ModificationStatusDeclined       ModificationStatus = "declined"
)

type ConversationReason string

const (
	ConversationReasonExclusiveLicense ConversationReason = "exclusive_license"
	ConversationReasonPaidModification ConversationReason = "paid_modification"
)
