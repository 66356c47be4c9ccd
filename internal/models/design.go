// internal/models/design.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Design is a sellable architectural work. Status transitions are owned by
// the lifecycle service; nothing else mutates Status.
type Design struct {
	BaseModel
	ArchitectID     uuid.UUID       `json:"architect_id" gorm:"type:uuid;not null;index"`
	Title           string          `json:"title" gorm:"size:255;not null"`
	Slug            string          `json:"slug" gorm:"uniqueIndex;size:280;not null"`
	Summary         string          `json:"summary" gorm:"size:500"`
	Description     string          `json:"description" gorm:"type:text"`
	Category        string          `json:"category" gorm:"size:100;index"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	Currency        string          `json:"currency" gorm:"size:3;default:'usd'"`
	LicenseType     LicenseType     `json:"license_type" gorm:"type:varchar(20);not null;default:'standard'"`
	Status          DesignStatus    `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	Tags            pq.StringArray  `json:"tags" gorm:"type:text[]"`
	RejectionReason *string         `json:"rejection_reason,omitempty" gorm:"type:text"`
	// AdminNotes are moderation-internal and must never be serialized to
	// architect-facing responses.
	AdminNotes           *string    `json:"-" gorm:"type:text"`
	DisclaimerAcceptedAt *time.Time `json:"disclaimer_accepted_at"`
	SubmittedAt          *time.Time `json:"submitted_at"`
	ApprovedAt           *time.Time `json:"approved_at"`
	PublishedAt          *time.Time `json:"published_at"`
	AverageRating        float64    `json:"average_rating" gorm:"type:decimal(3,2);default:0"`
	ReviewCount          int64      `json:"review_count" gorm:"default:0"`
	ViewCount            int64      `json:"view_count" gorm:"default:0"`

	// Relationships
	Architect User         `json:"architect,omitempty" gorm:"foreignKey:ArchitectID"`
	Files     []DesignFile `json:"files,omitempty" gorm:"foreignKey:DesignID"`
	Licenses  []License    `json:"licenses,omitempty" gorm:"foreignKey:DesignID"`
}

// Editable reports whether the architect may mutate or delete the design.
func (d *Design) Editable() bool {
	return d.Status == DesignStatusDraft || d.Status == DesignStatusRejected
}

// Purchasable reports whether the design's status admits new purchases.
func (d *Design) Purchasable() bool {
	return d.Status == DesignStatusApproved || d.Status == DesignStatusPublished
}

type DesignFile struct {
	BaseModel
	DesignID        uuid.UUID `json:"design_id" gorm:"type:uuid;not null;index"`
	FileType        FileType  `json:"file_type" gorm:"type:varchar(20);not null;index"`
	StorageKey      string    `json:"storage_key" gorm:"size:512;not null"`
	OriginalName    string    `json:"original_name" gorm:"size:255;not null"`
	Size            int64     `json:"size" gorm:"not null"`
	MimeType        string    `json:"mime_type" gorm:"size:100"`
	IsPublicPreview bool      `json:"is_public_preview" gorm:"default:false"`

	Design Design `json:"-" gorm:"foreignKey:DesignID"`
}
