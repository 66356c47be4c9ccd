// internal/models/message.go
package models

import (
	"github.com/google/uuid"
)

// Conversation is a buyer-architect thread about one design. Reason and
// RelatedID record the license or modification request that authorized it;
// AllowDirectContact is fixed at creation time and drives message redaction.
type Conversation struct {
	BaseModel
	BuyerID            uuid.UUID          `json:"buyer_id" gorm:"type:uuid;not null;index"`
	ArchitectID        uuid.UUID          `json:"architect_id" gorm:"type:uuid;not null;index"`
	DesignID           uuid.UUID          `json:"design_id" gorm:"type:uuid;not null;index"`
	Reason             ConversationReason `json:"reason" gorm:"type:varchar(30);not null"`
	RelatedID          uuid.UUID          `json:"related_id" gorm:"type:uuid;not null"`
	AllowDirectContact bool               `json:"allow_direct_contact" gorm:"default:false"`

	// Relationships
	Buyer     User      `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Architect User      `json:"architect,omitempty" gorm:"foreignKey:ArchitectID"`
	Design    Design    `json:"design,omitempty" gorm:"foreignKey:DesignID"`
	Messages  []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

// Message content is stored post-redaction; redaction happens once at write
// time so the persisted record is already safe to read.
type Message struct {
	BaseModel
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;index"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Redacted       bool      `json:"redacted" gorm:"default:false"`

	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID"`
	Sender       User         `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}
