// internal/services/messaging_service.go
package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

// MessagingService gates buyer-architect contact. A conversation exists only
// on the strength of an active license or a completed paid modification, and
// its AllowDirectContact flag, fixed at creation, decides whether message
// content is redacted on write.
type MessagingService struct {
	db *gorm.DB
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

func NewMessagingService(db *gorm.DB) *MessagingService {
	return &MessagingService{db: db}
}

// entitlement is what authorizes a buyer to open a conversation.
type entitlement struct {
	reason        models.ConversationReason
	relatedID     uuid.UUID
	directContact bool
}

// OpenConversation opens (or returns the existing) thread between the buyer
// and the design's architect. Reopening is idempotent; an existing thread
// keeps its original direct-contact setting even if entitlements changed
// since.
func (s *MessagingService) OpenConversation(buyer Identity, designID uuid.UUID) (*models.Conversation, error) {
	var design models.Design
	if err := s.db.First(&design, "id = ?", designID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("design")
		}
		return nil, apperrors.Internal("failed to load design", err)
	}

	if design.ArchitectID == buyer.UserID {
		return nil, apperrors.Validation("architects cannot open conversations about their own designs")
	}

	var existing models.Conversation
	err := s.db.Where("buyer_id = ? AND design_id = ?", buyer.UserID, designID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("failed to check existing conversation", err)
	}

	ent, err := s.resolveEntitlement(buyer.UserID, &design)
	if err != nil {
		return nil, err
	}

	conversation := &models.Conversation{
		BuyerID:            buyer.UserID,
		ArchitectID:        design.ArchitectID,
		DesignID:           designID,
		Reason:             ent.reason,
		RelatedID:          ent.relatedID,
		AllowDirectContact: ent.directContact,
	}
	if err := s.db.Create(conversation).Error; err != nil {
		return nil, apperrors.Internal("failed to create conversation", err)
	}

	return conversation, nil
}

// resolveEntitlement decides whether a buyer may contact the architect about
// a design. An active license wins; direct contact only for exclusive. A
// completed paid modification grants direct contact unconditionally.
func (s *MessagingService) resolveEntitlement(buyerID uuid.UUID, design *models.Design) (*entitlement, error) {
	var license models.License
	err := s.db.Where("buyer_id = ? AND design_id = ? AND status = ?",
		buyerID, design.ID, models.LicenseStatusActive).First(&license).Error
	if err == nil {
		return &entitlement{
			reason:        models.ConversationReasonExclusiveLicense,
			relatedID:     license.ID,
			directContact: license.LicenseType == models.LicenseTypeExclusive,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("failed to check license", err)
	}

	var mod models.ModificationRequest
	err = s.db.Where("buyer_id = ? AND design_id = ? AND status = ?",
		buyerID, design.ID, models.ModificationStatusCompleted).First(&mod).Error
	if err == nil {
		return &entitlement{
			reason:        models.ConversationReasonPaidModification,
			relatedID:     mod.ID,
			directContact: true,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("failed to check modification requests", err)
	}

	return nil, apperrors.Forbidden("a purchase or completed modification is required to contact the architect")
}

// SendMessage persists a message, redacting contact info first when the
// conversation forbids direct contact. The stored record is already safe;
// reads never re-filter.
func (s *MessagingService) SendMessage(conversationID uuid.UUID, sender Identity, req *SendMessageRequest) (*models.Message, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed", utils.ValidationMessages(err)...)
	}

	conversation, err := s.loadParticipant(conversationID, sender)
	if err != nil {
		return nil, err
	}

	content := SanitizeMessage(req.Content)
	if content == "" {
		return nil, apperrors.Validation("message content is empty")
	}

	redacted := false
	if !conversation.AllowDirectContact {
		filtered := RedactContactInfo(content)
		if filtered != content {
			redacted = true
		}
		if redactedToEmpty(filtered) {
			return nil, apperrors.Validation("message contains only contact information, which this conversation does not permit")
		}
		content = filtered
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       sender.UserID,
		Content:        content,
		Redacted:       redacted,
	}
	if err := s.db.Create(message).Error; err != nil {
		return nil, apperrors.Internal("failed to store message", err)
	}

	return message, nil
}

// GetConversations lists the caller's threads, both sides.
func (s *MessagingService) GetConversations(user Identity, params utils.PaginationParams) ([]models.Conversation, int64, error) {
	query := s.db.Model(&models.Conversation{}).
		Where("buyer_id = ? OR architect_id = ?", user.UserID, user.UserID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count conversations", err)
	}

	var conversations []models.Conversation
	query = query.Preload("Buyer").Preload("Architect").Preload("Design").Order("updated_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&conversations).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list conversations", err)
	}

	return conversations, total, nil
}

// GetMessages pages a conversation's messages, oldest first.
func (s *MessagingService) GetMessages(conversationID uuid.UUID, user Identity, params utils.PaginationParams) ([]models.Message, int64, error) {
	if _, err := s.loadParticipant(conversationID, user); err != nil {
		return nil, 0, err
	}

	query := s.db.Model(&models.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count messages", err)
	}

	var messages []models.Message
	query = query.Preload("Sender").Order("created_at ASC")
	if err := utils.ApplyPagination(query, params).Find(&messages).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list messages", err)
	}

	return messages, total, nil
}

// loadParticipant resolves a conversation the caller belongs to; outsiders
// get not-found, not forbidden.
func (s *MessagingService) loadParticipant(conversationID uuid.UUID, user Identity) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.First(&conversation, "id = ?", conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("conversation")
		}
		return nil, apperrors.Internal("failed to load conversation", err)
	}

	if conversation.BuyerID != user.UserID && conversation.ArchitectID != user.UserID && !user.IsAdmin() {
		return nil, apperrors.NotFound("conversation")
	}

	return &conversation, nil
}
