// internal/services/review_service.go
package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/database"
	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

// ReviewService manages buyer reviews. The design's AverageRating and
// ReviewCount are recomputed inside the same database transaction as every
// review write, so the aggregates never drift from the rows.
type ReviewService struct {
	db *gorm.DB
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// CreateReview records a review from a buyer holding an active license.
// One review per buyer and design; the partial unique index backs up this
// pre-check under concurrency.
func (s *ReviewService) CreateReview(buyer Identity, designID uuid.UUID, req *CreateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Validation("validation failed", utils.ValidationMessages(err)...)
	}

	var design models.Design
	if err := s.db.First(&design, "id = ?", designID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("design")
		}
		return nil, apperrors.Internal("failed to load design", err)
	}

	var licenseCount int64
	if err := s.db.Model(&models.License{}).
		Where("buyer_id = ? AND design_id = ? AND status = ?", buyer.UserID, designID, models.LicenseStatusActive).
		Count(&licenseCount).Error; err != nil {
		return nil, apperrors.Internal("failed to check license", err)
	}
	if licenseCount == 0 {
		return nil, apperrors.Forbidden("only buyers with an active license can review a design")
	}

	var existing int64
	if err := s.db.Model(&models.Review{}).
		Where("buyer_id = ? AND design_id = ?", buyer.UserID, designID).
		Count(&existing).Error; err != nil {
		return nil, apperrors.Internal("failed to check existing review", err)
	}
	if existing > 0 {
		return nil, apperrors.Duplicate("you have already reviewed this design")
	}

	review := &models.Review{
		DesignID: designID,
		BuyerID:  buyer.UserID,
		Rating:   req.Rating,
		Comment:  strings.TrimSpace(req.Comment),
		Status:   models.ReviewStatusPublished,
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			if isUniqueViolation(err) {
				return apperrors.Duplicate("you have already reviewed this design")
			}
			return err
		}
		return recomputeAggregates(tx, designID)
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Internal("failed to create review", err)
	}

	return review, nil
}

// DeleteReview soft-deletes a review (author or admin) and recomputes the
// design aggregates in the same transaction.
func (s *ReviewService) DeleteReview(reviewID uuid.UUID, actor Identity) error {
	var review models.Review
	if err := s.db.First(&review, "id = ?", reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("review")
		}
		return apperrors.Internal("failed to load review", err)
	}

	if review.BuyerID != actor.UserID && !actor.IsAdmin() {
		return apperrors.Forbidden("review belongs to a different buyer")
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Model(&review).Update("status", models.ReviewStatusDeleted).Error; err != nil {
			return err
		}
		if err := tx.Delete(&review).Error; err != nil {
			return err
		}
		return recomputeAggregates(tx, review.DesignID)
	})
	if err != nil {
		return apperrors.Internal("failed to delete review", err)
	}

	return nil
}

// GetDesignReviews lists published reviews for a design, newest first.
func (s *ReviewService) GetDesignReviews(designID uuid.UUID, params utils.PaginationParams) ([]models.Review, int64, error) {
	query := s.db.Model(&models.Review{}).
		Where("design_id = ? AND status = ?", designID, models.ReviewStatusPublished)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to count reviews", err)
	}

	var reviews []models.Review
	query = query.Preload("Buyer").Order("created_at DESC")
	if err := utils.ApplyPagination(query, params).Find(&reviews).Error; err != nil {
		return nil, 0, apperrors.Internal("failed to list reviews", err)
	}

	return reviews, total, nil
}

// recomputeAggregates rewrites the design's rating summary from the
// surviving published reviews. Zero reviews resets both fields.
func recomputeAggregates(tx *gorm.DB, designID uuid.UUID) error {
	var agg struct {
		Average float64
		Count   int64
	}
	if err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("design_id = ? AND status = ?", designID, models.ReviewStatusPublished).
		Scan(&agg).Error; err != nil {
		return err
	}

	return tx.Model(&models.Design{}).Where("id = ?", designID).Updates(map[string]interface{}{
		"average_rating": agg.Average,
		"review_count":   agg.Count,
	}).Error
}

// isUniqueViolation detects Postgres unique-index violations (SQLSTATE
// 23505) surfaced through the driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
