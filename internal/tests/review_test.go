// internal/tests/review_test.go
package tests

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/services"
)

type ReviewTestSuite struct {
	IntegrationSuite
	reviews *services.ReviewService
}

func (suite *ReviewTestSuite) SetupSuite() {
	suite.IntegrationSuite.SetupSuite()
	suite.reviews = services.NewReviewService(suite.db)
}

func (suite *ReviewTestSuite) licensedBuyer(design *models.Design) services.Identity {
	buyer := suite.createUser(models.UserRoleBuyer)
	suite.grantLicense(buyer.ID, design)
	return services.Identity{UserID: buyer.ID, Role: buyer.Role}
}

func (suite *ReviewTestSuite) designAggregates(designID interface{}) (float64, int64) {
	var design models.Design
	suite.Require().NoError(suite.db.First(&design, "id = ?", designID).Error)
	return design.AverageRating, design.ReviewCount
}

func (suite *ReviewTestSuite) TestReviewRequiresLicense() {
	architect := suite.createUser(models.UserRoleArchitect)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)
	stranger := suite.createUser(models.UserRoleBuyer)

	_, err := suite.reviews.CreateReview(
		services.Identity{UserID: stranger.ID, Role: stranger.Role},
		design.ID,
		&services.CreateReviewRequest{Rating: 5},
	)
	suite.Require().Error(err)
	suite.Equal(apperrors.KindForbidden, apperrors.KindOf(err))
}

func (suite *ReviewTestSuite) TestOneReviewPerBuyer() {
	architect := suite.createUser(models.UserRoleArchitect)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)
	buyer := suite.licensedBuyer(design)

	_, err := suite.reviews.CreateReview(buyer, design.ID, &services.CreateReviewRequest{Rating: 4})
	suite.Require().NoError(err)

	_, err = suite.reviews.CreateReview(buyer, design.ID, &services.CreateReviewRequest{Rating: 5})
	suite.Require().Error(err)
	suite.Equal(apperrors.KindDuplicate, apperrors.KindOf(err))
}

func (suite *ReviewTestSuite) TestAggregatesTrackReviewWrites() {
	architect := suite.createUser(models.UserRoleArchitect)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)

	ratings := []int{5, 3, 4}
	var middle *models.Review
	for _, rating := range ratings {
		buyer := suite.licensedBuyer(design)
		review, err := suite.reviews.CreateReview(buyer, design.ID, &services.CreateReviewRequest{
			Rating:  rating,
			Comment: "solid plan",
		})
		suite.Require().NoError(err)
		if rating == 3 {
			middle = review
		}
	}

	average, count := suite.designAggregates(design.ID)
	suite.InDelta(4.0, average, 0.001)
	suite.Equal(int64(3), count)

	// Deleting a review recomputes the aggregates in the same transaction.
	admin := suite.createUser(models.UserRoleAdmin)
	suite.Require().NoError(suite.reviews.DeleteReview(middle.ID, services.Identity{UserID: admin.ID, Role: admin.Role}))

	average, count = suite.designAggregates(design.ID)
	suite.InDelta(4.5, average, 0.001)
	suite.Equal(int64(2), count)
}

func TestReviewSuite(t *testing.T) {
	suite.Run(t, new(ReviewTestSuite))
}
