// internal/tests/messaging_test.go
package tests

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/planmarket/planmarket-backend/internal/apperrors"
	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/services"
)

type MessagingTestSuite struct {
	IntegrationSuite
	messaging *services.MessagingService
}

func (suite *MessagingTestSuite) SetupSuite() {
	suite.IntegrationSuite.SetupSuite()
	suite.messaging = services.NewMessagingService(suite.db)
}

func (suite *MessagingTestSuite) TestConversationRequiresEntitlement() {
	architect := suite.createUser(models.UserRoleArchitect)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)
	stranger := suite.createUser(models.UserRoleBuyer)

	_, err := suite.messaging.OpenConversation(
		services.Identity{UserID: stranger.ID, Role: stranger.Role}, design.ID)
	suite.Require().Error(err)
	suite.Equal(apperrors.KindForbidden, apperrors.KindOf(err))
}

func (suite *MessagingTestSuite) TestStandardLicenseMessagesAreRedacted() {
	architect := suite.createUser(models.UserRoleArchitect)
	buyer := suite.createUser(models.UserRoleBuyer)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)
	suite.grantLicense(buyer.ID, design)
	buyerID := services.Identity{UserID: buyer.ID, Role: buyer.Role}

	conversation, err := suite.messaging.OpenConversation(buyerID, design.ID)
	suite.Require().NoError(err)
	suite.False(conversation.AllowDirectContact)

	message, err := suite.messaging.SendMessage(conversation.ID, buyerID, &services.SendMessageRequest{
		Content: "Great plan, call me at 555-123-4567 or test@example.com",
	})
	suite.Require().NoError(err)
	suite.True(message.Redacted)
	suite.Equal("Great plan, call me at [phone removed] or [email removed]", message.Content)

	// What went to the database is the redacted form.
	var stored models.Message
	suite.Require().NoError(suite.db.First(&stored, "id = ?", message.ID).Error)
	suite.Equal(message.Content, stored.Content)
}

func (suite *MessagingTestSuite) TestContactOnlyMessageRejected() {
	architect := suite.createUser(models.UserRoleArchitect)
	buyer := suite.createUser(models.UserRoleBuyer)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)
	suite.grantLicense(buyer.ID, design)
	buyerID := services.Identity{UserID: buyer.ID, Role: buyer.Role}

	conversation, err := suite.messaging.OpenConversation(buyerID, design.ID)
	suite.Require().NoError(err)

	_, err = suite.messaging.SendMessage(conversation.ID, buyerID, &services.SendMessageRequest{
		Content: "test@example.com",
	})
	suite.Require().Error(err)
	suite.Equal(apperrors.KindValidation, apperrors.KindOf(err))
	suite.Equal(int64(0), suite.countRows(&models.Message{}, "conversation_id = ?", conversation.ID))
}

func (suite *MessagingTestSuite) TestExclusiveLicenseAllowsDirectContact() {
	architect := suite.createUser(models.UserRoleArchitect)
	buyer := suite.createUser(models.UserRoleBuyer)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeExclusive)
	suite.grantLicense(buyer.ID, design)
	buyerID := services.Identity{UserID: buyer.ID, Role: buyer.Role}

	conversation, err := suite.messaging.OpenConversation(buyerID, design.ID)
	suite.Require().NoError(err)
	suite.True(conversation.AllowDirectContact)

	message, err := suite.messaging.SendMessage(conversation.ID, buyerID, &services.SendMessageRequest{
		Content: "Reach me directly at test@example.com",
	})
	suite.Require().NoError(err)
	suite.False(message.Redacted)
	suite.Equal("Reach me directly at test@example.com", message.Content)
}

func (suite *MessagingTestSuite) TestOpenConversationIsIdempotent() {
	architect := suite.createUser(models.UserRoleArchitect)
	buyer := suite.createUser(models.UserRoleBuyer)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)
	suite.grantLicense(buyer.ID, design)
	buyerID := services.Identity{UserID: buyer.ID, Role: buyer.Role}

	first, err := suite.messaging.OpenConversation(buyerID, design.ID)
	suite.Require().NoError(err)
	second, err := suite.messaging.OpenConversation(buyerID, design.ID)
	suite.Require().NoError(err)
	suite.Equal(first.ID, second.ID)
}

func (suite *MessagingTestSuite) TestOutsidersCannotReadConversations() {
	architect := suite.createUser(models.UserRoleArchitect)
	buyer := suite.createUser(models.UserRoleBuyer)
	design := suite.createPublishedDesign(architect.ID, models.LicenseTypeStandard)
	suite.grantLicense(buyer.ID, design)
	buyerID := services.Identity{UserID: buyer.ID, Role: buyer.Role}

	conversation, err := suite.messaging.OpenConversation(buyerID, design.ID)
	suite.Require().NoError(err)

	outsider := suite.createUser(models.UserRoleBuyer)
	_, _, err = suite.messaging.GetMessages(conversation.ID,
		services.Identity{UserID: outsider.ID, Role: outsider.Role},
		testPagination())
	suite.Require().Error(err)
	suite.Equal(apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestMessagingSuite(t *testing.T) {
	suite.Run(t, new(MessagingTestSuite))
}
