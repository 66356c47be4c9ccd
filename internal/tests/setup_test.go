// internal/tests/setup_test.go
package tests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/config"
	"github.com/planmarket/planmarket-backend/internal/database"
	"github.com/planmarket/planmarket-backend/internal/models"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

// IntegrationSuite runs the service layer against a throwaway Postgres
// container. The invariants under test live in the database (partial unique
// indexes, row locks), so an in-memory fake would not exercise them.
type IntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container testcontainers.Container
	db        *gorm.DB
	cfg       *config.Config
}

func (s *IntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "planmarket",
			"POSTGRES_PASSWORD": "planmarket",
			"POSTGRES_DB":       "planmarket_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		s.T().Skipf("postgres container unavailable: %v", err)
	}
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(s.ctx, "5432/tcp")
	s.Require().NoError(err)

	dbCfg := config.DatabaseConfig{
		Host:         host,
		Port:         port.Port(),
		User:         "planmarket",
		Password:     "planmarket",
		Database:     "planmarket_test",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		MaxLifetime:  300,
		LogLevel:     "silent",
	}

	db, err := database.Initialize(dbCfg)
	s.Require().NoError(err)
	s.Require().NoError(database.RunMigrations(db))
	s.db = db

	s.cfg = &config.Config{
		Environment: "test",
		Payment: config.PaymentConfig{
			StripeWebhookSecret: "whsec_test_secret",
			PlatformFeePercent:  10,
			Currency:            "USD",
		},
		Moderation: config.ModerationConfig{
			MinPreviewImages:   3,
			MinRejectReasonLen: 10,
		},
		Frontend: config.FrontendConfig{
			BaseURL:            "http://localhost:3000",
			CheckoutSuccessURL: "http://localhost:3000/checkout/success",
			CheckoutCancelURL:  "http://localhost:3000/checkout/cancel",
		},
	}
}

func (s *IntegrationSuite) TearDownSuite() {
	if s.db != nil {
		database.Close(s.db)
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *IntegrationSuite) createUser(role models.UserRole) *models.User {
	tag := uuid.NewString()[:8]
	user := &models.User{
		Username: "user_" + tag,
		Email:    tag + "@example.com",
		Role:     role,
		Status:   models.UserStatusActive,
	}
	s.Require().NoError(user.SetPassword("TestPass123!"))
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *IntegrationSuite) createPublishedDesign(architectID uuid.UUID, licenseType models.LicenseType) *models.Design {
	now := time.Now()
	design := &models.Design{
		ArchitectID: architectID,
		Title:       "Lake House",
		Slug:        "lake-house-" + uuid.NewString()[:8],
		Summary:     "Two-story lake house with a glazed facade.",
		Category:    "residential",
		Price:       decimal.NewFromInt(1200),
		Currency:    "usd",
		LicenseType: licenseType,
		Status:      models.DesignStatusPublished,
		PublishedAt: &now,
	}
	s.Require().NoError(s.db.Create(design).Error)
	return design
}

func (s *IntegrationSuite) createPendingTransaction(buyerID uuid.UUID, design *models.Design, amountCents int64) *models.Transaction {
	transaction := &models.Transaction{
		BuyerID:             buyerID,
		DesignID:            &design.ID,
		PaymentType:         models.PaymentTypeDesignPurchase,
		CheckoutSessionID:   "cs_test_" + uuid.NewString()[:12],
		AmountCents:         amountCents,
		PlatformFeeCents:    amountCents / 10,
		ArchitectShareCents: amountCents - amountCents/10,
		Currency:            "USD",
		LicenseType:         design.LicenseType,
		Status:              models.TransactionStatusPending,
	}
	s.Require().NoError(s.db.Create(transaction).Error)
	return transaction
}

// grantLicense settles a purchase fixture directly: a paid transaction plus
// its active license, without going through the webhook path.
func (s *IntegrationSuite) grantLicense(buyerID uuid.UUID, design *models.Design) *models.License {
	transaction := s.createPendingTransaction(buyerID, design, 120000)
	now := time.Now()
	s.Require().NoError(s.db.Model(transaction).Updates(map[string]interface{}{
		"status":  models.TransactionStatusPaid,
		"paid_at": now,
	}).Error)

	license := &models.License{
		BuyerID:       buyerID,
		DesignID:      design.ID,
		TransactionID: transaction.ID,
		LicenseType:   design.LicenseType,
		Status:        models.LicenseStatusActive,
	}
	s.Require().NoError(s.db.Create(license).Error)
	return license
}

func (s *IntegrationSuite) countRows(model interface{}, query string, args ...interface{}) int64 {
	var count int64
	s.Require().NoError(s.db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

func testPagination() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 20}
}
