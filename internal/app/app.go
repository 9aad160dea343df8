package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/auth"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/config"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/email"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/gateway"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/handlers"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/logger"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/middleware"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/repositories"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/routes"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/services"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/validator"
	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/workers"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	auth.Init(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := Migrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}
	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}
	if err := seedPricing(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed pricing", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	workers.NewAttemptExpiryWorker(gormDB).Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.PaymentAttempt{},
		&models.PaymentRecord{},
		&models.PendingPayment{},
		&models.AuditLog{},
		&models.Workshop{},
		&models.PricingTier{},
		&models.CategoryPrice{},
		&models.Discount{},
		&models.SequenceCounter{},
	)
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	serviceContainer := InitializeServices(cfg)
	appHandlers := initializeHandlers(serviceContainer, cfg)

	ginRouter := initializeGinRouter(gormDB, cfg)
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter
}

// InitializeServices builds the full service graph. Exported so tests
// can assemble the same graph over an in-memory database.
func InitializeServices(cfg *config.Config) *services.ServiceContainer {
	var emailService email.Provider
	if cfg.Email.SMTPHost == "" || cfg.Server.Env == "test" {
		logger.Warn("SMTP not configured, outgoing email disabled")
		emailService = &MockEmailProvider{}
	} else {
		provider, err := email.NewSMTPProvider(email.SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
			UseTLS:    cfg.Email.UseTLS,
		})
		if err != nil {
			logger.Fatal("Failed to initialize SMTP provider", "error", err)
		}
		emailService = provider
	}

	userRepo := repositories.NewUserRepository()
	attemptRepo := repositories.NewAttemptRepository()
	recordRepo := repositories.NewPaymentRecordRepository()
	pendingRepo := repositories.NewPendingPaymentRepository()
	auditRepo := repositories.NewAuditRepository()
	workshopRepo := repositories.NewWorkshopRepository()
	pricingRepo := repositories.NewPricingRepository()

	gatewayClient := gateway.NewClient(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)

	auditService := services.NewAuditService(auditRepo)
	attemptService := services.NewAttemptService(attemptRepo)
	pricingService := services.NewPricingService(pricingRepo, workshopRepo, cfg)
	workshopService := services.NewWorkshopService(workshopRepo, auditService)
	authService := services.NewAuthService(userRepo)
	paymentService := services.NewPaymentService(
		userRepo,
		recordRepo,
		pendingRepo,
		workshopRepo,
		attemptService,
		pricingService,
		auditService,
		gatewayClient,
		emailService,
		cfg,
	)

	return &services.ServiceContainer{
		AuthService:     authService,
		PaymentService:  paymentService,
		PricingService:  pricingService,
		AttemptService:  attemptService,
		WorkshopService: workshopService,
		AuditService:    auditService,
		EmailService:    emailService,
	}
}

func initializeHandlers(container *services.ServiceContainer, cfg *config.Config) *handlers.AppHandlers {
	customValidator := validator.New()
	debug := cfg.Server.Env != "production"
	baseHandler := handlers.NewBaseHandler(customValidator, debug)

	return &handlers.AppHandlers{
		AuthHandler:     handlers.NewAuthHandler(baseHandler, container.AuthService),
		PaymentHandler:  handlers.NewPaymentHandler(baseHandler, container.PaymentService, container.AttemptService, container.AuthService, cfg),
		WorkshopHandler: handlers.NewWorkshopHandler(baseHandler, container.WorkshopService),
		PricingHandler:  handlers.NewPricingHandler(baseHandler, container.PricingService),
		AdminHandler:    handlers.NewAdminHandler(baseHandler, container.PaymentService, container.AuthService),
	}
}

func initializeGinRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.Admin.Email
	adminPassword := cfg.Admin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("admin email or password not configured, skipping admin seeding")
		return nil
	}

	var adminUser models.User
	result := db.Where("email = ?", adminEmail).First(&adminUser)
	if result.Error == nil {
		logger.Info("Admin user already exists, skipping creation", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	hashedPassword, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		Name:         "Conference Admin",
		PasswordHash: hashedPassword,
		Role:         models.UserRoleAdmin,
	}
	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Created first admin user", "email", adminEmail)
	return nil
}

// seedPricing installs the conference tiers, categories and workshop
// catalog when the tables are empty. Existing rows are left untouched so
// operators can adjust prices through the database.
func seedPricing(db *gorm.DB, cfg *config.Config) error {
	var tierCount int64
	if err := db.Model(&models.PricingTier{}).Count(&tierCount).Error; err != nil {
		return err
	}
	if tierCount == 0 {
		pricingRepo := repositories.NewPricingRepository()
		for _, tier := range defaultTiers() {
			t := tier
			if err := pricingRepo.UpsertTier(db, &t); err != nil {
				return fmt.Errorf("failed to seed tier %s: %w", t.ID, err)
			}
		}
		logger.Info("Seeded pricing tiers", "count", len(defaultTiers()))
	}

	var workshopCount int64
	if err := db.Model(&models.Workshop{}).Count(&workshopCount).Error; err != nil {
		return err
	}
	if workshopCount == 0 {
		for _, w := range defaultWorkshops() {
			ws := w
			if err := db.Create(&ws).Error; err != nil {
				return fmt.Errorf("failed to seed workshop %s: %w", ws.ID, err)
			}
		}
		logger.Info("Seeded workshop catalog", "count", len(defaultWorkshops()))
	}

	return nil
}

func defaultTiers() []models.PricingTier {
	categories := func(tierID string, extra float64) []models.CategoryPrice {
		return []models.CategoryPrice{
			{TierID: tierID, CategoryKey: "issh-member", Label: "ISSH Member", Amount: 4500 + extra},
			{TierID: tierID, CategoryKey: "non-issh-member", Label: "Non ISSH Member", Amount: 6000 + extra},
			{TierID: tierID, CategoryKey: "trainee", Label: "Trainee / Resident", Amount: 3000 + extra},
			{TierID: tierID, CategoryKey: "international", Label: "International Delegate", Amount: 12000 + extra},
		}
	}
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	return []models.PricingTier{
		{
			ID:                    "early-bird",
			Name:                  "Early Bird",
			StartDate:             date(2025, time.September, 1),
			EndDate:               date(2025, time.December, 31),
			AccompanyingPersonFee: 2500,
			Categories:            categories("early-bird", 0),
		},
		{
			ID:                    "regular",
			Name:                  "Regular",
			StartDate:             date(2026, time.January, 1),
			EndDate:               date(2026, time.March, 31),
			AccompanyingPersonFee: 3000,
			Categories:            categories("regular", 1500),
		},
		{
			ID:                    "late",
			Name:                  "Late / Spot",
			StartDate:             date(2026, time.April, 1),
			EndDate:               date(2026, time.June, 30),
			AccompanyingPersonFee: 3500,
			IsDefault:             true,
			Categories:            categories("late", 3000),
		},
	}
}

func defaultWorkshops() []models.Workshop {
	return []models.Workshop{
		{ID: "wrist-arthroscopy", Name: "Wrist Arthroscopy Cadaver Lab", Price: 3500, MaxSeats: 30, Active: true},
		{ID: "flap-dissection", Name: "Flap Dissection Masterclass", Price: 4000, MaxSeats: 24, Active: true},
		{ID: "brachial-plexus", Name: "Brachial Plexus Exploration", Price: 3500, MaxSeats: 20, Active: true},
		{ID: "microsurgery-basics", Name: "Microsurgery Skills Course", Price: 3000, MaxSeats: 0, Active: true},
	}
}
