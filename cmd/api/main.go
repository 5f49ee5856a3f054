package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-fuelstation-pos/internal/cache"
	"go-fuelstation-pos/internal/config"
	"go-fuelstation-pos/internal/handler"
	"go-fuelstation-pos/internal/logging"
	"go-fuelstation-pos/internal/middleware"
	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/notify"
	"go-fuelstation-pos/internal/repository"
	"go-fuelstation-pos/internal/service"
	"go-fuelstation-pos/internal/storage"
	"go-fuelstation-pos/internal/ws"
	"go-fuelstation-pos/pkg/database"
	"go-fuelstation-pos/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	jwt.Configure(cfg.JWTSecret, cfg.JWTTTL)
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, using the built-in development secret")
	}

	// 2. Setup Database (runs migrations)
	db, err := database.ConnectDB(cfg.DatabaseURL, logging.GormLevel(cfg.LogLevel), log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(context.Background(), db, cfg, log)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	// 5. Optional infrastructure
	ctx := context.Background()
	var summaryCache service.SummaryCache
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, dashboard cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			defer client.Close()
			summaryCache = cache.NewStore(client)
			log.Info("redis cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	var alerts service.AlertPublisher = notify.NewLogPublisher(log)
	var archive service.ReportArchive
	if cfg.UseCloudServices {
		if cfg.SNSTopicArn != "" {
			publisher, err := notify.NewSNSPublisher(ctx, cfg.AWSRegion, cfg.SNSTopicArn, log)
			if err != nil {
				log.Fatal("sns", zap.Error(err))
			}
			alerts = publisher
		}
		if cfg.S3Bucket != "" {
			s3Archive, err := storage.NewS3Archive(ctx, cfg.AWSRegion, cfg.S3Bucket)
			if err != nil {
				log.Fatal("s3", zap.Error(err))
			}
			archive = s3Archive
		}
	}

	// 6. Dependency Injection (Wiring Layers)
	stationRepo := repository.NewStationRepo(db)
	recordRepo := repository.NewDailyRecordRepo(db)
	shiftRepo := repository.NewShiftRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	ownerRepo := repository.NewOwnerRepo(db)
	reconRepo := repository.NewReconciliationRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	stationService := service.NewStationService(db, stationRepo, auditRepo, log)
	recordService := service.NewDailyRecordService(db, recordRepo, stationRepo, auditRepo, summaryCache, log)
	shiftService := service.NewShiftService(service.ShiftDeps{
		DB:       db,
		Shifts:   shiftRepo,
		Stations: stationRepo,
		Records:  recordRepo,
		Sales:    txRepo,
		Audit:    auditRepo,
		Policy:   cfg.Policy,
		Events:   wsHub,
		Alerts:   alerts,
		Cache:    summaryCache,
		Log:      log,
	})
	txService := service.NewTransactionService(db, txRepo, shiftRepo, stationRepo, ownerRepo, auditRepo, wsHub, summaryCache, log)
	ownerService := service.NewOwnerService(db, ownerRepo, auditRepo, log)
	dashService := service.NewDashboardService(db, txRepo, shiftRepo, reconRepo, cfg.Policy, summaryCache, cfg.CacheTTL, log)
	reportService := service.NewReportService(txRepo, shiftRepo, stationRepo, archive, log)
	auditService := service.NewAuditService(auditRepo)
	authService := service.NewAuthService(userRepo, wsHub, log)
	userService := service.NewUserService(db, userRepo, privilegeRepo, roleRepo, auditRepo, log)

	stationHandler := handler.NewStationHandler(stationService)
	recordHandler := handler.NewDailyRecordHandler(recordService)
	shiftHandler := handler.NewShiftHandler(shiftService)
	txHandler := handler.NewTransactionHandler(txService)
	ownerHandler := handler.NewOwnerHandler(ownerService)
	dashHandler := handler.NewDashboardHandler(dashService)
	reportHandler := handler.NewReportHandler(reportService, auditService)
	authHandler := handler.NewAuthHandler(authService, cfg.SessionCookie, cfg.CookieSecure)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Fuel Station POS v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: cfg.CORSOrigins != "*",
	}))

	requireAuth := middleware.RequireAuth(userRepo, cfg.SessionCookie, service.SessionIdleTimeout)
	priv := middleware.RequirePrivilege
	anyPriv := middleware.RequireAnyPrivilege

	app.Get("/health", handler.Health(db, wsHub))

	// 8. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", requireAuth, authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/payment-methods", handler.GetPaymentMethods)

	// Stations
	protected.Get("/stations", priv(model.PrivStationView), stationHandler.GetStations)
	protected.Get("/stations/:id", priv(model.PrivStationView), stationHandler.GetStation)
	protected.Post("/stations", priv(model.PrivStationManage), stationHandler.CreateStation)
	protected.Put("/stations/:id/price", priv(model.PrivDailyRecordManage), stationHandler.UpdatePrice)
	protected.Get("/stations/:id/open-shift", priv(model.PrivShiftView), shiftHandler.GetOpenShift)

	// Daily records
	protected.Get("/daily-records", priv(model.PrivDailyRecordManage), recordHandler.GetDailyRecords)
	protected.Post("/daily-records", priv(model.PrivDailyRecordManage), recordHandler.CreateDailyRecord)
	protected.Delete("/daily-records/:id", priv(model.PrivDailyRecordDelete), recordHandler.DeleteDailyRecord)

	// Shift workflow
	protected.Get("/shifts", priv(model.PrivShiftView), shiftHandler.GetShifts)
	protected.Get("/shifts/:id", priv(model.PrivShiftView), shiftHandler.GetShift)
	protected.Post("/shifts", priv(model.PrivShiftOpen), shiftHandler.OpenShift)
	protected.Put("/shifts/:id/meters", priv(model.PrivMeterEntry), shiftHandler.RecordEndMeters)
	protected.Put("/shifts/:id/gauges", priv(model.PrivMeterEntry), shiftHandler.RecordGauges)
	protected.Get("/shifts/:id/close-preview", priv(model.PrivShiftClose), shiftHandler.ClosePreview)
	protected.Post("/shifts/:id/close", priv(model.PrivShiftClose), shiftHandler.CloseShift)
	protected.Put("/shifts/:id/meters/:nozzle/correct", priv(model.PrivShiftAdmin), shiftHandler.CorrectMeter)

	// Transactions
	protected.Get("/transactions", priv(model.PrivTransactionView), txHandler.GetTransactions)
	protected.Get("/transactions/:id", priv(model.PrivTransactionView), txHandler.GetTransaction)
	protected.Post("/transactions", priv(model.PrivTransactionCreate), txHandler.CreateTransaction)
	protected.Post("/transactions/:id/void", priv(model.PrivTransactionVoid), txHandler.VoidTransaction)
	protected.Delete("/transactions/:id", priv(model.PrivTransactionDelete), txHandler.DeleteTransaction)

	// Owners and trucks
	protected.Get("/owners", priv(model.PrivOwnerView), ownerHandler.GetOwners)
	protected.Post("/owners/merge", priv(model.PrivOwnerMerge), ownerHandler.MergeOwners)
	protected.Get("/owners/:id", priv(model.PrivOwnerView), ownerHandler.GetOwner)
	protected.Get("/owners/:id/credit", priv(model.PrivOwnerView), ownerHandler.GetCreditSummary)
	protected.Post("/owners", priv(model.PrivOwnerManage), ownerHandler.CreateOwner)
	protected.Post("/owners/:id/trucks", priv(model.PrivOwnerManage), ownerHandler.AddTruck)

	// Dashboard and reports
	dashboard := protected.Group("/dashboard", anyPriv(model.PrivReportView, model.PrivReportExport))
	dashboard.Get("/summary", dashHandler.GetSummary)
	dashboard.Get("/variance-alerts", dashHandler.GetVarianceAlerts)
	protected.Get("/reports/transactions", priv(model.PrivReportExport), reportHandler.ExportTransactions)
	protected.Get("/reports/shifts", priv(model.PrivReportExport), reportHandler.ExportShifts)
	protected.Post("/reports/archive", priv(model.PrivReportArchive), reportHandler.ArchiveDay)
	protected.Get("/audit-logs", priv(model.PrivAuditView), reportHandler.GetAuditLogs)

	// User Management Routes (with privilege checks)
	protected.Get("/users", priv(model.PrivUserView), userHandler.GetUsers)
	protected.Get("/users/:id", priv(model.PrivUserView), userHandler.GetUser)
	protected.Post("/users", priv(model.PrivUserCreate), userHandler.CreateUser)
	protected.Put("/users/:id", priv(model.PrivUserUpdate), userHandler.UpdateUser)
	protected.Delete("/users/:id", priv(model.PrivUserDelete), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", priv(model.PrivUserUpdate), userHandler.UpdateUserPrivileges)

	// Role Routes
	userAdmin := anyPriv(model.PrivUserView, model.PrivUserCreate, model.PrivUserUpdate)
	protected.Get("/roles", userAdmin, roleHandler.GetRoles)
	protected.Get("/privileges", userAdmin, roleHandler.GetPrivileges)

	// WebSocket Route: authenticated by cookie or bearer header, scoped to the user's station
	app.Use("/ws", requireAuth, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		client := &ws.Client{Conn: c}
		if raw, _ := c.Locals(middleware.LocalStationID).(string); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				client.StationID = &id
			}
		} else if raw := c.Query("station_id"); raw != "" {
			// admins may narrow the feed to one station
			if id, err := uuid.Parse(raw); err == nil {
				client.StationID = &id
			}
		}

		wsHub.Add(client)
		defer wsHub.Remove(client)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	wsHub.Stop()

	log.Info("server exited")
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and the first admin if they don't exist
func seedPrivilegesRolesAndAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	if added, err := privilegeRepo.Seed(ctx); err != nil {
		log.Warn("seed privileges", zap.Error(err))
	} else if added > 0 {
		log.Info("privileges seeded", zap.Int64("added", added))
	}
	granted, err := roleRepo.Seed(ctx)
	if err != nil {
		log.Warn("seed roles", zap.Error(err))
	}
	for role, count := range granted {
		log.Info("role privileges assigned", zap.String("role", role), zap.Int("count", count))
	}

	if _, err := userRepo.FindByEmail(ctx, cfg.AdminEmail); err == nil {
		return
	}
	if cfg.AdminPassword == "" {
		log.Warn("no admin user and ADMIN_PASSWORD is empty, skipping admin seed")
		return
	}
	adminRole, err := roleRepo.FindByCode(ctx, model.RoleAdmin)
	if err != nil {
		log.Warn("admin role missing", zap.Error(err))
		return
	}

	admin := &model.User{
		Email:      cfg.AdminEmail,
		FullName:   "Administrator",
		RoleID:     &adminRole.ID,
		IsActive:   true,
		Privileges: adminRole.Privileges,
	}
	admin.CreatedBy = service.SystemActor.ID()
	admin.UpdatedBy = service.SystemActor.ID()
	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		log.Warn("hash admin password", zap.Error(err))
		return
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Warn("create admin user", zap.Error(err))
		return
	}
	log.Info("admin user created", zap.String("email", cfg.AdminEmail))
}
