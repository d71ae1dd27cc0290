// Package main runs the event platform HTTP server with the lifecycle
// sweeper and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventia/backend/config"
	"github.com/eventia/backend/internal/attendance"
	"github.com/eventia/backend/internal/auth"
	"github.com/eventia/backend/internal/certificates"
	"github.com/eventia/backend/internal/email"
	"github.com/eventia/backend/internal/emaillogs"
	"github.com/eventia/backend/internal/events"
	"github.com/eventia/backend/internal/middleware"
	"github.com/eventia/backend/internal/payments"
	"github.com/eventia/backend/internal/registrations"
	"github.com/eventia/backend/internal/sweeper"
	"github.com/eventia/backend/internal/tokens"
	"github.com/eventia/backend/internal/worker"
	"github.com/eventia/backend/pkg/database"
	"github.com/eventia/backend/pkg/queue"
	"github.com/eventia/backend/pkg/redis"
	"github.com/eventia/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// SMTP sender (token mails via the worker, reset codes inline)
	sender := email.NewSender(email.Config{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUser,
		Password:    cfg.Email.SMTPPass,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	}, logger)

	// Auth (password reset codes live in Redis)
	authRepo := auth.NewRepository(pool)
	otpStore := email.NewOTPStore(rdb.Client)
	authHandler := auth.NewHandler(authRepo, jwtService, otpStore, sender, logger)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, logger)

	// Attendance tokens
	tokenRepo := tokens.NewRepository(pool)
	tokenService := tokens.NewService(tokenRepo, jobQueue, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationService := registrations.NewService(eventRepo, registrationRepo, tokenService, logger)
	registrationHandler := registrations.NewHandler(registrationService, registrationRepo, logger)

	// Payments (gateway webhook reconciliation + checkout)
	paymentRepo := payments.NewRepository(pool)
	reconciler := payments.NewReconciler(paymentRepo, registrationRepo, eventRepo, tokenService, logger)
	paymentHandler := payments.NewHandler(reconciler, paymentRepo, registrationRepo, logger)

	// Attendance (check-in at the door)
	attendanceRepo := attendance.NewRepository(pool)
	attendanceService := attendance.NewService(tokenRepo, attendanceRepo, logger)
	attendanceHandler := attendance.NewHandler(attendanceService, logger)

	// Certificates
	certificateRepo := certificates.NewRepository(pool)
	certificateService := certificates.NewService(eventRepo, registrationRepo, certificateRepo, certificateRepo, attendanceService, logger)
	certificateHandler := certificates.NewHandler(certificateService, certificateRepo, logger)

	// Email logs + resend
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo, eventRepo, registrationRepo, tokenRepo, jobQueue, logger)

	// Email delivery worker (token mails off the queue)
	emailProcessor := worker.NewEmailProcessor(jobQueue, sender, emailLogsRepo, logger)

	// Lifecycle sweeper (no-shows + ended events)
	lifecycleSweeper := sweeper.New(sweeper.NewRepository(pool), logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: event catalog
	router.GET("/events", eventHandler.List)
	router.GET("/events/:id", eventHandler.GetByID)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/password/forgot", authHandler.ForgotPassword)
		authGroup.POST("/password/reset", authHandler.ResetPassword)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Events (management)
		api.POST("/events", middleware.RequireRole("admin", "organizer"), eventHandler.Create)
		api.PATCH("/events/:id", middleware.RequireRole("admin"), eventHandler.Update)
		api.DELETE("/events/:id", middleware.RequireRole("admin"), eventHandler.Delete)
		api.POST("/events/:id/highlight", middleware.RequireRole("admin"), eventHandler.Highlight)

		// Registrations
		api.POST("/events/:id/register", registrationHandler.Register)
		api.GET("/registrations", registrationHandler.ListMine)
		api.POST("/registrations/:id/cancel", registrationHandler.Cancel)
		api.POST("/registrations/:id/checkout", paymentHandler.Checkout)

		// Attendance + certificates
		api.POST("/checkin", middleware.RequireRole("admin", "organizer"), attendanceHandler.CheckIn)
		api.GET("/events/:id/certificate", certificateHandler.GetMine)

		// Admin
		admin := api.Group("/admin", middleware.RequireRole("admin"))
		{
			admin.GET("/events", eventHandler.ListAll)
			admin.GET("/events/:id/registrations", registrationHandler.ListByEvent)
			admin.GET("/events/:id/emails", emailLogsHandler.ListByEvent)
			admin.POST("/events/:id/emails/resend", emailLogsHandler.Resend)
			admin.POST("/events/:id/certificates", certificateHandler.GenerateBulk)
			admin.POST("/events/:id/certificates/:registrationId", certificateHandler.Generate)
		}
	}

	// Webhooks (no JWT; gateway retries on non-2xx)
	router.POST("/webhooks/payment", paymentHandler.Notify)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background loops
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go emailProcessor.Run(workerCtx)
	go lifecycleSweeper.RunLoop(workerCtx, time.Duration(cfg.Sweeper.IntervalMinutes)*time.Minute)
	logger.Info("email worker and sweeper started",
		zap.Int("sweeper_interval_minutes", cfg.Sweeper.IntervalMinutes))

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
