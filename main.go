package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/config"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/handler"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/lifecycle"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/middleware"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/pkg/logger"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/pkg/metrics"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/service"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Contract store: postgres in production, memory for development
	var contractStore lifecycle.ContractStore
	switch cfg.Store.Driver {
	case "postgres":
		store, err := service.NewGormContractStore(cfg.Store.DSN)
		if err != nil {
			slog.Error("failed to initialize contract store", "error", err)
			os.Exit(1)
		}
		contractStore = store
		slog.Info("contract store initialized", "driver", "postgres")
	default:
		contractStore = service.NewContractStore()
		slog.Info("contract store initialized", "driver", "memory")
	}

	// Marketplace stores
	jobs := service.NewJobStore()
	proposals := service.NewProposalStore()
	resolver := &service.ProposalResolver{Jobs: jobs, Proposals: proposals}

	// Notification sink: AMQP when a broker is configured
	var sink lifecycle.NotificationSink = service.LogSink{}
	if cfg.AMQP.URL != "" {
		amqpSink, err := service.NewAMQPSink(&cfg.AMQP)
		if err != nil {
			slog.Error("failed to connect notification sink", "error", err)
			os.Exit(1)
		}
		defer amqpSink.Close()
		sink = amqpSink
		slog.Info("notification sink initialized", "queue", cfg.AMQP.Queue)
	}

	// File storage for signatures and attachments
	var files *service.FileService
	if cfg.Minio.Endpoint != "" {
		files, err = service.NewFileService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize file storage", "error", err)
			os.Exit(1)
		}
		if err := files.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure bucket", "error", err)
			os.Exit(1)
		}
	}

	// Payment gateway
	var payments *service.PaymentService
	if cfg.Payment.APIURL != "" {
		payments = service.NewPaymentService(&cfg.Payment)
	}

	// Contract lifecycle
	lc := lifecycle.New(contractStore, resolver, lifecycle.WithNotifications(sink))

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	jobHandler := handler.NewJobHandler(jobs)
	proposalHandler := handler.NewProposalHandler(jobs, proposals)
	contractHandler := handler.NewContractHandler(lc, files, payments)
	adminHandler := handler.NewAdminHandler(lc)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
		if payments != nil {
			webhookHandler := handler.NewPaymentWebhookHandler(payments, lc)
			api.POST("/payments/webhook", webhookHandler.HandleWebhook)
		}
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/jobs", jobHandler.Create)
		protected.GET("/jobs", jobHandler.List)
		protected.GET("/jobs/:id", jobHandler.Get)
		protected.POST("/jobs/:id/close", jobHandler.Close)
		protected.GET("/jobs/:id/proposals", proposalHandler.ListForJob)

		protected.POST("/proposals", proposalHandler.Submit)
		protected.POST("/proposals/:id/accept", proposalHandler.Accept)
		protected.POST("/proposals/:id/reject", proposalHandler.Reject)

		protected.POST("/contracts", contractHandler.Create)
		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:id", contractHandler.Get)
		protected.POST("/contracts/:id/submit", contractHandler.Submit)
		protected.POST("/contracts/:id/accept", contractHandler.Accept)
		protected.POST("/contracts/:id/request-changes", contractHandler.RequestChanges)
		protected.PUT("/contracts/:id/revise", contractHandler.Revise)
		protected.POST("/contracts/:id/checkout", contractHandler.Checkout)
		protected.POST("/contracts/:id/payment", contractHandler.CompletePayment)
		protected.POST("/contracts/:id/sign", contractHandler.Sign)
		protected.GET("/contracts/:id/signatures/:role", contractHandler.SignatureURL)
		protected.PUT("/contracts/:id/milestones/:milestoneId", contractHandler.UpdateMilestone)
		protected.POST("/contracts/:id/complete", contractHandler.Complete)

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole(model.RoleAdmin))
		{
			admin.POST("/contracts/:id/reset-payment", adminHandler.ResetPayment)
		}
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
