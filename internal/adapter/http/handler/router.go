package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	UserSvc        ports.UserService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	txHandler := NewTransactionHandler(deps.LedgerSvc)

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.POST("", txHandler.Create)
		transactions.GET("", txHandler.List)
	}

	balance := v1.Group("/balance", jwtAuth)
	{
		balance.GET("", txHandler.GetBalance)
		balance.GET("/audit", txHandler.GetBalanceAudit)
	}

	userHandler := NewUserHandler(deps.UserSvc)
	users := v1.Group("/users/me", jwtAuth)
	{
		users.GET("", userHandler.GetMe)
		users.PUT("", userHandler.UpdateMe)
		users.DELETE("", userHandler.DeleteMe)
	}

	// --- Internal service-to-service routes ---
	internalHandler := NewInternalHandler(deps.LedgerSvc)
	internal := r.Group("/internal", middleware.InternalAuth(deps.TokenSvc, deps.Logger))
	{
		internal.POST("/wallets", internalHandler.ProvisionWallet)
	}

	return r
}
