package handler

import (
	"invest-platform/internal/adapter/http/middleware"
	redisStore "invest-platform/internal/adapter/storage/redis"
	"invest-platform/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	InvestmentSvc  ports.InvestmentService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	authHandler := NewAuthHandler(deps.AuthSvc)
	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.ReportingSvc)
	investmentHandler := NewInvestmentHandler(deps.InvestmentSvc)
	adminHandler := NewAdminHandler(deps.LedgerSvc, deps.InvestmentSvc, deps.ReportingSvc)

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}
	v1.GET("/plans", rl("dashboard"), investmentHandler.ListPlans)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	user := v1.Group("", jwtAuth)
	{
		user.GET("/me", rl("dashboard"), authHandler.Me)
		user.GET("/wallet", rl("dashboard"), walletHandler.GetWallet)
		user.POST("/wallet/deposit", rl("deposits"), walletHandler.Deposit)
		user.POST("/wallet/withdraw", rl("withdrawals"), walletHandler.Withdraw)
		user.GET("/transactions", rl("dashboard"), walletHandler.ListTransactions)
		user.GET("/referrals", rl("dashboard"), walletHandler.ListReferrals)
		user.GET("/investments", rl("dashboard"), investmentHandler.ListMine)
		user.POST("/investments", rl("investments"), investmentHandler.Create)
	}

	// --- Admin routes (JWT + admin claim) ---
	admin := v1.Group("/admin", jwtAuth, middleware.AdminOnly())
	{
		admin.GET("/stats", rl("dashboard"), adminHandler.GetStats)
		admin.GET("/users", rl("dashboard"), adminHandler.ListUsers)
		admin.GET("/investments", rl("dashboard"), adminHandler.ListInvestments)
		admin.GET("/transactions", rl("dashboard"), adminHandler.ListTransactions)
		admin.POST("/transactions/:id/approve", adminHandler.Approve)
		admin.POST("/transactions/:id/reject", adminHandler.Reject)
		admin.POST("/accrual/run", adminHandler.RunAccrual)
	}

	return r
}
