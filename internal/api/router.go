package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/velia/accounts-api/docs"
	"github.com/velia/accounts-api/internal/api/handler"
	"github.com/velia/accounts-api/internal/api/middleware"
	"github.com/velia/accounts-api/internal/core/ports"
	"github.com/velia/accounts-api/internal/core/service"
	"github.com/velia/accounts-api/internal/infrastructure/config"
	mongorepo "github.com/velia/accounts-api/internal/infrastructure/db/mongo"
	redisstore "github.com/velia/accounts-api/internal/infrastructure/db/redis"
	"github.com/velia/accounts-api/internal/pkg/security"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	cfg *config.Config,
	log zerolog.Logger,
	db *mongo.Database,
	rdb *redis.Client,
	mailer ports.Mailer,
	identity ports.IdentityVerifier,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Dependencies ---
	accountRepo := mongorepo.NewAccountRepository(db)
	preferencesRepo := mongorepo.NewPreferencesRepository(db)
	sessionStore := redisstore.NewSessionStore(rdb, cfg.Session.TTL)
	hasher := security.NewPasswordHasher(cfg.BcryptCost)

	accountService := service.NewAccountService(accountRepo, sessionStore, mailer, identity, hasher, cfg.BaseURL, log)
	preferencesService := service.NewPreferencesService(preferencesRepo)

	cookie := handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: !cfg.IsDevelopment(),
		TTL:    cfg.Session.TTL,
	}
	accountHandler := handler.NewAccountHandler(accountService, cookie)
	resetHandler := handler.NewPasswordResetHandler(accountService)
	preferencesHandler := handler.NewPreferencesHandler(preferencesService)
	healthHandler := handler.NewHealthHandler(db, rdb)

	requireSession := middleware.Session(sessionStore, cfg.Session.CookieName)

	// --- Auth routes ---
	e.POST("/auth/register", accountHandler.Register)
	e.GET("/auth/verify-email", accountHandler.VerifyEmail)
	e.POST("/auth/verify-email/resend", accountHandler.ResendVerification)
	e.POST("/auth/login", accountHandler.Login)
	e.POST("/auth/google", accountHandler.LoginWithGoogle)
	e.POST("/auth/logout", accountHandler.Logout, requireSession)
	e.POST("/auth/password-reset/request", resetHandler.Request)
	e.POST("/auth/password-reset/complete", resetHandler.Complete)

	// --- Account routes (session required) ---
	account := e.Group("/account", requireSession)
	account.GET("", accountHandler.Me)
	account.PATCH("", accountHandler.UpdateProfile)
	account.PUT("/password", accountHandler.ChangePassword)
	account.GET("/preferences", preferencesHandler.Get)
	account.PUT("/preferences", preferencesHandler.Update)

	// --- Admin routes ---
	admin := e.Group("/admin", requireSession, middleware.RequireAdmin())
	admin.GET("/accounts", accountHandler.ListAccounts)

	// --- Operational endpoints ---
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness)     // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
