package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/codistan-isb/intempco-api-plugin-authentication/domain"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/config"
	httpx "github.com/codistan-isb/intempco-api-plugin-authentication/internal/http"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/http/handlers"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/http/middleware"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/audit"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/auth"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/database"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/notifications"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/ratelimit"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/infrastructure/repositories"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/logging"
	"github.com/codistan-isb/intempco-api-plugin-authentication/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Log    logging.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client

	// Repositories
	AccountRepo *repositories.AccountRepositoryImpl
	SessionRepo domain.SessionRepository
	ShopRepo    domain.ShopRepository

	// Services
	PasswordSvc     domain.PasswordService
	TokenSvc        domain.TokenService
	Dispatcher      domain.Dispatcher
	Audit           domain.AuditLogger
	CredentialSvc   domain.CredentialService
	VerificationSvc domain.VerificationService
	AccountSvc      domain.AccountService
	PolicySvc       domain.PolicyService
}

// NewContainer connects to Postgres and Redis and wires every service on top
func NewContainer(ctx context.Context, cfg *config.Config, log logging.Logger) (*Container, error) {
	db, err := database.Open(database.Options{
		DSN:             cfg.DSN,
		Schema:          cfg.DBSchema,
		LogLevel:        cfg.DBLogLevel,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		return nil, err
	}

	rdb, err := database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	c, err := NewContainerWithStores(cfg, log, db, rdb)
	if err != nil {
		rdb.Close()
		closeDB(db)
		return nil, err
	}
	return c, nil
}

// NewContainerWithStores wires the services over already opened stores and
// migrates the schema.
func NewContainerWithStores(cfg *config.Config, log logging.Logger, db *gorm.DB, rdb *redis.Client) (*Container, error) {
	if log == nil {
		log = logging.Discard()
	}
	c := &Container{Config: cfg, Log: log, DB: db, RedisClient: rdb}

	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}

	c.initRepositories()
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	c.AccountRepo = repositories.NewAccountRepository(c.DB)
	c.SessionRepo = repositories.NewSessionRepository(c.RedisClient, c.Config.SessionTTL)
	c.ShopRepo = repositories.NewShopRepository(c.DB)
}

func (c *Container) initServices() error {
	c.PasswordSvc = auth.NewPasswordService(c.Config.PasswordCost)
	c.TokenSvc = auth.NewJWTService(
		c.Config.JWTSecret,
		c.Config.JWTIssuer,
		c.Config.AccessTTL,
		c.Config.RefreshTTL,
	)
	c.Dispatcher = notifications.NewDispatcher(
		notifications.NewRedisEmailQueue(c.RedisClient, c.Config.EmailQueue),
		notifications.NewTwilioSMSSender(c.Config.TwilioSID, c.Config.TwilioToken, c.Config.TwilioFrom, c.Log),
	)
	c.Audit = audit.NewSlogAuditLogger(c.Log)

	enforcer, err := auth.NewCasbinEnforcer(c.DB)
	if err != nil {
		return err
	}
	c.PolicySvc = services.NewPolicyService(enforcer, c.Log)

	credentials := services.NewCredentialService(
		c.AccountRepo,
		c.SessionRepo,
		c.PasswordSvc,
		c.TokenSvc,
		c.Config.SessionTTL,
	)
	c.CredentialSvc = credentials

	limiter := ratelimit.NewOTPLimiter(c.RedisClient, ratelimit.Config{
		MaxAttempts:  c.Config.OTPMaxAttempts,
		AttemptTTL:   c.Config.OTPTTL,
		ResendWindow: c.Config.OTPResendWindow,
	})

	c.VerificationSvc = services.NewVerificationService(services.VerificationDeps{
		Accounts:    c.AccountRepo,
		Gate:        c.AccountRepo,
		Shops:       c.ShopRepo,
		Generator:   services.NewOTPGenerator(c.Config.OTPLength, c.Config.OTPTTL),
		Limiter:     limiter,
		Dispatcher:  c.Dispatcher,
		Credentials: credentials,
		Audit:       c.Audit,
		Log:         c.Log,
	})

	accounts, err := services.NewAccountService(services.AccountDeps{
		Credentials:  credentials,
		Verification: c.VerificationSvc,
		Resolver:     services.NewIdentityResolver(c.AccountRepo),
		Accounts:     c.AccountRepo,
		Gate:         c.AccountRepo,
		Shops:        c.ShopRepo,
		Dispatcher:   c.Dispatcher,
		Audit:        c.Audit,
		Log:          c.Log,
	}, services.AccountPolicy{
		AutoLogin:       c.Config.AutoLogin,
		AmbiguousErrors: c.Config.AmbiguousErrors,
	})
	if err != nil {
		return fmt.Errorf("failed to create account service: %w", err)
	}
	c.AccountSvc = accounts

	return nil
}

// Router builds the HTTP handler for the wired services
func (c *Container) Router() *gin.Engine {
	accountH := handlers.NewAccountHandlers(c.AccountSvc, c.CredentialSvc, c.Audit, c.Log)
	adminH := handlers.NewAdminHandlers(c.AccountSvc, c.Log)
	policyH := handlers.NewPolicyHandlers(c.PolicySvc, c.Log)

	jwtMW := middleware.NewAuthMW(c.TokenSvc, c.SessionRepo, c.Log)
	casbinMW := middleware.NewCasbinMW(c.PolicySvc, c.Log)

	return httpx.BuildRouter(accountH, adminH, policyH, jwtMW, casbinMW)
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}
	if c.DB != nil {
		return closeDB(c.DB)
	}
	return nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
