package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	calendarApp "github.com/qnz18/qzwhatnext/internal/calendar/application"
	calendarDomain "github.com/qnz18/qzwhatnext/internal/calendar/domain"
	caldavGateway "github.com/qnz18/qzwhatnext/internal/calendar/infrastructure/caldav"
	googleGateway "github.com/qnz18/qzwhatnext/internal/calendar/infrastructure/google"
	captureApp "github.com/qnz18/qzwhatnext/internal/capture/application"
	identityDomain "github.com/qnz18/qzwhatnext/internal/identity/domain"
	identityOAuth "github.com/qnz18/qzwhatnext/internal/identity/application/oauth"
	identitySettings "github.com/qnz18/qzwhatnext/internal/identity/application/settings"
	recurrenceApp "github.com/qnz18/qzwhatnext/internal/recurrence/application"
	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	schedulingApp "github.com/qnz18/qzwhatnext/internal/scheduling/application"
	schedulingDomain "github.com/qnz18/qzwhatnext/internal/scheduling/domain"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	sharedCrypto "github.com/qnz18/qzwhatnext/internal/shared/infrastructure/crypto"
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database"
	_ "github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database/sqlite" // register SQLite driver
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/eventbus"
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/migrations"
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/outbox"
	"github.com/qnz18/qzwhatnext/pkg/config"
	"github.com/google/uuid"
)

// Container holds every wired dependency for a single running instance:
// one SQLite connection, one user's repositories, and the application
// services built on top of them. There is exactly one tenant (UserID) per
// container, matching the single-user scope this deployment targets.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	DBConn   database.Connection
	DBDriver database.Driver

	Factory *RepositoryFactory

	TaskRepo     taskDomain.Repository
	BlockRepo    schedulingDomain.Repository
	SeriesRepo   recurrenceDomain.SeriesRepository
	TimeBlockRepo recurrenceDomain.TimeBlockRepository
	TokenRepo    identityDomain.TokenRepository
	UserRepo     identityDomain.UserRepository
	SettingsRepo identitySettings.Repository
	OutboxRepo   outbox.Repository

	EventPublisher eventbus.Publisher
	UnitOfWork     *database.GenericUnitOfWork

	OAuthService    *identityOAuth.Service
	SettingsService *identitySettings.Service

	Materializer *recurrenceApp.Materializer
	Reconciler   *calendarApp.Reconciler
	Capture      *captureApp.Orchestrator

	OutboxProcessor *outbox.Processor

	// UserID is the single local user this container operates on.
	UserID uuid.UUID
}

// gatewayFactory builds a calendarDomain.GatewayFactory bound to cfg. With
// CalDAV configured it returns a CalDAV gateway for cfg.CalDAVEndpoint
// without consulting the OAuth service; otherwise it resolves a token
// source from the OAuth service for the given user and wraps it in a
// Google gateway. Token lookup failures are translated into the sentinels the
// reconciler and capture orchestrator already know how to handle.
func gatewayFactory(cfg *config.Config, oauthSvc *identityOAuth.Service) calendarApp.GatewayFactory {
	return func(ctx context.Context, userID uuid.UUID) (calendarDomain.Gateway, error) {
		if cfg.UsesCalDAV() {
			client := &http.Client{Timeout: time.Duration(cfg.ReconcileTimeoutSeconds) * time.Second}
			gw, err := caldavGateway.New(client, cfg.CalDAVEndpoint, time.Duration(cfg.ReconcileTimeoutSeconds)*time.Second)
			if err != nil {
				return nil, fmt.Errorf("build caldav gateway: %w", err)
			}
			return gw, nil
		}

		if oauthSvc == nil {
			return nil, calendarDomain.ErrNotConnected
		}

		tokenSource, err := oauthSvc.TokenSource(ctx, userID)
		if err != nil {
			if errors.Is(err, identityDomain.ErrTokenNotFound) {
				return nil, calendarDomain.ErrNotConnected
			}
			if errors.Is(err, identityOAuth.ErrInvalidGrant) {
				return nil, calendarDomain.ErrInvalidGrant
			}
			return nil, err
		}
		return googleGateway.New(tokenSource, time.Duration(cfg.ReconcileTimeoutSeconds)*time.Second), nil
	}
}

// captureGatewayFactory adapts a calendarApp.GatewayFactory to the distinct
// (but identical in shape) type the capture orchestrator declares.
func captureGatewayFactory(f calendarApp.GatewayFactory) captureApp.GatewayFactory {
	return func(ctx context.Context, userID uuid.UUID) (calendarDomain.Gateway, error) {
		return f(ctx, userID)
	}
}

// NewContainer builds a fully wired Container against cfg's SQLite path:
// connects, migrates, ensures the local user row exists, then constructs
// every repository and application service. This is the only container
// constructor; there is no separate "local" vs. "server" split because
// SQLite is the only backend this deployment targets.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", cfg.UserID, err)
	}

	conn, err := initSQLiteConnection(ctx, cfg, userID, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		DBConn:   conn,
		DBDriver: conn.Driver(),
		UserID:   userID,
	}

	factory := NewRepositoryFactory(conn)
	c.Factory = factory
	c.TaskRepo = factory.TaskRepository()
	c.BlockRepo = factory.ScheduledBlockRepository()
	c.SeriesRepo = factory.SeriesRepository()
	c.TimeBlockRepo = factory.TimeBlockRepository()
	c.TokenRepo = factory.TokenRepository()
	c.UserRepo = factory.UserRepository()
	c.SettingsRepo = factory.SettingsRepository()
	c.OutboxRepo = factory.OutboxRepository()

	c.UnitOfWork = database.NewUnitOfWork(conn)

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		c.EventPublisher = eventbus.NewNoopPublisher(logger)
	} else {
		c.EventPublisher = publisher
	}

	c.SettingsService = identitySettings.NewService(c.SettingsRepo)

	if cfg.GoogleOAuthClientID != "" && cfg.GoogleOAuthClientSecret != "" {
		encrypter, err := sharedCrypto.NewAESGCMFromBase64Key(cfg.TokenEncryptionKey)
		if err != nil {
			logger.Warn("oauth token encryption not configured", "error", err)
		} else {
			svc, err := identityOAuth.NewService(
				"google",
				"calendar",
				cfg.GoogleOAuthClientID,
				cfg.GoogleOAuthClientSecret,
				cfg.GoogleOAuthAuthURL,
				cfg.GoogleOAuthTokenURL,
				cfg.GoogleOAuthRedirectURL,
				cfg.OAuthScopeList(),
				c.TokenRepo,
				encrypter,
			)
			if err != nil {
				logger.Warn("failed to initialize oauth service", "error", err)
			} else {
				c.OAuthService = svc
			}
		}
	}

	gateways := gatewayFactory(cfg, c.OAuthService)

	c.Materializer = recurrenceApp.NewMaterializer(c.SeriesRepo, c.TaskRepo)
	c.Reconciler = calendarApp.New(gateways, c.TaskRepo, c.BlockRepo, nil)
	c.Capture = captureApp.New(c.SeriesRepo, c.TimeBlockRepo, c.TaskRepo, c.Materializer, captureGatewayFactory(gateways), nil)

	processorConfig := outbox.ProcessorConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxRetries:   cfg.OutboxMaxRetries,
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, logger)

	logger.Info("container initialized", "database", cfg.SQLitePath, "driver", string(conn.Driver()))

	return c, nil
}

// Close releases every resource the container opened.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}
	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed")
		}
	}
}

// sqliteConnection is the subset of database.Connection the SQLite driver
// additionally exposes: a raw *sql.DB, needed to run migrations and the
// one-time local-user bootstrap before any repository touches the schema.
type sqliteConnection interface {
	database.Connection
	DB() *sql.DB
}

// initSQLiteConnection opens the SQLite database, applies pending
// migrations, and ensures the single local user row exists.
func initSQLiteConnection(ctx context.Context, cfg *config.Config, userID uuid.UUID, logger *slog.Logger) (database.Connection, error) {
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite connection: %w", err)
	}

	sqliteConn, ok := conn.(sqliteConnection)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("expected SQLite connection with DB() method, got %T", conn)
	}

	logger.Info("running SQLite migrations")
	if err := migrations.RunSQLiteMigrations(ctx, sqliteConn.DB()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("SQLite migrations completed successfully")

	if err := ensureLocalUserExists(ctx, sqliteConn.DB(), userID, logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure local user exists: %w", err)
	}

	return conn, nil
}

// ensureLocalUserExists creates the single local user row if it doesn't
// already exist.
func ensureLocalUserExists(ctx context.Context, db *sql.DB, userID uuid.UUID, logger *slog.Logger) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", userID.String()).Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check user existence: %w", err)
	}

	now := time.Now().UTC()
	_, err = db.ExecContext(ctx,
		"INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		userID.String(), "local@qzwhatnext.local", "Local User", now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create local user: %w", err)
	}

	logger.Info("created local user", "user_id", userID.String())
	return nil
}
