// Package bootstrap wires configuration, connections and services shared by
// the API server and the management CLI.
package bootstrap

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/config"
	"github.com/noah-isme/exdb-api/internal/database"
	"github.com/noah-isme/exdb-api/internal/middleware"
	"github.com/noah-isme/exdb-api/internal/repository"
	"github.com/noah-isme/exdb-api/internal/service"
	"github.com/noah-isme/exdb-api/pkg/directory"
	"github.com/noah-isme/exdb-api/pkg/mailer"
)

// NewLogger builds the root logger at the configured level.
func NewLogger(cfg config.Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()
}

// Container holds the connections, repositories and services of one process.
type Container struct {
	Config    config.Config
	Logger    zerolog.Logger
	DB        *gorm.DB
	Redis     *redis.Client
	NATS      *nats.Conn
	Validator *validator.Validate

	Users        repository.UserRepository
	Experiences  repository.ExperienceRepository
	References   repository.ReferenceRepository
	Requirements repository.RequirementRepository
	EmailTasks   repository.EmailTaskRepository
	ActivityLogs repository.ActivityLogRepository

	Activity        service.ActivityService
	Dashboard       service.DashboardService
	Experience      service.ExperienceService
	Approval        service.ApprovalService
	Search          service.SearchService
	CompletionBoard service.CompletionBoardService
	Reference       service.ReferenceService
	Auth            service.AuthService
	Addresses       service.AddressBook
	Directory       *directory.Client
}

// New connects to the database and the optional redis and NATS servers and
// constructs every service.
func New(cfg config.Config, logger zerolog.Logger) (*Container, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Validator: validator.New(validator.WithRequiredStructEnabled()),
	}

	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(context.Background(), cfg.RedisURL, database.DefaultRedisTimeout)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, caching disabled")
		} else {
			c.Redis = client
		}
	}

	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, status events will only be logged")
		} else {
			c.NATS = conn
		}
	}

	if cfg.UsesInsecureSecret() {
		logger.Warn().Msg("jwt secret is the shipped default, set EXDB_JWT_SECRET before deploying")
	}

	c.Users = repository.NewUserRepository(db)
	c.Experiences = repository.NewExperienceRepository(db)
	c.References = repository.NewReferenceRepository(db)
	c.Requirements = repository.NewRequirementRepository(db)
	c.EmailTasks = repository.NewEmailTaskRepository(db)
	c.ActivityLogs = repository.NewActivityLogRepository(db)

	windows := service.DashboardWindows{
		HallstaffAhead: cfg.HallstaffTimeAhead,
		RequesterAhead: cfg.RequesterTimeAhead,
		Limit:          cfg.DashboardDisplayLimit,
	}
	events := service.NewEventPublisher(c.NATS, cfg.AppName, logger)

	c.Activity = service.NewActivityService(c.ActivityLogs, logger)
	c.Dashboard = service.NewDashboardService(c.Experiences, c.Redis, cfg.DashboardCacheTTL, windows, logger)
	c.Experience = service.NewExperienceService(c.Experiences, c.Users, c.References, c.Validator, c.Activity, events, c.Dashboard, logger)
	c.Approval = service.NewApprovalService(c.Experiences, c.Users, c.Validator, c.Activity, events, c.Dashboard, logger)
	c.Search = service.NewSearchService(c.Experiences, cfg.Location(), logger)
	c.CompletionBoard = service.NewCompletionBoardService(c.Requirements, c.Experiences, c.Users, logger)
	c.Reference = service.NewReferenceService(c.References, c.Requirements, c.Users, logger)
	c.Addresses = service.NewAddressBook(c.Redis, logger)

	var authenticator service.Authenticator
	if cfg.LDAP.Enabled() {
		c.Directory = directory.NewClient(directory.Config{
			URL:          cfg.LDAP.URL,
			BindDN:       cfg.LDAP.BindDN,
			BindPassword: cfg.LDAP.BindPassword,
			UserBaseDN:   cfg.LDAP.UserBaseDN,
			GroupBaseDN:  cfg.LDAP.GroupBaseDN,
			UserFilter:   cfg.LDAP.UserFilter,
		})
		authenticator = c.Directory
	}
	c.Auth = service.NewAuthService(c.Users, authenticator, cfg.JWTSecret, cfg.JWTTTL, logger)

	return c, nil
}

// EmailDispatcher builds the dispatcher with the configured mail transport.
func (c *Container) EmailDispatcher() (service.EmailDispatcher, error) {
	sender, err := mailer.NewSender(mailer.Config{
		Transport: c.Config.MailTransport,
		From:      c.Config.MailFrom,
		SMTP: mailer.SMTPConfig{
			Host:     c.Config.SMTPHost,
			Port:     c.Config.SMTPPort,
			Username: c.Config.SMTPUsername,
			Password: c.Config.SMTPPassword,
		},
		SendgridKey: c.Config.SendgridAPIKey,
	}, c.Logger)
	if err != nil {
		return nil, err
	}

	registry := service.EmailTaskRegistry(service.EmailTaskDeps{
		Experiences: c.Experiences,
		Addresses:   c.Addresses,
		Sender:      sender,
		Settings: service.EmailSettings{
			SubjectPrefix:    c.Config.MailSubjectPrefix,
			URLPrefix:        c.Config.URLPrefix,
			DigestHour:       c.Config.DigestHour,
			DigestWindow:     c.Config.DigestWindow,
			EvaluationPeriod: c.Config.EvaluationReminderPeriod,
			Location:         c.Config.Location(),
		},
		Logger: c.Logger,
	})

	return service.NewEmailDispatcher(c.EmailTasks, c.Users, c.Addresses, registry, c.Logger), nil
}

// UserSync builds the directory importer, or nil when no directory is configured.
func (c *Container) UserSync() service.UserSyncService {
	if c.Directory == nil {
		return nil
	}
	return service.NewUserSyncService(c.Directory, c.Users, c.References, c.Config.LDAP.Groups, c.Config.LDAP.StaffGroup, c.Logger)
}

// PrincipalLookup adapts the auth service for the per-request role refresh.
// Unknown and deactivated users both come back inactive.
func PrincipalLookup(auth service.AuthService) middleware.PrincipalLookup {
	return func(ctx context.Context, userID uint) (middleware.Principal, error) {
		principal, err := auth.Principal(ctx, userID)
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrInactiveUser) {
			return middleware.Principal{}, nil
		}
		if err != nil {
			return middleware.Principal{}, err
		}
		return middleware.Principal{Role: principal.Role, Superuser: principal.Superuser, Active: true}, nil
	}
}

// Close releases the connections held by the container.
func (c *Container) Close() {
	if c.NATS != nil {
		c.NATS.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
