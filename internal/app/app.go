// Package app builds the HTTP service from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/zaqqye/tg_contact_form/internal/antispam"
	"github.com/zaqqye/tg_contact_form/internal/captcha"
	"github.com/zaqqye/tg_contact_form/internal/config"
	"github.com/zaqqye/tg_contact_form/internal/controllers"
	"github.com/zaqqye/tg_contact_form/internal/database"
	"github.com/zaqqye/tg_contact_form/internal/formtoken"
	"github.com/zaqqye/tg_contact_form/internal/gate"
	"github.com/zaqqye/tg_contact_form/internal/logger"
	"github.com/zaqqye/tg_contact_form/internal/notify"
	"github.com/zaqqye/tg_contact_form/internal/routes"
	"github.com/zaqqye/tg_contact_form/internal/settings"
	"github.com/zaqqye/tg_contact_form/internal/submissions"
	"github.com/zaqqye/tg_contact_form/internal/ws"
)

// Options replaces infrastructure that New would otherwise build from
// Config. Zero values mean "build from Config".
type Options struct {
	DB           *gorm.DB
	CaptchaStore captcha.SessionStore
	BotFactory   notify.BotFactory
	Mailer       notify.Mailer
}

type App struct {
	Config      *config.Config
	Log         logger.Logger
	DB          *gorm.DB
	Router      *gin.Engine
	Hub         *ws.SubmissionHub
	Settings    *settings.Store
	Repo        *submissions.Repository
	Submissions *submissions.Service

	redis *redis.Client
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Log: log, DB: opts.DB}

	if a.DB == nil {
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		a.DB = db
	}
	if err := database.Migrate(a.DB); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	if err := database.SeedAdmin(a.DB, cfg, log); err != nil {
		return nil, fmt.Errorf("admin seed failed: %w", err)
	}

	store := opts.CaptchaStore
	if store == nil {
		s, err := a.captchaStore(ctx)
		if err != nil {
			return nil, err
		}
		store = s
	}

	mailer := opts.Mailer
	if mailer == nil {
		m, err := newMailer(ctx, cfg)
		if err != nil {
			return nil, err
		}
		mailer = m
	}
	factory := opts.BotFactory
	if factory == nil {
		factory = notify.NewBotFactory(cfg.TelegramAPIURL, cfg.BotTimeout)
	}

	a.Settings = settings.NewStore(a.DB)
	a.Repo = submissions.NewRepository(a.DB)
	a.Hub = ws.NewSubmissionHub(log.WithFields(map[string]interface{}{"component": "ws"}))

	captchaSvc := captcha.NewService(store, cfg.CaptchaTTL)
	var spam antispam.Checker
	if cfg.AntiSpamURL != "" {
		spam = antispam.NewClient(cfg.AntiSpamURL, cfg.AntiSpamTimeout)
	}
	dispatcher := notify.NewDispatcher(notify.NewTelegramSender(factory, cfg.BotRatePerSecond), mailer, log)
	a.Submissions = submissions.NewService(a.Settings, gate.New(captchaSvc, spam, log), a.Repo, dispatcher, a.Hub, log)

	a.Router = gin.New()
	if err := a.Router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	a.Router.Use(gin.Recovery(), logger.GinMiddleware(log))
	routes.Register(a.Router, a.DB, cfg, routes.Controllers{
		Form: &controllers.FormController{
			Settings:     a.Settings,
			Captcha:      captchaSvc,
			Tokens:       formtoken.NewSigner(cfg.FormSecret, cfg.FormTokenTTL),
			Submissions:  a.Submissions,
			Log:          log,
			SecureCookie: cfg.IsProduction(),
			SessionTTL:   cfg.FormTokenTTL,
		},
		Auth: &controllers.AuthController{
			DB:            a.DB,
			AccessSecret:  cfg.JWTSecret,
			RefreshSecret: cfg.RefreshJWTSecret,
			AccessTTL:     cfg.AccessTTL(),
			RefreshTTL:    cfg.RefreshTTL(),
			Log:           log,
		},
		Submissions: &controllers.SubmissionController{Repo: a.Repo, Service: a.Submissions},
		Settings:    &controllers.SettingsController{Store: a.Settings, Log: log},
		Admins:      &controllers.AdminController{DB: a.DB, Log: log},
	}, a.Hub)
	return a, nil
}

func (a *App) captchaStore(ctx context.Context) (captcha.SessionStore, error) {
	if a.Config.RedisAddr == "" {
		a.Log.Warn("REDIS_ADDR not set, captcha sessions kept in memory", nil)
		return captcha.NewMemoryStore(), nil
	}
	a.redis = captcha.NewRedisClient(a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB)
	rs := captcha.NewRedisStore(a.redis)
	if err := rs.Ping(ctx); err != nil {
		return nil, err
	}
	return rs, nil
}

func newMailer(ctx context.Context, cfg *config.Config) (notify.Mailer, error) {
	switch cfg.EmailTransport {
	case "ses":
		return notify.NewSESMailer(ctx, cfg.AWSRegion, cfg.EmailFrom)
	case "smtp":
		return notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		}), nil
	}
	return nil, nil
}

// Handler exposes the router for http.Server.
func (a *App) Handler() http.Handler {
	return a.Router
}

func (a *App) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
