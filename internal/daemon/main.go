// Package daemon assembles the platform: database, sessions, mail
// dispatch, the automation runner and the web service.
package daemon

import (
	"context"

	"github.com/gofiber/storage"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/automation"
	"github.com/sparkcoach/sparkcoach/internal/config"
	"github.com/sparkcoach/sparkcoach/internal/db/dsn"
	"github.com/sparkcoach/sparkcoach/internal/db/models"
	"github.com/sparkcoach/sparkcoach/internal/mailer"
	"github.com/sparkcoach/sparkcoach/internal/web"
	"github.com/sparkcoach/sparkcoach/internal/web/session"
)

// Daemon represents the main application daemon. The web service is
// held by pointer: its drain flag is shared with the health handler and
// must not be copied.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
	runner     *automation.Runner
}

// Start starts the automation runner and the web service, then blocks
// until the web service stops.
func (d *Daemon) Start() error {
	if d.cfg.Automation.Enabled {
		d.runner.Start()
		defer d.runner.Stop()
	} else {
		log.Warn().Msg("automation runner is disabled by configuration")
	}

	go d.webService.WaitShutdown()

	return d.webService.Start(d.cfg.Webserver.ListenAddr())
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db := openDatabase(cfg)

	if err := db.AutoMigrate(
		&models.User{},
		&models.LoginActivity{},
		&models.Homework{},
		&models.AutomationSetting{},
		&models.AutomationLogEntry{},
		&models.Notification{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	seed(cfg, db)

	session.Init(sessionStorage(cfg))

	dispatcher := newDispatcher(cfg, db)

	runner := automation.New(db, dispatcher,
		automation.WithInterval(cfg.Automation.Interval()),
		automation.WithInitialDelay(cfg.Automation.InitialDelay()),
		automation.WithTickTimeout(cfg.Automation.TickTimeout()),
		automation.WithPortalURL(cfg.Webserver.PortalURL),
	)

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, runner, dispatcher),
		runner:     runner,
	}
}

// RunAutomations opens the database and executes a single tick, for the
// out-of-band CLI command.
func RunAutomations(ctx context.Context, cfg *config.Config) (*automation.TickReport, error) {
	db := openDatabase(cfg)

	runner := automation.New(db, newDispatcher(cfg, db),
		automation.WithTickTimeout(cfg.Automation.TickTimeout()),
		automation.WithPortalURL(cfg.Webserver.PortalURL),
	)

	ctx, cancel := context.WithTimeout(ctx, cfg.Automation.TickTimeout())
	defer cancel()

	return runner.Tick(ctx)
}

// openDatabase connects gorm with the configured engine.
func openDatabase(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector
	if cfg.DB.GormEngine == "postgres" {
		dialector = gormpostgres.Open(dsn.Create(cfg))
	} else {
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	return db
}

// sessionStorage builds the fiber session backend on the same database
// engine the application uses.
func sessionStorage(cfg *config.Config) storage.Storage {
	if cfg.DB.GormEngine == "postgres" {
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	}

	return sessionmysql.New(sessionmysql.Config{
		ConnectionURI: dsn.Create(cfg),
		Table:         "sessions",
	})
}

// newDispatcher builds the outbound mail path: SendGrid when a key is
// configured, the in-memory recorder otherwise, both wrapped with
// portal notification persistence.
func newDispatcher(cfg *config.Config, db *gorm.DB) mailer.Dispatcher {
	var transport mailer.Dispatcher
	if cfg.Mail.SendGridKey != "" {
		transport = mailer.NewSendGridDispatcher(&cfg.Mail)
	} else {
		log.Warn().Msg("no sendgrid key configured: emails are recorded, not sent")

		transport = mailer.NewDummyDispatcher()
	}

	return mailer.NewNotifyingDispatcher(db, transport)
}
