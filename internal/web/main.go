// Package web wires the JSON API: route registration, session-backed
// authentication and the graceful shutdown dance for load balancers.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/auth"
	"github.com/sparkcoach/sparkcoach/internal/automation"
	"github.com/sparkcoach/sparkcoach/internal/config"
	fiberlogger "github.com/sparkcoach/sparkcoach/internal/logger/adapter/fiber"
	"github.com/sparkcoach/sparkcoach/internal/mailer"
	adminautomation "github.com/sparkcoach/sparkcoach/internal/web/handler/admin/automation"
	"github.com/sparkcoach/sparkcoach/internal/web/handler/admin/client"
	"github.com/sparkcoach/sparkcoach/internal/web/handler/health"
	"github.com/sparkcoach/sparkcoach/internal/web/handler/homework"
	"github.com/sparkcoach/sparkcoach/internal/web/handler/login"
	"github.com/sparkcoach/sparkcoach/internal/web/handler/notification"
	"github.com/sparkcoach/sparkcoach/internal/web/handler/passwordreset"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *auth.Service
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal and drains before
// stopping the listener.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: flip the liveness endpoint
	// to 503 so the LB removes this instance from active targets first.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration. The
// runner powers the coach's manual run endpoint; the dispatcher serves
// the password reset and ad-hoc notification handlers.
func New(cfg *config.Config, db *gorm.DB, runner *automation.Runner, dispatcher mailer.Dispatcher) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: health.Path,
	}))

	authService := auth.NewService(db)

	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authService: authService,
	}
	service.alive.Store(true)

	health.Handler.Init(app, db, &service.alive)

	if err := login.Handler.Init(app, cfg, db, authService); err != nil {
		log.Fatal().Err(err).Msg("failed to init login handler")
	}

	if err := passwordreset.Handler.Init(app, cfg, db, dispatcher); err != nil {
		log.Fatal().Err(err).Msg("failed to init password reset handler")
	}

	if err := client.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init client handler")
	}

	if err := homework.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init homework handler")
	}

	if err := notification.Handler.Init(app, cfg, db, dispatcher); err != nil {
		log.Fatal().Err(err).Msg("failed to init notification handler")
	}

	if err := adminautomation.Handler.Init(app, cfg, db, runner); err != nil {
		log.Fatal().Err(err).Msg("failed to init automation handler")
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": cfg.Title, "status": "ok"})
	})

	return service
}
