package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/settings"
	"github.com/trezcool/meritlist/core/user"
)

type (
	Deps struct {
		MeritSvc   *merit.Service
		Settings   *settings.Provider
		Authorizer user.Authorizer
		Translator ut.Translator
	}

	Server struct {
		conf     *core.Config
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(conf *core.Config, logger core.Logger, deps Deps) *Server {
	s := &Server{
		conf:     conf,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup(logger, deps)
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	return s
}

func (s *Server) setup(logger core.Logger, deps Deps) {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(logger, deps.Translator, s.signalShutdown)
	s.app.Debug = s.conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(s.conf))

	registerSettingsAPI(v1, jwt, deps.Settings, deps.Authorizer)
	registerMeritAPI(v1, jwt, deps.MeritSvc, deps.Authorizer)
}

// Start listens until the server is shut down; failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
