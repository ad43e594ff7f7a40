package dig_container

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/meritlist/apps/api/echo"
	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/settings"
	"github.com/trezcool/meritlist/core/user"
	emailsvc "github.com/trezcool/meritlist/services/email"
	logsvc "github.com/trezcool/meritlist/services/logger"
	"github.com/trezcool/meritlist/storage/database"
	dummydb "github.com/trezcool/meritlist/storage/database/dummy"
	gormrepos "github.com/trezcool/meritlist/storage/database/gorm"
	sqlxrepos "github.com/trezcool/meritlist/storage/database/sqlx"
)

const (
	DriverSqlx   = "sqlx"
	DriverGorm   = "gorm"
	DriverMemory = "memory"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Stores are the repositories of the configured database driver.
	Stores struct {
		dig.Out
		Merit    merit.Repository
		Settings settings.Repository
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newDB sets up the Postgres database; it returns a nil *sql.DB for the memory driver.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sql.DB {
	if conf.Database.Driver == DriverMemory {
		return nil
	}

	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newStores(conf *core.Config, db *sql.DB, loggerParam DBLoggerParam) (Stores, error) {
	return NewStores(conf, db, loggerParam.Logger)
}

// NewStores returns the repositories of the configured database driver over `db`.
// `db` is not used by the memory driver.
func NewStores(conf *core.Config, db *sql.DB, dbLogger core.Logger) (Stores, error) {
	switch conf.Database.Driver {
	case DriverSqlx:
		xdb := sqlx.NewDb(db, conf.Database.Engine)
		return Stores{
			Merit:    sqlxrepos.NewMeritRepository(xdb),
			Settings: sqlxrepos.NewSettingsRepository(xdb),
		}, nil
	case DriverGorm:
		gdb, err := gormrepos.Open(db, dbLogger, conf.Debug)
		if err != nil {
			return Stores{}, err
		}
		return Stores{
			Merit:    gormrepos.NewMeritRepository(gdb),
			Settings: gormrepos.NewSettingsRepository(gdb),
		}, nil
	case DriverMemory:
		mdb, err := dummydb.Open()
		if err != nil {
			return Stores{}, err
		}
		return Stores{
			Merit:    dummydb.NewMeritRepository(mdb),
			Settings: dummydb.NewSettingsRepository(mdb),
		}, nil
	}
	return Stores{}, errors.Errorf("unknown database driver %q", conf.Database.Driver)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newAuthorizer(conf *core.Config) user.Authorizer {
	return user.NewRoleAuthorizer(conf.Merit.ElevatedRoles...)
}

// NewValidator returns a validator with the core and merit tags registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	merit.InitValidators(validate, translator)
	return validate, translator
}

func newSettingsProvider(repo settings.Repository, logger core.Logger, validate *validator.Validate, translator ut.Translator) *settings.Provider {
	return settings.NewProvider(repo, logger, validate, translator)
}

func newMeritService(
	repo merit.Repository,
	provider *settings.Provider,
	authorizer user.Authorizer,
	mailer core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
) *merit.Service {
	return merit.NewService(merit.Deps{
		Repo:       repo,
		Settings:   provider,
		Authorizer: authorizer,
		Mailer:     mailer,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	svc *merit.Service,
	provider *settings.Provider,
	authorizer user.Authorizer,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(conf, logger, echoapi.Deps{
		MeritSvc:   svc,
		Settings:   provider,
		Authorizer: authorizer,
		Translator: translator,
	})
}

// New returns a new dependency injection dig.Container.
// `newConfig` builds the configuration, eg. core.NewConfig.
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newStores))
	must(c.Provide(newEmailService))
	must(c.Provide(newAuthorizer))
	must(c.Provide(NewValidator))
	must(c.Provide(newSettingsProvider))
	must(c.Provide(newMeritService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
