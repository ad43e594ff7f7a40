package main

import (
	"database/sql"
	"log"
	"os"

	dig_container "github.com/trezcool/meritlist/apps/api/di/dig"
	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/settings"
	"github.com/trezcool/meritlist/core/user"
	appfs "github.com/trezcool/meritlist/fs"
	emailsvc "github.com/trezcool/meritlist/services/email"
	logsvc "github.com/trezcool/meritlist/services/logger"
	"github.com/trezcool/meritlist/storage/database"
)

var logger *logsvc.RollbarLogger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	var db *sql.DB
	if conf.Database.Driver != dig_container.DriverMemory {
		var err error
		db, err = database.Open(conf)
		errAndDie(err)
	}
	stores, err := dig_container.NewStores(conf, db, logger)
	errAndDie(err)

	// set up services
	core.ParseEmailTemplates(appfs.FS, appfs.TemplatesDir, logger)
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	validate, translator := dig_container.NewValidator()
	svc := merit.NewService(merit.Deps{
		Repo:       stores.Merit,
		Settings:   settings.NewProvider(stores.Settings, logger, validate, translator),
		Authorizer: user.NewRoleAuthorizer(conf.Merit.ElevatedRoles...),
		Mailer:     mailSvc,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})

	// start CLI
	cli := commandLine{conf: conf, db: db, svc: svc, out: os.Stdout}
	err = cli.run(os.Args)
	if db != nil {
		_ = db.Close()
	}
	logger.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin: "+err.Error(), err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
