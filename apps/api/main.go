package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	dig_container "github.com/trezcool/meritlist/apps/api/di/dig"
	echoapi "github.com/trezcool/meritlist/apps/api/echo"
	"github.com/trezcool/meritlist/core"
	appfs "github.com/trezcool/meritlist/fs"
)

func main() {
	c := dig_container.New(core.NewConfig)

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		db *sql.DB,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q, database driver %q", conf.Build, conf.Database.Driver))

		core.ParseEmailTemplates(appfs.FS, appfs.TemplatesDir, apiLogger)

		if db != nil {
			dbLogger := dbLoggerParam.Logger
			defer func() {
				if err := db.Close(); err != nil {
					dbLogger.Fatal("Failed to close", err)
				}
			}()
		}
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start API Service

		go server.Start()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
