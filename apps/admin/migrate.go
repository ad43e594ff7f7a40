package main

import (
	"errors"

	"github.com/trezcool/meritlist/storage/database"
)

var (
	gooseRunFunc = database.Migrate // mockable

	errNoDatabase = errors.New("the memory driver has no database to migrate")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
