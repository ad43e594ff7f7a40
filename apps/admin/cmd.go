package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	db   *sql.DB // nil with the memory driver
	svc  *merit.Service
	out  io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose command (up, down, status, version...)")
	fmt.Fprintln(cli.out, "  rank -year YEAR [-program PROGRAM] [-pending] - recompute merit ranks")
	fmt.Fprintln(cli.out, "  remind - email validators about validations left open for too long")
	fmt.Fprintln(cli.out, "  token -id ID -username USERNAME [-email EMAIL] [-roles ROLE,...] - issue an API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	rankCmd := flag.NewFlagSet("rank", flag.ContinueOnError)
	rankCmd.SetOutput(cli.out)
	rankYear := rankCmd.String("year", "", "The academic year to rank.")
	rankProgram := rankCmd.String("program", "", "Only rank this program.")
	rankPending := rankCmd.Bool("pending", false, "Also rank committed submissions that are not approved yet.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenCmd.SetOutput(cli.out)
	tokenID := tokenCmd.String("id", "", "The user's ID.")
	tokenUname := tokenCmd.String("username", "", "The user's username.")
	tokenEmail := tokenCmd.String("email", "", "The user's email.")
	tokenRoles := tokenCmd.String("roles", "", "Comma separated roles, eg. admin:,staff:academics")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "rank":
		if err := rankCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *rankYear == "" {
			rankCmd.Usage()
			return errHelp
		}
		return cli.rank(merit.Scope{AcademicYear: *rankYear, Program: *rankProgram, IncludePending: *rankPending})
	case "remind":
		return cli.remind()
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenID == "" || *tokenUname == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenID, *tokenUname, *tokenEmail, *tokenRoles)
	default:
		cli.printUsage()
		return errHelp
	}
}
