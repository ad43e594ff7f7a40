package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/meritlist/apps/api/echo"
	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/user"
)

// rank recomputes the ranks of the submissions selected by `scope`.
func (cli *commandLine) rank(scope merit.Scope) error {
	ranked, err := cli.svc.GetMeritRanking(context.Background(), scope)
	if err != nil {
		return errors.Wrap(err, "ranking merit submissions")
	}
	fmt.Fprintf(cli.out, "%d submission(s) ranked\n", len(ranked))
	for _, s := range ranked {
		fmt.Fprintf(cli.out, "%4d. %-30s %8.2f %s\n", s.MeritRank, s.ApplicantName, s.TotalScore, s.Program)
	}
	return nil
}

func (cli *commandLine) remind() error {
	sent, err := cli.svc.SendValidationReminders(context.Background())
	if err != nil {
		return errors.Wrap(err, "sending validation reminders")
	}
	fmt.Fprintf(cli.out, "%d reminder(s) sent\n", sent)
	return nil
}

func (cli *commandLine) token(id, uname, email, roles string) error {
	usr := user.User{
		ID:       core.CleanString(id),
		Username: core.CleanString(uname, true /* lower */),
		Email:    core.CleanString(email, true /* lower */),
	}
	for _, role := range strings.Split(roles, ",") {
		if role = core.CleanString(role, true /* lower */); role != "" {
			usr.Roles = append(usr.Roles, role)
		}
	}

	token, err := echoapi.GenerateToken(cli.conf, echoapi.GetUserClaims(cli.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
