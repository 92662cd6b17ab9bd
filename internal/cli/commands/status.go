package commands

import (
	"context"
	"fmt"

	"ShoeKeeper/internal/config"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show the local session and how the server sees it" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	auth := newApp(cfg).Auth()
	if sess := auth.CurrentUser(); sess.Authenticated() {
		fmt.Fprintf(Out, "Session: %s (user %s)\n", sess.Login, sess.UserID)
	} else {
		fmt.Fprintln(Out, "Session: not signed in")
	}
	result, err := auth.ServerStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, "Status:", result)
	return nil
}

func init() { RegisterCmd(statusCmd{}) }
