package commands

import (
	"context"
	"fmt"

	"ShoeKeeper/internal/config"
)

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store the session" }
func (loginCmd) Usage() string       { return "login <login> [password]" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	login, password, err := credentials(args)
	if err != nil {
		return err
	}
	sess, err := newApp(cfg).Auth().Login(ctx, login, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Logged in as %s (user %s)\n", sess.Login, sess.UserID)
	return nil
}

func init() { RegisterCmd(loginCmd{}) }
