package commands

import (
	"context"
	"fmt"

	"ShoeKeeper/internal/config"
)

type registerCmd struct{}

func (registerCmd) Name() string        { return "register" }
func (registerCmd) Description() string { return "Create an account and sign in" }
func (registerCmd) Usage() string       { return "register <login> [password]" }

func (registerCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	login, password, err := credentials(args)
	if err != nil {
		return err
	}
	sess, err := newApp(cfg).Auth().Register(ctx, login, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Registered and logged in as %s (user %s)\n", sess.Login, sess.UserID)
	return nil
}

func init() { RegisterCmd(registerCmd{}) }
