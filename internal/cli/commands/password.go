package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword спрашивает пароль без эха; если stdin не терминал, читает строку как есть.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// credentials разбирает "<login> [password]" и при необходимости спрашивает пароль.
func credentials(args []string) (string, string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", "", ErrUsage
	}
	login := args[0]
	if len(args) == 2 {
		return login, args[1], nil
	}
	password, err := readPassword("Password: ")
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	if password == "" {
		return "", "", errors.New("empty password")
	}
	return login, password, nil
}
