package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/five82/regsync/internal/portal"
)

const (
	envUsername = "REGSYNC_USERNAME"
	envPassword = "REGSYNC_PASSWORD"
)

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptPassword reads a password without echo. Replaced in tests.
var promptPassword = func() (string, error) {
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// credentials prefers the environment and falls back to a terminal prompt.
func (a *app) credentials(stdin io.Reader) (portal.Credentials, error) {
	creds := portal.Credentials{
		Username: strings.TrimSpace(a.getenv(envUsername)),
		Password: a.getenv(envPassword),
	}
	if creds.Username != "" && creds.Password != "" {
		return creds, nil
	}
	if !a.interactive() {
		return portal.Credentials{}, fmt.Errorf("%w: set %s and %s", portal.ErrInvalidInput, envUsername, envPassword)
	}

	if creds.Username == "" {
		fmt.Fprint(a.stderr, "Username: ")
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && line == "" {
			return portal.Credentials{}, fmt.Errorf("read username: %w", err)
		}
		creds.Username = strings.TrimSpace(line)
	}
	if creds.Password == "" {
		fmt.Fprint(a.stderr, "Password: ")
		pw, err := promptPassword()
		fmt.Fprintln(a.stderr)
		if err != nil {
			return portal.Credentials{}, fmt.Errorf("read password: %w", err)
		}
		creds.Password = pw
	}
	return creds, nil
}

// authenticate logs in with credentials from the environment or terminal.
func (a *app) authenticate(ctx context.Context) (portal.Session, error) {
	creds, err := a.credentials(os.Stdin)
	if err != nil {
		return portal.Session{}, err
	}
	sess, err := a.manager.Login(ctx, creds)
	if err != nil {
		a.store.RecordResult(nil, err)
		return portal.Session{}, err
	}
	a.store.SetSession(sess)
	return sess, nil
}
