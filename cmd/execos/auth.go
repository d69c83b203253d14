package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/execos/execos/internal/model"
	"github.com/execos/execos/internal/session"
)

func (a *app) commandRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Display name")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := resolvePassword(*password)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := a.sessions.Register(ctx, *email, secret, *name)
	if err != nil {
		return err
	}
	if err := saveState(sessionState{Token: a.sessions.Token()}); err != nil {
		return err
	}

	fmt.Printf("registered and logged in as %s (%s)\n", user.Email, user.ID)
	return nil
}

func (a *app) commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := resolvePassword(*password)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := a.sessions.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	if err := saveState(sessionState{Token: a.sessions.Token()}); err != nil {
		return err
	}

	fmt.Printf("logged in as %s (%s)\n", user.Email, user.ID)
	return nil
}

func (a *app) commandLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	fs.Parse(args)

	st, err := loadState()
	if err != nil {
		return err
	}
	if st.Token == "" {
		fmt.Println("not logged in")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	a.client.SetAuthToken(st.Token)
	logoutErr := a.sessions.Logout(ctx)

	// The local session is gone either way; a failed remote
	// invalidation still surfaces below.
	if err := clearState(); err != nil {
		return err
	}
	if logoutErr != nil {
		return logoutErr
	}

	fmt.Println("logged out")
	return nil
}

func (a *app) commandWhoami(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := a.requireSession(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s\t%s\t%s\n", user.ID, user.Email, user.Name)
	if expiry, ok := a.sessions.ExpiresAt(); ok {
		fmt.Printf("session expires %s\n", expiry.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// requireSession restores the persisted session and returns the current
// user. Commands that act on projects or tasks call this first.
func (a *app) requireSession(ctx context.Context) (*model.User, error) {
	st, err := loadState()
	if err != nil {
		return nil, err
	}
	if st.Token == "" {
		return nil, errors.New("not logged in: run 'execos login' first")
	}

	user, err := a.sessions.Resume(ctx, st.Token)
	if err != nil {
		if errors.Is(err, session.ErrSessionExpired) {
			_ = clearState()
			return nil, errors.New("session expired: run 'execos login' again")
		}
		return nil, err
	}
	return user, nil
}

// resolvePassword takes the flag value or prompts on the terminal.
func resolvePassword(flagValue string) (string, error) {
	secret := strings.TrimSpace(flagValue)
	if secret != "" {
		return secret, nil
	}

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	secret = strings.TrimSpace(string(raw))
	if secret == "" {
		return "", errors.New("password must not be empty")
	}
	return secret, nil
}
