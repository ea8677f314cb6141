package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/memora/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// Signup prompts for username, email and password, creates the account and
// starts the two-factor challenge.
func (a *App) Signup(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Signup(ctx, username, email, string(password)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account created. A verification code was sent; enter it with 'verify <code>'.")
	return nil
}

// Login prompts for an email (or username) and password.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	out, err := a.authService.Login(ctx, identifier, string(password))
	if err != nil {
		return err
	}
	if out.TwoFactorRequired {
		fmt.Fprintln(a.out, "A verification code was sent; enter it with 'verify <code>'.")
		return nil
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", out.Username)
	return nil
}

// Verify submits the two-factor code, prompting for it when not given, and
// continues to the route the challenge was started for.
func (a *App) Verify(ctx context.Context, code string) error {
	if code == "" {
		var err error
		if code, err = getSimpleText(a.reader, "Enter verification code", a.out); err != nil {
			return err
		}
	}

	next, err := a.challenge.Verify(ctx, code)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Verified!")
	if a.Navigate(next) {
		fmt.Fprintf(a.out, "-> %s\n", routeTitle(next))
	}
	return nil
}

func (a *App) Abandon(ctx context.Context) error {
	if err := a.challenge.Abandon(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Verification cancelled.")
	return nil
}

// Logout clears the session. The gallery of the signed-out user is dropped
// even if clearing the stored session failed.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)
	a.resetGallery()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
