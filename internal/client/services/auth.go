// Package services contains application services for the Memora client.
// This file defines the authentication service: password login, signup and
// logout, wired to the auth gate and the 2FA challenge.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/memora/internal/client/auth"
	"github.com/dmitrijs2005/memora/internal/client/client"
	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/client/session"
	"github.com/dmitrijs2005/memora/internal/client/twofactor"
	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/dmitrijs2005/memora/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: password step. Either authenticates directly or starts the 2FA
//     challenge, as the server decides.
//   - Signup: create the account, then start the 2FA challenge.
//   - Logout: clear the session and sign out in one step.
//
// Rejections by the server match common.ErrCredentials and leave the auth
// phase unchanged.
type AuthService interface {
	Login(ctx context.Context, identifier, password string) (LoginOutcome, error)
	Signup(ctx context.Context, username, email, password string) error
	Logout(ctx context.Context) error
}

// LoginOutcome reports where a successful password step leads.
type LoginOutcome struct {
	Username          string
	TwoFactorRequired bool
}

// AuthClient is the slice of the API the service needs.
type AuthClient interface {
	Login(ctx context.Context, identifier, password string) (client.LoginResult, error)
	Signup(ctx context.Context, username, email, password string) error
}

type authService struct {
	client    AuthClient
	store     session.Store
	gate      *auth.Gate
	challenge *twofactor.Challenge
	log       logging.Logger
}

// NewAuthService constructs an AuthService. The challenge must share gate.
func NewAuthService(c AuthClient, store session.Store, gate *auth.Gate, challenge *twofactor.Challenge, log logging.Logger) AuthService {
	return &authService{
		client:    c,
		store:     store,
		gate:      gate,
		challenge: challenge,
		log:       logging.OrDiscard(log).With("component", "auth-service"),
	}
}

// Login sends the password step. With 2FA enabled (or when the server
// withholds the token) the gate moves to PendingTwoFactor and a code is sent;
// otherwise the session is saved and the gate authenticates.
func (a *authService) Login(ctx context.Context, identifier, password string) (LoginOutcome, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return LoginOutcome{}, fmt.Errorf("login: %w", common.ErrEmptyInput)
	}

	res, err := a.client.Login(ctx, identifier, password)
	if err != nil {
		return LoginOutcome{}, fmt.Errorf("%w: login: %w", common.ErrCredentials, err)
	}

	username := res.Username
	if username == "" {
		username = identifier
	}

	if res.TwoFactorRequired {
		if err := a.challenge.Begin(ctx, username, auth.LandingRoute); err != nil {
			return LoginOutcome{}, err
		}
		return LoginOutcome{Username: username, TwoFactorRequired: true}, nil
	}

	sess := models.Session{Token: res.Token, Username: username}
	if err := a.store.Save(ctx, sess); err != nil {
		return LoginOutcome{}, fmt.Errorf("login: %w", err)
	}
	if err := a.gate.Authenticate(sess); err != nil {
		return LoginOutcome{}, err
	}

	a.log.Info(ctx, "logged in", "username", username)
	return LoginOutcome{Username: username}, nil
}

// Signup creates the account and starts the 2FA challenge, continuing to the
// gallery once verified.
func (a *authService) Signup(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("signup: %w", common.ErrEmptyInput)
	}

	if err := a.client.Signup(ctx, username, email, password); err != nil {
		return fmt.Errorf("%w: signup: %w", common.ErrCredentials, err)
	}
	a.log.Info(ctx, "account created", "username", username)

	return a.challenge.Begin(ctx, username, auth.RouteGallery)
}

func (a *authService) Logout(ctx context.Context) error {
	return a.gate.Logout(ctx)
}
