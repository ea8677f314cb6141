// Package twofactor runs the one-time-code step between password
// authentication and an established session.
package twofactor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/memora/internal/client/auth"
	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/dmitrijs2005/memora/internal/logging"
)

// Client is the slice of the API the challenge needs.
type Client interface {
	SetupTwoFactor(ctx context.Context, username string) error
	VerifyTwoFactor(ctx context.Context, username, code string) (token string, err error)
}

// Challenge keeps the pending identity in the gate state only; it is never
// persisted, so a restart mid-challenge lands on login.
type Challenge struct {
	client Client
	gate   *auth.Gate
	log    logging.Logger

	mu sync.Mutex
	// gen changes on every Begin and Abandon; a verify response for an older
	// generation is discarded.
	gen uint64
}

// New creates a challenge for gate. The session is saved through the gate's
// store on success.
func New(client Client, gate *auth.Gate, log logging.Logger) *Challenge {
	return &Challenge{
		client: client,
		gate:   gate,
		log:    logging.OrDiscard(log).With("component", "2fa"),
	}
}

// Pending returns the identity awaiting verification.
func (c *Challenge) Pending() (models.PendingIdentity, bool) {
	st := c.gate.State()
	if st.Phase != auth.PhasePendingTwoFactor {
		return models.PendingIdentity{}, false
	}
	return st.Pending, true
}

// Begin records the pending identity and asks the server to send a code,
// once per call. If sending fails the identity is discarded.
func (c *Challenge) Begin(ctx context.Context, username string, next auth.Route) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("begin 2fa: %w", common.ErrEmptyInput)
	}

	c.mu.Lock()
	if err := c.gate.BeginTwoFactor(models.PendingIdentity{Username: username, NextRoute: string(next)}); err != nil {
		c.mu.Unlock()
		return err
	}
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	if err := c.client.SetupTwoFactor(ctx, username); err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.gen++
			_ = c.gate.AbandonTwoFactor()
		}
		c.mu.Unlock()
		c.log.Warn(ctx, "sending 2fa code failed", "username", username, "error", err)
		return fmt.Errorf("%w: send code: %w", common.ErrCredentials, err)
	}

	c.log.Info(ctx, "2fa code sent", "username", username)
	return nil
}

// Verify submits code for the pending identity. On success the session is
// saved, the gate authenticates and the route to continue to is returned.
// On failure the challenge stays pending and Verify may be called again.
func (c *Challenge) Verify(ctx context.Context, code string) (auth.Route, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("verify 2fa: %w", common.ErrEmptyInput)
	}

	c.mu.Lock()
	pending, ok := c.Pending()
	gen := c.gen
	c.mu.Unlock()
	if !ok {
		return "", common.ErrNoPendingChallenge
	}

	token, err := c.client.VerifyTwoFactor(ctx, pending.Username, code)
	if err != nil {
		c.log.Info(ctx, "2fa code rejected", "username", pending.Username)
		return "", fmt.Errorf("%w: verify: %w", common.ErrCredentials, err)
	}
	if token == "" {
		return "", fmt.Errorf("verify: empty token: %w", common.ErrMalformedPayload)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return "", fmt.Errorf("verify: challenge replaced: %w", common.ErrStaleResult)
	}

	sess := models.Session{Token: token, Username: pending.Username}
	if err := c.gate.CompleteTwoFactor(ctx, pending, sess); err != nil {
		return "", fmt.Errorf("verify: %w", err)
	}
	c.gen++

	c.log.Info(ctx, "2fa verified", "username", pending.Username)
	if pending.NextRoute == "" {
		return auth.LandingRoute, nil
	}
	return auth.Route(pending.NextRoute), nil
}

// Abandon drops the pending identity.
func (c *Challenge) Abandon() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.gate.AbandonTwoFactor(); err != nil {
		return err
	}
	c.gen++
	return nil
}
