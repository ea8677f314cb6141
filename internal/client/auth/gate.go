package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/client/session"
	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/dmitrijs2005/memora/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// Gate owns the authentication phase. It is the only reader of the session
// store outside the flows that write to it.
//
// Listeners registered with Subscribe run synchronously while the gate lock is
// held; they must not call back into the Gate.
type Gate struct {
	store session.Store
	log   logging.Logger
	now   func() time.Time

	resolveOnce sync.Once
	ready       chan struct{}

	mu        sync.Mutex
	state     State
	current   Route
	nextID    int
	listeners map[int]func(Snapshot)
}

type Option func(*Gate)

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func NewGate(store session.Store, log logging.Logger, opts ...Option) *Gate {
	g := &Gate{
		store:     store,
		log:       logging.OrDiscard(log).With("component", "auth-gate"),
		now:       time.Now,
		ready:     make(chan struct{}),
		state:     State{Phase: PhaseResolving},
		listeners: make(map[int]func(Snapshot)),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Resolve loads the stored session once per Gate. Later and concurrent calls
// wait for the first one and return its result. A missing, unreadable or
// expired session resolves to PhaseUnauthenticated.
func (g *Gate) Resolve(ctx context.Context) State {
	g.resolveOnce.Do(func() {
		defer close(g.ready)

		sess, ok := g.store.Load(ctx)
		if ok && g.expired(sess.Token) {
			g.log.Info(ctx, "stored session expired", "username", sess.Username)
			if err := g.store.Clear(ctx); err != nil {
				g.log.Warn(ctx, "clearing expired session failed", "error", err)
			}
			ok = false
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		if ok {
			g.state = State{Phase: PhaseAuthenticated, Session: sess}
		} else {
			g.state = State{Phase: PhaseUnauthenticated}
		}
		g.log.Debug(ctx, "session resolved", "phase", g.state.Phase)
		g.publishLocked("")
	})

	<-g.ready
	return g.State()
}

// Ready is closed once Resolve has completed.
func (g *Gate) Ready() <-chan struct{} {
	return g.ready
}

// expired reports whether token is a JWT whose exp lies in the past. Opaque
// tokens never expire on the client.
func (g *Gate) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !g.now().Before(exp.Time)
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) Phase() Phase {
	return g.State().Phase
}

// Token returns the session token, or "" unless authenticated.
func (g *Gate) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Phase != PhaseAuthenticated {
		return ""
	}
	return g.state.Session.Token
}

// Current returns the last route the gate allowed or redirected to.
func (g *Gate) Current() Route {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Navigate evaluates the routing rule for r. On Allow and Redirect the
// resulting route becomes current.
func (g *Gate) Navigate(r Route) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	d := decide(g.state, r)
	switch d.Kind {
	case Allow:
		g.current = r
	case Redirect:
		g.current = d.Target
	}
	return d
}

// Authenticate enters PhaseAuthenticated. It is legal from
// PhaseUnauthenticated (login without 2FA) and PhasePendingTwoFactor.
// The session must already be saved by the caller.
func (g *Gate) Authenticate(s models.Session) error {
	if !s.Valid() {
		return fmt.Errorf("authenticate: %w", common.ErrEmptyInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state.Phase {
	case PhaseUnauthenticated, PhasePendingTwoFactor:
	default:
		return g.invalidLocked(PhaseAuthenticated)
	}
	g.state = State{Phase: PhaseAuthenticated, Session: s}
	g.publishLocked(g.redirectLocked())
	return nil
}

// CompleteTwoFactor saves s and enters PhaseAuthenticated in one step,
// provided p is still the pending identity. If the challenge was abandoned,
// replaced or logged out meanwhile, nothing is saved and
// common.ErrStaleResult is returned.
func (g *Gate) CompleteTwoFactor(ctx context.Context, p models.PendingIdentity, s models.Session) error {
	if !s.Valid() {
		return fmt.Errorf("complete 2fa: %w", common.ErrEmptyInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Phase != PhasePendingTwoFactor || g.state.Pending != p {
		return fmt.Errorf("complete 2fa for %q: %w", p.Username, common.ErrStaleResult)
	}
	if err := g.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	g.state = State{Phase: PhaseAuthenticated, Session: s}
	g.publishLocked(g.redirectLocked())
	return nil
}

// BeginTwoFactor enters PhasePendingTwoFactor. A new challenge replaces one
// already pending.
func (g *Gate) BeginTwoFactor(p models.PendingIdentity) error {
	if p.Username == "" {
		return fmt.Errorf("begin 2fa: %w", common.ErrEmptyInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state.Phase {
	case PhaseUnauthenticated, PhasePendingTwoFactor:
	default:
		return g.invalidLocked(PhasePendingTwoFactor)
	}
	g.state = State{Phase: PhasePendingTwoFactor, Pending: p}
	g.current = RouteTwoFactor
	g.publishLocked("")
	return nil
}

// AbandonTwoFactor drops the pending identity and returns to
// PhaseUnauthenticated.
func (g *Gate) AbandonTwoFactor() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Phase != PhasePendingTwoFactor {
		return g.invalidLocked(PhaseUnauthenticated)
	}
	g.state = State{Phase: PhaseUnauthenticated}
	g.publishLocked(g.redirectLocked())
	return nil
}

// Logout clears the store and enters PhaseUnauthenticated as one step:
// subscribers see a single snapshot redirecting to login. If clearing fails
// the phase still changes and the error is returned.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Phase == PhaseResolving {
		return g.invalidLocked(PhaseUnauthenticated)
	}

	username := g.state.Session.Username
	err := g.store.Clear(ctx)
	if err != nil {
		g.log.Error(ctx, "clearing session on logout failed", "error", err)
		err = fmt.Errorf("logout: %w", err)
	}

	g.state = State{Phase: PhaseUnauthenticated}
	g.current = RouteLogin
	g.publishLocked(RouteLogin)
	g.log.Info(ctx, "logged out", "username", username)
	return err
}

// Subscribe registers fn for snapshots published after each transition.
func (g *Gate) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	g.listeners[id] = fn

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// redirectLocked re-evaluates the routing rule for the current route after a
// phase change and moves current to the redirect target, if any.
func (g *Gate) redirectLocked() Route {
	if g.current == "" {
		return ""
	}
	d := decide(g.state, g.current)
	if d.Kind != Redirect {
		return ""
	}
	g.current = d.Target
	return d.Target
}

func (g *Gate) publishLocked(redirect Route) {
	snap := Snapshot{State: g.state, Redirect: redirect}
	for _, fn := range g.listeners {
		fn(snap)
	}
}

func (g *Gate) invalidLocked(to Phase) error {
	return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, g.state.Phase, to)
}
