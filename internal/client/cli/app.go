package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/memora/internal/client/auth"
	"github.com/dmitrijs2005/memora/internal/client/client"
	"github.com/dmitrijs2005/memora/internal/client/config"
	"github.com/dmitrijs2005/memora/internal/client/photos"
	"github.com/dmitrijs2005/memora/internal/client/search"
	"github.com/dmitrijs2005/memora/internal/client/services"
	"github.com/dmitrijs2005/memora/internal/client/session"
	"github.com/dmitrijs2005/memora/internal/client/twofactor"
	"github.com/dmitrijs2005/memora/internal/client/upload"
	"github.com/dmitrijs2005/memora/internal/logging"
)

// App wires the client core to a line-oriented terminal.
type App struct {
	api   client.Client
	store session.Store
	gate  *auth.Gate
	log   logging.Logger

	authService     services.AuthService
	analysisService services.AnalysisService
	challenge       *twofactor.Challenge

	// Gallery state is per signed-in user and rebuilt on sign-out.
	collection  *photos.Collection
	reconciler  *search.Reconciler
	coordinator *upload.Coordinator

	reader     *bufio.Reader
	out        io.Writer
	closeStore func() error
}

var _ execIface = (*App)(nil)

// NewApp opens the local session store under cfg.DataDir and connects the
// API client to cfg.BackendURL.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, log logging.Logger) (*App, error) {
	store, closeStore, err := session.Open(ctx, cfg.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	gate := auth.NewGate(store, log)
	api, err := client.NewHTTPClient(cfg.BackendURL, log,
		client.WithTokenSource(gate.Token),
		client.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	a := newApp(api, store, gate, in, out, log)
	a.closeStore = closeStore
	return a, nil
}

func newApp(api client.Client, store session.Store, gate *auth.Gate, in io.Reader, out io.Writer, log logging.Logger) *App {
	log = logging.OrDiscard(log)
	challenge := twofactor.New(api, gate, log)

	a := &App{
		api:             api,
		store:           store,
		gate:            gate,
		log:             log,
		challenge:       challenge,
		authService:     services.NewAuthService(api, store, gate, challenge, log),
		analysisService: services.NewAnalysisService(api),
		reader:          bufio.NewReader(in),
		out:             out,
		closeStore:      func() error { return nil },
	}
	a.resetGallery()

	gate.Subscribe(func(s auth.Snapshot) {
		if s.Redirect != "" {
			fmt.Fprintf(a.out, "-> %s\n", routeTitle(s.Redirect))
		}
	})
	return a
}

// resetGallery drops everything loaded for the previous user.
func (a *App) resetGallery() {
	if a.collection != nil {
		a.collection.Close()
	}
	a.collection = photos.NewCollection(a.api, a.log)
	a.reconciler = search.NewReconciler(a.api.Search, a.collection, a.log)
	a.coordinator = upload.NewCoordinator(a.api, a.collection, a.log)
}

// Run resolves the stored session, then serves commands until EOF or exit.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.closeStore(); err != nil {
			a.log.Warn(ctx, "closing session store", "error", err)
		}
	}()

	fmt.Fprintln(a.out, "Welcome to Memora (type 'help' for commands)")

	resolveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	st := a.gate.Resolve(resolveCtx)
	cancel()

	if st.Phase == auth.PhaseAuthenticated {
		fmt.Fprintf(a.out, "Signed in as %s\n", st.Session.Username)
		a.Navigate(auth.LandingRoute)
	} else {
		a.Navigate(auth.RouteLogin)
		fmt.Fprintln(a.out, "Type 'login' or 'signup' to continue.")
	}

	runREPL(ctx, a, a.reader, a.out)
}

// Navigate applies the gate's decision for r and reports whether the
// command for r may run.
func (a *App) Navigate(r auth.Route) bool {
	d := a.gate.Navigate(r)
	switch d.Kind {
	case auth.Allow:
		return true
	case auth.Hold:
		fmt.Fprintln(a.out, "Still loading, try again.")
		return false
	default:
		if d.Target == auth.RouteLogin {
			fmt.Fprintln(a.out, "Please log in first.")
		} else {
			fmt.Fprintln(a.out, "You are already signed in.")
		}
		fmt.Fprintf(a.out, "-> %s\n", routeTitle(d.Target))
		return false
	}
}

func (a *App) Status() string {
	st := a.gate.State()
	switch st.Phase {
	case auth.PhaseAuthenticated:
		return fmt.Sprintf("(%s)", st.Session.Username)
	case auth.PhasePendingTwoFactor:
		return fmt.Sprintf("(2fa: %s)", st.Pending.Username)
	case auth.PhaseResolving:
		return "(loading)"
	default:
		return "(signed out)"
	}
}

func (a *App) Help() string {
	switch a.gate.Phase() {
	case auth.PhaseAuthenticated:
		return "Available commands: photos, upload <path> [note], retry, discard, search [query], analyze <url>, status, logout, exit"
	case auth.PhasePendingTwoFactor:
		return "Available commands: verify [code], abandon, login, signup, status, exit"
	default:
		return "Available commands: login, signup, status, exit"
	}
}

// protected runs fn and signs the user out when the server no longer
// accepts the session.
func (a *App) protected(ctx context.Context, fn func() error) error {
	err := fn()
	if err != nil && errors.Is(err, client.ErrUnauthorized) && a.gate.Phase() == auth.PhaseAuthenticated {
		a.log.Info(ctx, "session rejected by server, signing out")
		if lerr := a.gate.Logout(ctx); lerr != nil {
			a.log.Warn(ctx, "sign out after rejection", "error", lerr)
		}
		a.resetGallery()
	}
	return err
}

func routeTitle(r auth.Route) string {
	switch r {
	case auth.RouteHome:
		return "home"
	case auth.RouteTwoFactor:
		return "two-factor verification"
	default:
		return string(r)
	}
}
