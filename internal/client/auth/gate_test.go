package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func newGate(store *fakeStore) *Gate {
	return NewGate(store, nil, WithClock(func() time.Time { return fixedNow }))
}

func resolvedGate(t *testing.T, sess *models.Session) (*Gate, *fakeStore) {
	t.Helper()
	store := &fakeStore{Session: sess}
	g := newGate(store)
	g.Resolve(context.Background())
	return g, store
}

func TestGate_HoldsUntilResolved(t *testing.T) {
	g := newGate(&fakeStore{})

	assert.Equal(t, PhaseResolving, g.Phase())
	assert.Equal(t, Decision{Kind: Hold}, g.Navigate(RouteGallery))
	assert.Equal(t, Decision{Kind: Hold}, g.Navigate(RouteLogin))
	assert.Empty(t, g.Token())

	select {
	case <-g.Ready():
		t.Fatal("ready before resolve")
	default:
	}

	st := g.Resolve(context.Background())
	assert.Equal(t, PhaseUnauthenticated, st.Phase)
	<-g.Ready()
}

func TestGate_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		session   *models.Session
		wantPhase Phase
		wantClear bool
	}{
		{"no session", nil, PhaseUnauthenticated, false},
		{"opaque token", &models.Session{Token: "opaque", Username: "alice"}, PhaseAuthenticated, false},
		{"live jwt", &models.Session{Token: "", Username: "alice"}, PhaseAuthenticated, false},
		{"expired jwt", &models.Session{Token: "", Username: "alice"}, PhaseUnauthenticated, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.session != nil && tt.session.Token == "" {
				exp := fixedNow.Add(time.Hour)
				if tt.wantClear {
					exp = fixedNow.Add(-time.Minute)
				}
				tt.session.Token = signedToken(t, exp)
			}

			g, store := resolvedGate(t, tt.session)

			assert.Equal(t, tt.wantPhase, g.Phase())
			assert.Equal(t, tt.wantClear, store.ClearCalls == 1)
			if tt.wantPhase == PhaseAuthenticated {
				assert.Equal(t, *tt.session, g.State().Session)
				assert.Equal(t, tt.session.Token, g.Token())
			} else {
				assert.Empty(t, g.Token())
			}
		})
	}
}

func TestGate_ResolveRunsOnce(t *testing.T) {
	store := &fakeStore{
		Session:  &models.Session{Token: "t", Username: "u"},
		LoadGate: make(chan struct{}),
	}
	g := newGate(store)

	var wg sync.WaitGroup
	results := make([]State, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.Resolve(context.Background())
		}(i)
	}
	close(store.LoadGate)
	wg.Wait()

	assert.Equal(t, 1, store.LoadCalls)
	for _, st := range results {
		assert.Equal(t, PhaseAuthenticated, st.Phase)
	}

	// Logging out does not make a later Resolve re-enter resolving.
	require.NoError(t, g.Logout(context.Background()))
	assert.Equal(t, PhaseUnauthenticated, g.Resolve(context.Background()).Phase)
	assert.Equal(t, 1, store.LoadCalls)
}

func TestGate_AuthenticatedRedirectsOnlyPublicRoutes(t *testing.T) {
	g, _ := resolvedGate(t, &models.Session{Token: "t", Username: "u"})

	for _, r := range []Route{RouteLogin, RouteSignup} {
		assert.Equal(t, Decision{Kind: Redirect, Target: LandingRoute}, g.Navigate(r), r)
		assert.Equal(t, LandingRoute, g.Current())
	}
	for _, r := range []Route{RouteHome, RouteGallery, RouteSearch, RouteTwoFactor, "other"} {
		assert.Equal(t, Decision{Kind: Allow}, g.Navigate(r), r)
		assert.Equal(t, r, g.Current())
	}
}

func TestGate_LoginWithoutTwoFactor(t *testing.T) {
	g, _ := resolvedGate(t, nil)

	var snaps []Snapshot
	g.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	require.Equal(t, Decision{Kind: Allow}, g.Navigate(RouteLogin))
	sess := models.Session{Token: "t", Username: "alice"}
	require.NoError(t, g.Authenticate(sess))

	require.Len(t, snaps, 1)
	assert.Equal(t, PhaseAuthenticated, snaps[0].State.Phase)
	assert.Equal(t, sess, snaps[0].State.Session)
	assert.Equal(t, LandingRoute, snaps[0].Redirect)
	assert.Equal(t, LandingRoute, g.Current())
}

func TestGate_TwoFactorFlow(t *testing.T) {
	g, _ := resolvedGate(t, nil)
	g.Navigate(RouteLogin)

	var snaps []Snapshot
	g.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	p := models.PendingIdentity{Username: "alice", NextRoute: "/"}
	require.NoError(t, g.BeginTwoFactor(p))
	assert.Equal(t, PhasePendingTwoFactor, g.Phase())
	assert.Equal(t, p, g.State().Pending)
	assert.Equal(t, RouteTwoFactor, g.Current())
	assert.Empty(t, g.Token())

	assert.Equal(t, Decision{Kind: Allow}, g.Navigate(RouteTwoFactor))
	assert.Equal(t, Decision{Kind: Redirect, Target: RouteLogin}, g.Navigate(RouteGallery))
	g.Navigate(RouteTwoFactor)

	require.NoError(t, g.Authenticate(models.Session{Token: "t", Username: "alice"}))
	assert.Equal(t, PhaseAuthenticated, g.Phase())
	assert.Equal(t, models.PendingIdentity{}, g.State().Pending)

	require.Len(t, snaps, 2)
	assert.Equal(t, PhasePendingTwoFactor, snaps[0].State.Phase)
	assert.Equal(t, PhaseAuthenticated, snaps[1].State.Phase)
	assert.Empty(t, snaps[1].Redirect)
}

func TestGate_CompleteTwoFactor(t *testing.T) {
	ctx := context.Background()
	g, store := resolvedGate(t, nil)
	p := models.PendingIdentity{Username: "alice", NextRoute: "gallery"}
	require.NoError(t, g.BeginTwoFactor(p))

	sess := models.Session{Token: "t", Username: "alice"}
	require.NoError(t, g.CompleteTwoFactor(ctx, p, sess))
	assert.Equal(t, PhaseAuthenticated, g.Phase())
	assert.Equal(t, sess, store.LastSaved)
	assert.Equal(t, "t", g.Token())
}

func TestGate_CompleteTwoFactorStale(t *testing.T) {
	ctx := context.Background()
	sess := models.Session{Token: "t", Username: "alice"}
	p := models.PendingIdentity{Username: "alice"}

	g, store := resolvedGate(t, nil)
	require.ErrorIs(t, g.CompleteTwoFactor(ctx, p, sess), common.ErrStaleResult)

	require.NoError(t, g.BeginTwoFactor(models.PendingIdentity{Username: "bob"}))
	require.ErrorIs(t, g.CompleteTwoFactor(ctx, p, sess), common.ErrStaleResult)
	assert.Equal(t, PhasePendingTwoFactor, g.Phase())

	require.NoError(t, g.BeginTwoFactor(p))
	require.NoError(t, g.Logout(ctx))
	require.ErrorIs(t, g.CompleteTwoFactor(ctx, p, sess), common.ErrStaleResult)
	assert.Equal(t, PhaseUnauthenticated, g.Phase())
	assert.False(t, store.has())

	require.ErrorIs(t, g.CompleteTwoFactor(ctx, p, models.Session{Username: "alice"}), common.ErrEmptyInput)
}

func TestGate_AbandonTwoFactor(t *testing.T) {
	g, _ := resolvedGate(t, nil)
	require.NoError(t, g.BeginTwoFactor(models.PendingIdentity{Username: "alice"}))

	var snaps []Snapshot
	g.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	require.NoError(t, g.AbandonTwoFactor())
	assert.Equal(t, PhaseUnauthenticated, g.Phase())
	require.Len(t, snaps, 1)
	assert.Equal(t, RouteLogin, snaps[0].Redirect)
	assert.Equal(t, models.PendingIdentity{}, g.State().Pending)
}

func TestGate_LogoutIsOneSnapshot(t *testing.T) {
	g, store := resolvedGate(t, &models.Session{Token: "t", Username: "alice"})
	g.Navigate(RouteGallery)

	var snaps []Snapshot
	storeClearedAtSnapshot := true
	g.Subscribe(func(s Snapshot) {
		snaps = append(snaps, s)
		storeClearedAtSnapshot = storeClearedAtSnapshot && !store.has()
	})

	require.NoError(t, g.Logout(context.Background()))

	require.Len(t, snaps, 1)
	assert.Equal(t, Snapshot{State: State{Phase: PhaseUnauthenticated}, Redirect: RouteLogin}, snaps[0])
	assert.True(t, storeClearedAtSnapshot)
	assert.False(t, store.has())
	assert.Equal(t, RouteLogin, g.Current())
	assert.Empty(t, g.Token())
}

func TestGate_LogoutClearFailureStillSignsOut(t *testing.T) {
	g, store := resolvedGate(t, &models.Session{Token: "t", Username: "alice"})
	store.ClearErr = errors.New("disk gone")

	err := g.Logout(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Equal(t, PhaseUnauthenticated, g.Phase())
	assert.Empty(t, g.Token())
}

func TestGate_InvalidTransitions(t *testing.T) {
	sess := models.Session{Token: "t", Username: "u"}

	g := newGate(&fakeStore{})
	assert.ErrorIs(t, g.Authenticate(sess), common.ErrInvalidTransition)
	assert.ErrorIs(t, g.BeginTwoFactor(models.PendingIdentity{Username: "u"}), common.ErrInvalidTransition)
	assert.ErrorIs(t, g.Logout(context.Background()), common.ErrInvalidTransition)

	authed, _ := resolvedGate(t, &sess)
	assert.ErrorIs(t, authed.Authenticate(sess), common.ErrInvalidTransition)
	assert.ErrorIs(t, authed.BeginTwoFactor(models.PendingIdentity{Username: "u"}), common.ErrInvalidTransition)
	assert.ErrorIs(t, authed.AbandonTwoFactor(), common.ErrInvalidTransition)

	unauth, _ := resolvedGate(t, nil)
	assert.ErrorIs(t, unauth.AbandonTwoFactor(), common.ErrInvalidTransition)
	assert.ErrorIs(t, unauth.Authenticate(models.Session{Token: "t"}), common.ErrEmptyInput)
	assert.ErrorIs(t, unauth.BeginTwoFactor(models.PendingIdentity{}), common.ErrEmptyInput)
	assert.Equal(t, PhaseUnauthenticated, unauth.Phase())
}

func TestGate_Unsubscribe(t *testing.T) {
	g, _ := resolvedGate(t, nil)

	calls := 0
	unsubscribe := g.Subscribe(func(Snapshot) { calls++ })
	require.NoError(t, g.BeginTwoFactor(models.PendingIdentity{Username: "u"}))
	unsubscribe()
	require.NoError(t, g.AbandonTwoFactor())

	assert.Equal(t, 1, calls)
}
