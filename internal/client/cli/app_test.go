package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/memora/internal/client/auth"
	"github.com/dmitrijs2005/memora/internal/client/client"
	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/client/session"
	"github.com/dmitrijs2005/memora/internal/testutil"
)

type appHarness struct {
	backend *testutil.Backend
	store   *session.MemoryStore
	gate    *auth.Gate
	out     bytes.Buffer
}

func newAppHarness(t *testing.T) *appHarness {
	t.Helper()
	stubTerminal(t, false, nil)
	return &appHarness{
		backend: testutil.NewBackend(t),
		store:   session.NewMemoryStore(),
	}
}

func (h *appHarness) run(t *testing.T, lines ...string) string {
	t.Helper()
	h.gate = auth.NewGate(h.store, nil)
	api, err := client.NewHTTPClient(h.backend.URL, nil, client.WithTokenSource(h.gate.Token))
	require.NoError(t, err)

	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	app := newApp(api, h.store, h.gate, in, &h.out, nil)
	app.Run(context.Background())
	return h.out.String()
}

func TestApp_SignupVerifyUploadSearchLogout(t *testing.T) {
	h := newAppHarness(t)
	photo := filepath.Join(t.TempDir(), "sunset.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("\xff\xd8\xff\xe0 fake jpeg"), 0o600))

	out := h.run(t,
		"photos",
		"signup", "alice", "alice@example.com", "pw",
		"status",
		"verify 123456",
		"upload "+photo+" sunset on the beach",
		"photos",
		"search beach",
		"search mountains",
		"logout",
		"photos",
		"exit",
	)

	assert.Contains(t, out, "Please log in first.")
	assert.Contains(t, out, "Account created.")
	assert.Contains(t, out, "(2fa: alice)")
	assert.Contains(t, out, "Verified!")
	assert.Contains(t, out, "-> gallery")
	assert.Contains(t, out, "Uploaded photo #1")
	assert.Contains(t, out, "sunset on the beach")
	assert.Contains(t, out, "No results.")
	assert.Contains(t, out, "Logged out.")
	assert.Equal(t, 2, strings.Count(out, "Please log in first."))

	_, ok := h.store.Load(context.Background())
	assert.False(t, ok)
	assert.Equal(t, auth.PhaseUnauthenticated, h.gate.Phase())
	assert.Equal(t, 1, h.backend.Count("POST", "/photos"))
}

func TestApp_LoginWithoutTwoFactor(t *testing.T) {
	h := newAppHarness(t)
	h.backend.AddUser("carol", "carol@example.com", "pw", false)

	out := h.run(t, "login", "carol@example.com", "pw", "status", "signup")

	assert.Contains(t, out, "Welcome, carol!")
	assert.Contains(t, out, "-> home")
	assert.Contains(t, out, "(carol)")
	assert.Contains(t, out, "You are already signed in.")

	s, ok := h.store.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "carol", s.Username)
}

func TestApp_WrongPasswordShowsServerMessage(t *testing.T) {
	h := newAppHarness(t)
	h.backend.AddUser("carol", "carol@example.com", "pw", false)

	out := h.run(t, "login", "carol@example.com", "nope")

	assert.Contains(t, out, "Error: Invalid credentials")
	assert.Equal(t, auth.PhaseUnauthenticated, h.gate.Phase())
}

func TestApp_ResumesStoredSession(t *testing.T) {
	h := newAppHarness(t)
	h.backend.AddPhoto("bob", "a cat")
	require.NoError(t, h.store.Save(context.Background(), models.Session{
		Username: "bob",
		Token:    h.backend.Token("bob"),
	}))

	out := h.run(t, "photos", "login")

	assert.Contains(t, out, "Signed in as bob")
	assert.Contains(t, out, "a cat")
	assert.Contains(t, out, "You are already signed in.")
	assert.Equal(t, 0, h.backend.Count("POST", "/login"))
}

func TestApp_ExpiredStoredSessionIsCleared(t *testing.T) {
	h := newAppHarness(t)
	require.NoError(t, h.store.Save(context.Background(), models.Session{
		Username: "bob",
		Token:    h.backend.ExpiredToken("bob"),
	}))

	out := h.run(t, "photos")

	assert.NotContains(t, out, "Signed in as bob")
	assert.Contains(t, out, "Please log in first.")
	_, ok := h.store.Load(context.Background())
	assert.False(t, ok)
	assert.Equal(t, 0, h.backend.Count("GET", "/photos"))
}

func TestApp_RejectedTokenSignsOut(t *testing.T) {
	h := newAppHarness(t)
	forged, err := testutil.GenerateToken("bob", []byte("another-secret"), time.Hour)
	require.NoError(t, err)
	require.NoError(t, h.store.Save(context.Background(), models.Session{Username: "bob", Token: forged}))

	out := h.run(t, "photos", "status")

	assert.Contains(t, out, "Signed in as bob")
	assert.Contains(t, out, "Error: Invalid or expired token")
	assert.Contains(t, out, "(signed out)")
	_, ok := h.store.Load(context.Background())
	assert.False(t, ok)
}

func TestApp_Analyze(t *testing.T) {
	h := newAppHarness(t)
	h.backend.SetVerdict("AI-generated", 0.873)
	require.NoError(t, h.store.Save(context.Background(), models.Session{
		Username: "bob",
		Token:    h.backend.Token("bob"),
	}))

	out := h.run(t, "analyze https://example.com/x.png")

	assert.Contains(t, out, "Verdict: AI-generated (87.3%)")
}

func TestApp_UploadMissingFile(t *testing.T) {
	h := newAppHarness(t)
	require.NoError(t, h.store.Save(context.Background(), models.Session{
		Username: "bob",
		Token:    h.backend.Token("bob"),
	}))

	out := h.run(t, "upload "+filepath.Join(t.TempDir(), "nope.jpg"), "retry")

	assert.Contains(t, out, "Cannot read")
	assert.Contains(t, out, "Error: There is no failed upload to retry.")
	assert.Equal(t, 0, h.backend.Count("POST", "/photos"))
}

func TestApp_FailedSearchKeepsPreviousResults(t *testing.T) {
	h := newAppHarness(t)
	h.backend.AddPhoto("bob", "a cat on the roof")
	h.backend.FailNext("GET", "/search", 503, "Search index unavailable")
	require.NoError(t, h.store.Save(context.Background(), models.Session{
		Username: "bob",
		Token:    h.backend.Token("bob"),
	}))

	out := h.run(t, "search", "search cat")

	assert.Contains(t, out, "Search failed: Search index unavailable")
	assert.Contains(t, out, "Still showing all photos:")
	assert.Equal(t, 2, strings.Count(out, "a cat on the roof"))
	assert.NotContains(t, out, "Error:")
}

func TestApp_DiscardFailedUpload(t *testing.T) {
	h := newAppHarness(t)
	photo := filepath.Join(t.TempDir(), "sunset.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("\xff\xd8\xff\xe0 fake jpeg"), 0o600))
	h.backend.FailNext("POST", "/photos", 500, "Storage down")
	require.NoError(t, h.store.Save(context.Background(), models.Session{
		Username: "bob",
		Token:    h.backend.Token("bob"),
	}))

	out := h.run(t, "upload "+photo+" evening", "discard", "retry", "discard")

	assert.Contains(t, out, "Upload failed; type 'retry' to try again.")
	assert.Contains(t, out, "Error: Storage down")
	assert.Contains(t, out, "Discarded sunset.jpg.")
	assert.Equal(t, 2, strings.Count(out, "Error: There is no failed upload to retry."))
	assert.Equal(t, 1, h.backend.Count("POST", "/photos"))
}
