// Package testutil provides an in-process Memora backend for tests. It
// implements every endpoint the client consumes with in-memory state.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/gorilla/mux"
)

// TokenTTL is the lifetime of tokens issued by the backend.
const TokenTTL = time.Hour

// Recorded is one request as seen by the backend.
type Recorded struct {
	Method        string
	Path          string
	Query         string
	RequestID     string
	Authorization string
}

type user struct {
	username  string
	email     string
	password  string
	twoFactor bool
}

// PhotoRecord is a stored photo in wire form.
type PhotoRecord struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

type failure struct {
	status  int
	message string
}

type Backend struct {
	Server *httptest.Server
	URL    string

	secret []byte

	mu        sync.Mutex
	users     map[string]*user
	codes     map[string]string
	photos    map[string][]PhotoRecord
	nextID    int64
	nextCode  int
	verdict   map[string]any
	overrides map[string]string
	failures  map[string]failure
	requests  []Recorded
}

// NewBackend starts a backend that is shut down when t ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	secret, err := common.MakeRandHexString(32)
	if err != nil {
		t.Fatalf("backend secret: %v", err)
	}

	b := &Backend{
		secret:    []byte(secret),
		users:     make(map[string]*user),
		codes:     make(map[string]string),
		photos:    make(map[string][]PhotoRecord),
		nextCode:  123456,
		verdict:   map[string]any{"label": "human", "probability": 0.12},
		overrides: make(map[string]string),
		failures:  make(map[string]failure),
	}

	b.Server = httptest.NewServer(b.router())
	b.URL = b.Server.URL
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(b.record, b.injectFailures)

	r.HandleFunc("/login", b.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/signup", b.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/2fa/setup", b.handleSetup).Methods(http.MethodPost)
	r.HandleFunc("/2fa/verify", b.handleVerify).Methods(http.MethodPost)
	r.HandleFunc("/analyze", b.handleAnalyze).Methods(http.MethodPost)

	r.Handle("/photos", b.authed(b.handleListPhotos)).Methods(http.MethodGet)
	r.Handle("/photos", b.authed(b.handleUpload)).Methods(http.MethodPost)
	r.Handle("/search", b.authed(b.handleSearch)).Methods(http.MethodGet)
	return r
}

// AddUser registers an account directly.
func (b *Backend) AddUser(username, email, password string, twoFactor bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[username] = &user{username: username, email: email, password: password, twoFactor: twoFactor}
}

// AddPhoto stores a photo for username and returns it.
func (b *Backend) AddPhoto(username, note string) PhotoRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addPhotoLocked(username, note)
}

func (b *Backend) addPhotoLocked(username, note string) PhotoRecord {
	b.nextID++
	p := PhotoRecord{
		ID:        b.nextID,
		URL:       fmt.Sprintf("%s/uploads/%d.jpg", b.URL, b.nextID),
		Note:      note,
		CreatedAt: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
	}
	b.photos[username] = append(b.photos[username], p)
	return p
}

// Code returns the 2FA code last sent to username.
func (b *Backend) Code(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[username]
}

// Token issues a valid token for username.
func (b *Backend) Token(username string) string {
	tok, err := GenerateToken(username, b.secret, TokenTTL)
	if err != nil {
		panic(err)
	}
	return tok
}

// ExpiredToken issues a token for username that expired a minute ago.
func (b *Backend) ExpiredToken(username string) string {
	tok, err := GenerateToken(username, b.secret, -time.Minute)
	if err != nil {
		panic(err)
	}
	return tok
}

// SetVerdict changes the /analyze response.
func (b *Backend) SetVerdict(label string, probability float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.verdict = map[string]any{"label": label, "probability": probability}
}

// Override makes "METHOD /path" answer 200 with the raw body.
func (b *Backend) Override(method, path, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = body
}

// FailNext makes the next "METHOD /path" request fail with status. An empty
// message sends no JSON body.
func (b *Backend) FailNext(method, path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, message: message}
}

// Requests returns every request received so far.
func (b *Backend) Requests() []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Recorded(nil), b.requests...)
}

// Count returns how many "METHOD /path" requests were received.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			RequestID:     r.Header.Get(common.RequestIDHeaderName),
			Authorization: r.Header.Get(common.AuthorizationHeaderName),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		b.mu.Lock()
		f, failing := b.failures[key]
		delete(b.failures, key)
		body, overridden := b.overrides[key]
		b.mu.Unlock()

		switch {
		case failing && f.message == "":
			w.WriteHeader(f.status)
		case failing:
			writeError(w, f.status, f.message)
		case overridden:
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, username string)

func (b *Backend) authed(h authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix)
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		username, err := UsernameFromToken(raw, b.secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		h(w, r, username)
	})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	var u *user
	for _, cand := range b.users {
		if (req.Email != "" && cand.email == req.Email) || (req.Username != "" && cand.username == req.Username) {
			u = cand
			break
		}
	}
	b.mu.Unlock()

	if u == nil || u.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if u.twoFactor {
		writeJSON(w, http.StatusOK, map[string]any{"two_factor_required": true, "username": u.username})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": b.Token(u.username), "username": u.username})
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[req.Username]; exists {
		writeError(w, http.StatusConflict, "Username already exists")
		return
	}
	b.users[req.Username] = &user{username: req.Username, email: req.Email, password: req.Password, twoFactor: true}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User created"})
}

func (b *Backend) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.knownLocked(req.Username) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	b.codes[req.Username] = strconv.Itoa(b.nextCode)
	b.nextCode++
	writeJSON(w, http.StatusOK, map[string]any{"message": "Code sent"})
}

func (b *Backend) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Code     string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	code, ok := b.codes[req.Username]
	if ok && code == req.Code {
		delete(b.codes, req.Username)
	}
	b.mu.Unlock()

	if !ok || code != req.Code {
		writeError(w, http.StatusUnauthorized, "Invalid code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": b.Token(req.Username)})
}

func (b *Backend) handleListPhotos(w http.ResponseWriter, _ *http.Request, username string) {
	b.mu.Lock()
	list := append([]PhotoRecord(nil), b.photos[username]...)
	b.mu.Unlock()

	// An account without photos is listed as null, as the real backend does.
	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request, username string) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	f, _, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No photo provided")
		return
	}
	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Empty photo")
		return
	}

	b.mu.Lock()
	p := b.addPhotoLocked(username, r.FormValue("note"))
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

// handleSearch scores photos by how many query words their note contains.
func (b *Backend) handleSearch(w http.ResponseWriter, r *http.Request, username string) {
	words := strings.Fields(strings.ToLower(r.URL.Query().Get("q")))

	b.mu.Lock()
	list := append([]PhotoRecord(nil), b.photos[username]...)
	b.mu.Unlock()

	type hit struct {
		ID      string            `json:"id"`
		Score   float64           `json:"score"`
		Payload map[string]string `json:"payload"`
	}
	hits := []hit{}
	for _, p := range list {
		note := strings.ToLower(p.Note)
		matched := 0
		for _, w := range words {
			if strings.Contains(note, w) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, hit{
			ID:      strconv.FormatInt(p.ID, 10),
			Score:   float64(matched) / float64(len(words)),
			Payload: map[string]string{"note": p.Note},
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	writeJSON(w, http.StatusOK, hits)
}

func (b *Backend) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	b.mu.Lock()
	v := b.verdict
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, v)
}

func (b *Backend) knownLocked(username string) bool {
	_, ok := b.users[username]
	return ok
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
