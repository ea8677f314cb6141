package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/dmitrijs2005/memora/internal/logging"
	"github.com/dmitrijs2005/memora/internal/netx"
	"github.com/google/uuid"
)

const maxResponseSize = 32 << 20

// TokenFunc returns the current session token, or "" when signed out.
type TokenFunc func() string

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	token   TokenFunc
	log     logging.Logger
}

type Option func(*HTTPClient)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// WithTokenSource sets where protected calls get their bearer token.
func WithTokenSource(fn TokenFunc) Option {
	return func(h *HTTPClient) { h.token = fn }
}

// WithTimeout bounds every request; zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) { h.http.Timeout = d }
}

func NewHTTPClient(baseURL string, log logging.Logger, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q: want http(s)://host[:port]", baseURL)
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{},
		token:   func() string { return "" },
		log:     logging.OrDiscard(log).With("component", "api"),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	auth        bool
}

func jsonRequest(method, path string, v any) (request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return request{}, fmt.Errorf("encode %s body: %w", path, err)
	}
	return request{method: method, path: path, body: bytes.NewReader(b), contentType: "application/json"}, nil
}

// do performs r and returns the body of a 2xx response.
func (c *HTTPClient) do(ctx context.Context, r request) ([]byte, error) {
	u := c.baseURL.JoinPath(r.path)
	if r.query != nil {
		u.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, reqID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.auth {
		token := c.token()
		if token == "" {
			return nil, fmt.Errorf("%s %s: no session: %w", r.method, r.path, ErrUnauthorized)
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	log := c.log.With("method", r.method, "path", r.path, "request_id", reqID)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", r.method, r.path, ctxErr)
		}
		log.Debug(ctx, "request failed", "error", err)
		return nil, fmt.Errorf("%s %s: %w: %v", r.method, r.path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w: %v", r.method, r.path, ErrUnavailable, err)
	}
	log.Debug(ctx, "request done", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return body, nil
}

// Login sends identifier as "email" when it looks like one, else as
// "username".
func (c *HTTPClient) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	body := map[string]string{"password": password}
	if strings.Contains(identifier, "@") {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}

	r, err := jsonRequest(http.MethodPost, "/login", body)
	if err != nil {
		return LoginResult{}, err
	}
	data, err := c.do(ctx, r)
	if err != nil {
		return LoginResult{}, err
	}

	var resp struct {
		Token             string `json:"token"`
		Username          string `json:"username"`
		TwoFactorRequired bool   `json:"two_factor_required"`
	}
	if err := decodeObject(data, &resp); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Token:             resp.Token,
		Username:          resp.Username,
		TwoFactorRequired: resp.TwoFactorRequired || resp.Token == "",
	}, nil
}

func (c *HTTPClient) Signup(ctx context.Context, username, email, password string) error {
	r, err := jsonRequest(http.MethodPost, "/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, r)
	return err
}

func (c *HTTPClient) SetupTwoFactor(ctx context.Context, username string) error {
	r, err := jsonRequest(http.MethodPost, "/2fa/setup", map[string]string{"username": username})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, r)
	return err
}

func (c *HTTPClient) VerifyTwoFactor(ctx context.Context, username, code string) (string, error) {
	r, err := jsonRequest(http.MethodPost, "/2fa/verify", map[string]string{"username": username, "code": code})
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := decodeObject(data, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: verify response has no token", common.ErrMalformedPayload)
	}
	return resp.Token, nil
}

func (c *HTTPClient) ListPhotos(ctx context.Context) ([]models.Photo, error) {
	data, err := c.do(ctx, request{method: http.MethodGet, path: "/photos", auth: true})
	if err != nil {
		return nil, err
	}
	return models.DecodePhotos(data)
}

// UploadPhoto posts asset as the "photo" part with note as the "note" field.
func (c *HTTPClient) UploadPhoto(ctx context.Context, asset models.Asset, note string) (models.Photo, error) {
	body, contentType, err := netx.EncodeMultipart(netx.FilePart{
		Field:       "photo",
		FileName:    asset.Name,
		ContentType: asset.ContentType,
		Data:        asset.Data,
	}, netx.Field{Name: "note", Value: note})
	if err != nil {
		return models.Photo{}, err
	}

	data, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/photos",
		body:        body,
		contentType: contentType,
		auth:        true,
	})
	if err != nil {
		return models.Photo{}, err
	}
	return models.DecodePhoto(data)
}

func (c *HTTPClient) Search(ctx context.Context, query string) ([]models.SearchHit, error) {
	data, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/search",
		query:  url.Values{"q": {query}},
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	return models.DecodeSearchHits(data)
}

func (c *HTTPClient) Analyze(ctx context.Context, mediaURL string) (models.Verdict, error) {
	r, err := jsonRequest(http.MethodPost, "/analyze", map[string]string{"url": mediaURL})
	if err != nil {
		return models.Verdict{}, err
	}
	data, err := c.do(ctx, r)
	if err != nil {
		return models.Verdict{}, err
	}
	return models.DecodeVerdict(data)
}

func decodeObject(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty body", common.ErrMalformedPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: field %s: %v", common.ErrMalformedPayload, typeErr.Field, err)
		}
		return fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}
	return nil
}

var _ Client = (*HTTPClient)(nil)
