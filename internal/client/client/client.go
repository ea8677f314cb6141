package client

import (
	"context"

	"github.com/dmitrijs2005/memora/internal/client/models"
)

// LoginResult is the outcome of the password step. When TwoFactorRequired is
// set the token, if any, must not be used until the code is verified.
// Username is the account name the server resolved the identifier to; it is
// empty when the server did not say.
type LoginResult struct {
	Token             string
	Username          string
	TwoFactorRequired bool
}

type Client interface {
	Login(ctx context.Context, identifier, password string) (LoginResult, error)
	Signup(ctx context.Context, username, email, password string) error
	SetupTwoFactor(ctx context.Context, username string) error
	VerifyTwoFactor(ctx context.Context, username, code string) (string, error)
	ListPhotos(ctx context.Context) ([]models.Photo, error)
	UploadPhoto(ctx context.Context, asset models.Asset, note string) (models.Photo, error)
	Search(ctx context.Context, query string) ([]models.SearchHit, error)
	Analyze(ctx context.Context, mediaURL string) (models.Verdict, error)
}
