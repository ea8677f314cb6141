package session

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/memora/internal/client/migrations"
	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/dmitrijs2005/memora/internal/cryptox"
	"github.com/dmitrijs2005/memora/internal/dbx"
	"github.com/dmitrijs2005/memora/internal/filex"
	"github.com/dmitrijs2005/memora/internal/logging"
)

const (
	databaseFile  = "memora.db"
	deviceKeyFile = "device.key"
	keySalt       = "memora-session-v1"
)

// SQLiteStore keeps the session in the app-private SQLite database. Both
// values are sealed with a key derived from the device secret.
type SQLiteStore struct {
	db     *sql.DB
	sealer *cryptox.Sealer
	log    logging.Logger
}

func NewSQLiteStore(db *sql.DB, sealer *cryptox.Sealer, log logging.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, sealer: sealer, log: logging.OrDiscard(log).With("component", "session")}
}

// Open prepares dataDir, migrates the database and loads (or creates) the
// device secret. The returned close func releases the database.
func Open(ctx context.Context, dataDir string, log logging.Logger) (*SQLiteStore, func() error, error) {
	dir, err := filex.EnsureDir(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("data dir: %w", err)
	}

	db, err := dbx.OpenSQLite(ctx, filepath.Join(dir, databaseFile))
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	secret, err := filex.LoadOrCreateSecret(filepath.Join(dir, deviceKeyFile), cryptox.KeySize)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	sealer, err := cryptox.NewSealer(cryptox.DeriveKey(secret, []byte(keySalt)))
	common.WipeByteArray(secret)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return NewSQLiteStore(db, sealer, log), db.Close, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (models.Session, bool) {
	stored, err := metadata.NewSQLiteRepository(s.db).Lookup(ctx, common.MetadataKeyUsername, common.MetadataKeyToken)
	if err != nil {
		s.log.Warn(ctx, "session read failed, treating as signed out", "error", fmt.Errorf("%w: %w", common.ErrAuthResolution, err))
		return models.Session{}, false
	}
	sealedUser, okUser := stored[common.MetadataKeyUsername]
	sealedToken, okToken := stored[common.MetadataKeyToken]
	if !okUser || !okToken {
		return models.Session{}, false
	}

	username, err := s.sealer.Open(sealedUser, common.MetadataKeyUsername)
	if err != nil {
		s.log.Warn(ctx, "stored username unreadable, treating as signed out", "error", err)
		return models.Session{}, false
	}
	token, err := s.sealer.Open(sealedToken, common.MetadataKeyToken)
	if err != nil {
		s.log.Warn(ctx, "stored token unreadable, treating as signed out", "error", err)
		return models.Session{}, false
	}

	sess := models.Session{Token: string(token), Username: string(username)}
	common.WipeByteArray(token)
	if !sess.Valid() {
		return models.Session{}, false
	}
	return sess, true
}

// Save writes the username before the token inside one transaction, so a
// concurrent reader sees either the old pair or the new one.
func (s *SQLiteStore) Save(ctx context.Context, sess models.Session) error {
	if !sess.Valid() {
		return fmt.Errorf("save session: %w", common.ErrEmptyInput)
	}

	sealedUser, err := s.sealer.Seal([]byte(sess.Username), common.MetadataKeyUsername)
	if err != nil {
		return fmt.Errorf("seal username: %w", err)
	}
	sealedToken, err := s.sealer.Seal([]byte(sess.Token), common.MetadataKeyToken)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Put(ctx, common.MetadataKeyUsername, sealedUser); err != nil {
			return err
		}
		return repo.Put(ctx, common.MetadataKeyToken, sealedToken)
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.log.Debug(ctx, "session saved", "username", sess.Username)
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := metadata.NewSQLiteRepository(s.db).Delete(ctx, common.MetadataKeyToken, common.MetadataKeyUsername)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
