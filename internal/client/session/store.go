// Package session persists the current credential pair.
//
// Store is the only way the rest of the client reaches persisted credentials:
// the auth gate and the 2FA challenge receive a Store by injection and never
// touch the underlying database. Load never fails; any read problem is
// reported as "no session" so that callers fail closed.
package session

import (
	"context"

	"github.com/dmitrijs2005/memora/internal/client/models"
)

// Store is the durable session store.
//
//   - Load returns the stored session, or ok=false when there is none or it
//     could not be read.
//   - Save persists both halves of the pair atomically.
//   - Clear removes both halves; clearing an empty store is not an error.
type Store interface {
	Load(ctx context.Context) (s models.Session, ok bool)
	Save(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
}
