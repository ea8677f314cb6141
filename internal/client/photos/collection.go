// Package photos holds the locally displayed photo collection. The collection
// is always a full snapshot of the server listing; it is never patched.
package photos

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/dmitrijs2005/memora/internal/logging"
)

// Lister fetches the full listing from the source of truth.
type Lister interface {
	ListPhotos(ctx context.Context) ([]models.Photo, error)
}

type Collection struct {
	lister Lister
	log    logging.Logger

	mu     sync.RWMutex
	photos []models.Photo
	loaded bool
	seq    uint64
	closed bool
}

func NewCollection(lister Lister, log logging.Logger) *Collection {
	return &Collection{lister: lister, log: logging.OrDiscard(log).With("component", "photos")}
}

// Refresh replaces the snapshot with a fresh listing. A listing with duplicate
// ids is rejected and the snapshot kept. If another Refresh started after this
// one, or the collection was closed meanwhile, the result is discarded with
// common.ErrStaleResult.
func (c *Collection) Refresh(ctx context.Context) ([]models.Photo, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("refresh: collection closed: %w", common.ErrStaleResult)
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	list, err := c.lister.ListPhotos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	if err := models.CheckUniqueIDs(list); err != nil {
		c.log.Error(ctx, "listing rejected", "error", err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq {
		c.log.Debug(ctx, "discarding superseded listing", "seq", seq)
		return nil, fmt.Errorf("refresh: %w", common.ErrStaleResult)
	}
	if list == nil {
		list = []models.Photo{}
	}
	c.photos = list
	c.loaded = true
	c.log.Debug(ctx, "collection refreshed", "count", len(list))
	return slices.Clone(list), nil
}

// Snapshot returns a copy of the current collection in server order.
func (c *Collection) Snapshot() []models.Photo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.photos == nil {
		return []models.Photo{}
	}
	return slices.Clone(c.photos)
}

// Loaded reports whether at least one Refresh has been applied.
func (c *Collection) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Close tears the collection down; in-flight refreshes are discarded.
func (c *Collection) Close() {
	c.mu.Lock()
	c.closed = true
	c.photos = nil
	c.mu.Unlock()
}
