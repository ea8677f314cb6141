// Package upload serializes photo uploads for one collection.
package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/dmitrijs2005/memora/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

type Uploader interface {
	UploadPhoto(ctx context.Context, asset models.Asset, note string) (models.Photo, error)
}

// Refresher re-lists the collection after a successful upload.
type Refresher interface {
	Refresh(ctx context.Context) ([]models.Photo, error)
}

// Draft is the asset and note of the last failed upload, kept in memory so
// the user can retry without picking the asset again.
type Draft struct {
	ID    uuid.UUID
	Asset models.Asset
	Note  string
}

// Coordinator allows at most one upload in flight. A call made while one is
// running fails with common.ErrUploadBusy without touching the network.
type Coordinator struct {
	uploader  Uploader
	refresher Refresher
	log       logging.Logger

	inflight *semaphore.Weighted

	mu    sync.Mutex
	draft *Draft
}

func NewCoordinator(uploader Uploader, refresher Refresher, log logging.Logger) *Coordinator {
	return &Coordinator{
		uploader:  uploader,
		refresher: refresher,
		log:       logging.OrDiscard(log).With("component", "upload"),
		inflight:  semaphore.NewWeighted(1),
	}
}

// Upload submits asset with note. On success the draft is dropped and the
// collection refreshed from the server; on failure the collection is left
// alone and the draft kept for Retry.
func (c *Coordinator) Upload(ctx context.Context, asset models.Asset, note string) (models.Photo, error) {
	if asset.Empty() {
		return models.Photo{}, fmt.Errorf("upload: %w", common.ErrEmptyInput)
	}
	if !c.inflight.TryAcquire(1) {
		return models.Photo{}, common.ErrUploadBusy
	}
	defer c.inflight.Release(1)

	return c.submit(ctx, Draft{ID: uuid.New(), Asset: asset, Note: note})
}

// Retry re-submits the retained draft.
func (c *Coordinator) Retry(ctx context.Context) (models.Photo, error) {
	if !c.inflight.TryAcquire(1) {
		return models.Photo{}, common.ErrUploadBusy
	}
	defer c.inflight.Release(1)

	d, ok := c.Draft()
	if !ok {
		return models.Photo{}, common.ErrNoDraft
	}
	return c.submit(ctx, d)
}

// Draft returns the draft kept from the last failed upload.
func (c *Coordinator) Draft() (Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return Draft{}, false
	}
	return *c.draft, true
}

// DiscardDraft drops the retained draft, if any.
func (c *Coordinator) DiscardDraft() {
	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
}

func (c *Coordinator) submit(ctx context.Context, d Draft) (models.Photo, error) {
	log := c.log.With("draft", d.ID.String(), "asset", d.Asset.Name)

	photo, err := c.uploader.UploadPhoto(ctx, d.Asset, d.Note)
	if err != nil {
		c.mu.Lock()
		c.draft = &d
		c.mu.Unlock()
		log.Warn(ctx, "upload failed, draft kept", "error", err)
		return models.Photo{}, fmt.Errorf("%w: %w", common.ErrUpload, err)
	}

	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
	log.Info(ctx, "photo uploaded", "id", photo.ID)

	if _, err := c.refresher.Refresh(ctx); err != nil {
		log.Warn(ctx, "refresh after upload failed", "error", err)
	}
	return photo, nil
}
