package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
)

// Photos refreshes the gallery from the server and lists it.
func (a *App) Photos(ctx context.Context) error {
	return a.protected(ctx, func() error {
		list, err := a.collection.Refresh(ctx)
		if err != nil {
			return err
		}
		a.printPhotos(list, "No photos yet. Add one with 'upload <path> [note]'.")
		return nil
	})
}

// Upload reads path and uploads it with note.
func (a *App) Upload(ctx context.Context, path, note string) error {
	asset, err := models.AssetFromFile(path)
	if err != nil {
		fmt.Fprintf(a.out, "Cannot read %s: %v\n", path, err)
		return nil
	}

	return a.protected(ctx, func() error {
		p, err := a.coordinator.Upload(ctx, asset, note)
		if err != nil {
			if errors.Is(err, common.ErrUpload) {
				fmt.Fprintln(a.out, "Upload failed; type 'retry' to try again.")
			}
			return err
		}
		fmt.Fprintf(a.out, "Uploaded photo #%d\n", p.ID)
		return nil
	})
}

func (a *App) Retry(ctx context.Context) error {
	return a.protected(ctx, func() error {
		d, ok := a.coordinator.Draft()
		if ok {
			fmt.Fprintf(a.out, "Retrying %s...\n", d.Asset.Name)
		}
		p, err := a.coordinator.Retry(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Uploaded photo #%d\n", p.ID)
		return nil
	})
}

// Discard drops the draft kept from a failed upload.
func (a *App) Discard(ctx context.Context) error {
	d, ok := a.coordinator.Draft()
	if !ok {
		return common.ErrNoDraft
	}
	a.coordinator.DiscardDraft()
	fmt.Fprintf(a.out, "Discarded %s.\n", d.Asset.Name)
	return nil
}

func (a *App) printPhotos(list []models.Photo, empty string) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, empty)
		return
	}
	for _, p := range list {
		note := p.Note
		if note == "" {
			note = "-"
		}
		fmt.Fprintf(a.out, "#%-5d %s  %s\n       %s\n", p.ID, p.CreatedAt.Local().Format(time.DateTime), note, p.URL)
	}
}
