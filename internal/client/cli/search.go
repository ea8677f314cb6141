package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/memora/internal/client/client"
	"github.com/dmitrijs2005/memora/internal/common"
)

// Search filters the gallery by query. The gallery is loaded first if this
// is the first visit. When the search fails the results shown before stay on
// screen.
func (a *App) Search(ctx context.Context, query string) error {
	return a.protected(ctx, func() error {
		if !a.collection.Loaded() {
			if _, err := a.collection.Refresh(ctx); err != nil {
				return err
			}
		}

		list, err := a.reconciler.Search(ctx, query)
		if errors.Is(err, common.ErrSearch) && !errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(a.out, "Search failed:", client.UserMessage(err))
			a.printPrevious()
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(query) == "" {
			a.printPhotos(list, "No photos yet.")
			return nil
		}
		a.printPhotos(list, "No results.")
		return nil
	})
}

func (a *App) printPrevious() {
	if q := strings.TrimSpace(a.reconciler.Query()); q != "" {
		fmt.Fprintf(a.out, "Still showing results for %q:\n", q)
		a.printPhotos(a.reconciler.Results(), "No results.")
		return
	}
	fmt.Fprintln(a.out, "Still showing all photos:")
	a.printPhotos(a.reconciler.Results(), "No photos yet.")
}
