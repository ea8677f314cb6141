// Package search merges scored search hits with the local photo collection.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
)

// Func queries the external search collaborator. Hits come back in
// relevance order.
type Func func(ctx context.Context, query string) ([]models.SearchHit, error)

// Reconcile returns the photos of local matched by the hits for query.
//
// A blank query returns local itself, untouched. Otherwise the result follows
// hit order, drops hits with no local photo, and never lists a photo twice.
// No matches yields an empty, non-nil slice. Search failures are wrapped
// with common.ErrSearch.
func Reconcile(ctx context.Context, query string, local []models.Photo, search Func) ([]models.Photo, error) {
	if strings.TrimSpace(query) == "" {
		return local, nil
	}

	hits, err := search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSearch, err)
	}

	byID := make(map[int64]models.Photo, len(local))
	for _, p := range local {
		byID[p.ID] = p
	}

	result := make([]models.Photo, 0, min(len(hits), len(local)))
	seen := make(map[int64]struct{}, len(hits))
	for _, h := range hits {
		id, err := h.PhotoID()
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		p, ok := byID[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, p)
	}
	return result, nil
}
