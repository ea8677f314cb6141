package search

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/memora/internal/client/models"
	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/dmitrijs2005/memora/internal/logging"
)

// Source provides the local collection to search within.
type Source interface {
	Snapshot() []models.Photo
}

// Reconciler holds the result set currently on display. Until the first
// successful search it shows the whole collection.
type Reconciler struct {
	search Func
	source Source
	log    logging.Logger

	mu       sync.Mutex
	seq      uint64
	searched bool
	query    string
	results  []models.Photo
}

func NewReconciler(search Func, source Source, log logging.Logger) *Reconciler {
	return &Reconciler{search: search, source: source, log: logging.OrDiscard(log).With("component", "search")}
}

// Search runs Reconcile against the current collection and, on success,
// replaces the displayed results. On failure the previous results stay. A
// response overtaken by a later Search is discarded with
// common.ErrStaleResult.
func (r *Reconciler) Search(ctx context.Context, query string) ([]models.Photo, error) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	result, err := Reconcile(ctx, query, r.source.Snapshot(), r.search)
	if err != nil {
		r.log.Warn(ctx, "search failed, keeping previous results", "query", query, "error", err)
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.seq {
		return nil, fmt.Errorf("search %q: %w", query, common.ErrStaleResult)
	}
	r.searched = true
	r.query = query
	r.results = result
	return slices.Clone(result), nil
}

// Results returns the displayed results. Without a query in effect they are
// the live collection, so refreshes after an upload show up.
func (r *Reconciler) Results() []models.Photo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.searched || strings.TrimSpace(r.query) == "" {
		return r.source.Snapshot()
	}
	return slices.Clone(r.results)
}

// Query returns the query behind Results; "" means no filter.
func (r *Reconciler) Query() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query
}
