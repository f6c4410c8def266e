// Package temporal implements versioned reads and writes over a durable
// store, with a cache-aside layer that is invalidated on every write.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/temporal-kv/internal/model"
	"github.com/rcliao/temporal-kv/internal/store"
)

// Resolver selects the value entry that answers a read.
type Resolver struct {
	store store.Reader
}

func NewResolver(s store.Reader) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the entry with the greatest timestamp not after asOf, or
// the latest entry when asOf is nil.
func (r *Resolver) Resolve(ctx context.Context, name string, asOf *time.Time) (*model.ValueEntry, error) {
	k, err := r.store.FindKeyByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	entries, err := r.store.FindValuesForKey(ctx, k.ID, store.ValueQuery{MaxTimestamp: asOf, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrValueNotFound, name)
	}
	return &entries[0], nil
}
