package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-paybridge/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const selectionCacheKeyPrefix = "go-paybridge::selection::v1"

type SelectionReader interface {
	LatestSelection(ctx context.Context, identityKey string) (core.SelectionEvent, error)
}

// CachedSelectionReader memoizes LatestSelection per identity key. Record
// invalidates the key whenever a new selection is written through it.
type CachedSelectionReader struct {
	base  SelectionReader
	sink  core.ActivitySink
	cache repositorycache.CacheService
}

func NewCachedSelectionReader(
	base SelectionReader,
	sink core.ActivitySink,
	cacheService repositorycache.CacheService,
) (*CachedSelectionReader, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base selection reader is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: selection cache service is required")
	}
	return &CachedSelectionReader{base: base, sink: sink, cache: cacheService}, nil
}

// SelectionCacheKey is go-paybridge::selection::v1::<identity_key> with the
// identity path-escaped.
func SelectionCacheKey(identityKey string) string {
	return selectionCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(identityKey))
}

func (r *CachedSelectionReader) LatestSelection(ctx context.Context, identityKey string) (core.SelectionEvent, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached selection reader is not configured")
	}
	identityKey = strings.TrimSpace(identityKey)
	selection, err := repositorycache.GetOrFetch(ctx, r.cache, SelectionCacheKey(identityKey), func(ctx context.Context) (core.SelectionEvent, error) {
		fetched, fetchErr := r.base.LatestSelection(ctx, identityKey)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return core.SelectionEvent(copyAnyMap(fetched)), nil
	})
	if err != nil {
		return nil, err
	}
	return core.SelectionEvent(copyAnyMap(selection)), nil
}

// Record writes through to the sink and drops the cached selection when the
// entry is a selection change.
func (r *CachedSelectionReader) Record(ctx context.Context, entry core.ActivityEntry) error {
	if r == nil || r.sink == nil || r.cache == nil {
		return fmt.Errorf("sqlstore: cached selection sink is not configured")
	}
	if err := r.sink.Record(ctx, entry); err != nil {
		return err
	}
	if entry.Action != core.ActivitySelectionChanged {
		return nil
	}
	return r.cache.Delete(ctx, SelectionCacheKey(entry.IdentityKey))
}

// List delegates to the sink when it can be read back.
func (r *CachedSelectionReader) List(ctx context.Context, filter core.ActivityFilter) (core.ActivityPage, error) {
	if r == nil {
		return core.ActivityPage{}, fmt.Errorf("sqlstore: cached selection reader is not configured")
	}
	reader, ok := r.sink.(core.ActivityReader)
	if !ok {
		return core.ActivityPage{}, fmt.Errorf("sqlstore: activity sink %T cannot be listed", r.sink)
	}
	return reader.List(ctx, filter)
}
