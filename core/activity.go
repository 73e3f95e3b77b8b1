package core

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type NopActivitySink struct{}

func (NopActivitySink) Record(context.Context, ActivityEntry) error { return nil }

// MemoryActivityLog keeps relay outcomes in process memory, newest last.
type MemoryActivityLog struct {
	mu      sync.RWMutex
	entries []ActivityEntry
	limit   int
}

// NewMemoryActivityLog keeps at most limit entries; limit <= 0 keeps all.
func NewMemoryActivityLog(limit int) *MemoryActivityLog {
	return &MemoryActivityLog{limit: limit}
}

func (l *MemoryActivityLog) Record(_ context.Context, entry ActivityEntry) error {
	if l == nil {
		return dependencyError("core: memory activity log is nil")
	}
	entry.ID = strings.TrimSpace(entry.ID)
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Metadata = copyAnyMap(entry.Metadata)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if l.limit > 0 && len(l.entries) > l.limit {
		l.entries = append([]ActivityEntry(nil), l.entries[len(l.entries)-l.limit:]...)
	}
	return nil
}

func (l *MemoryActivityLog) Entries() []ActivityEntry {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ActivityEntry, 0, len(l.entries))
	for _, entry := range l.entries {
		entry.Metadata = copyAnyMap(entry.Metadata)
		out = append(out, entry)
	}
	return out
}

// List returns matching entries newest first.
func (l *MemoryActivityLog) List(_ context.Context, filter ActivityFilter) (ActivityPage, error) {
	if l == nil {
		return ActivityPage{}, dependencyError("core: memory activity log is nil")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}

	entries := l.Entries()
	matched := make([]ActivityEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if matchesActivityFilter(entries[i], filter) {
			matched = append(matched, entries[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	offset := (page - 1) * perPage
	items := []ActivityEntry{}
	if offset < len(matched) {
		end := offset + perPage
		if end > len(matched) {
			end = len(matched)
		}
		items = matched[offset:end]
	}
	return ActivityPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   len(matched),
		HasNext: offset+len(items) < len(matched),
	}, nil
}

func matchesActivityFilter(entry ActivityEntry, filter ActivityFilter) bool {
	if identity := strings.TrimSpace(filter.IdentityKey); identity != "" && entry.IdentityKey != identity {
		return false
	}
	if action := strings.TrimSpace(filter.Action); action != "" && entry.Action != action {
		return false
	}
	if filter.Status != "" && entry.Status != filter.Status {
		return false
	}
	if filter.From != nil && entry.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && entry.CreatedAt.After(*filter.To) {
		return false
	}
	return true
}

// LatestSelection returns the payload of the newest selection recorded for
// identityKey. An empty identityKey matches entries recorded before Init.
func (l *MemoryActivityLog) LatestSelection(_ context.Context, identityKey string) (SelectionEvent, error) {
	if l == nil {
		return nil, dependencyError("core: memory activity log is nil")
	}
	identityKey = strings.TrimSpace(identityKey)
	entries := l.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.Action != ActivitySelectionChanged || entry.IdentityKey != identityKey {
			continue
		}
		return SelectionEvent(copyAnyMap(entry.Metadata)), nil
	}
	return nil, SelectionNotFoundError(identityKey)
}
