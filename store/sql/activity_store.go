package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-paybridge/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ActivityStore struct {
	db   *bun.DB
	repo repository.Repository[*activityEntryRecord]
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*activityEntryRecord](db, activityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid activity repository wiring: %w", err)
		}
	}
	return &ActivityStore{db: db, repo: repo}, nil
}

func (s *ActivityStore) Record(ctx context.Context, entry core.ActivityEntry) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: activity store is not configured")
	}
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return fmt.Errorf("sqlstore: activity action is required")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	status := strings.TrimSpace(string(entry.Status))
	if status == "" {
		status = string(core.ActivityStatusOK)
	}

	_, err := s.repo.Create(ctx, &activityEntryRecord{
		ID:          id,
		IdentityKey: strings.TrimSpace(entry.IdentityKey),
		Action:      action,
		Channel:     strings.TrimSpace(entry.Channel),
		RequestID:   strings.TrimSpace(entry.RequestID),
		Status:      status,
		Metadata:    copyAnyMap(entry.Metadata),
		CreatedAt:   createdAt,
	})
	return err
}

// List returns matching entries newest first.
func (s *ActivityStore) List(ctx context.Context, filter core.ActivityFilter) (core.ActivityPage, error) {
	if s == nil || s.repo == nil {
		return core.ActivityPage{}, fmt.Errorf("sqlstore: activity store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	selectors = append(selectors, activityFilterSelectors(filter)...)

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.ActivityPage{}, err
	}
	items := make([]core.ActivityEntry, 0, len(records))
	for _, record := range records {
		items = append(items, activityRecordToDomain(record))
	}
	return core.ActivityPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// LatestSelection returns the payload of the newest selection recorded for
// identityKey.
func (s *ActivityStore) LatestSelection(ctx context.Context, identityKey string) (core.SelectionEvent, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: activity store is not configured")
	}
	identityKey = strings.TrimSpace(identityKey)
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("identity_key", "=", identityKey),
		repository.SelectBy("action", "=", core.ActivitySelectionChanged),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.SelectionNotFoundError(identityKey)
	}
	return core.SelectionEvent(copyAnyMap(records[0].Metadata)), nil
}

// PruneBefore deletes entries created before cutoff and reports how many
// rows were removed.
func (s *ActivityStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: activity store is not configured")
	}
	res, err := s.db.NewDelete().
		Model((*activityEntryRecord)(nil)).
		Where("created_at < ?", cutoff.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

func activityFilterSelectors(filter core.ActivityFilter) []repository.SelectCriteria {
	selectors := []repository.SelectCriteria{}
	if identityKey := strings.TrimSpace(filter.IdentityKey); identityKey != "" {
		selectors = append(selectors, repository.SelectBy("identity_key", "=", identityKey))
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		selectors = append(selectors, repository.SelectBy("action", "=", action))
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		selectors = append(selectors, repository.SelectBy("status", "=", status))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", "<=", filter.To.UTC()))
	}
	return selectors
}

func activityRecordToDomain(record *activityEntryRecord) core.ActivityEntry {
	if record == nil {
		return core.ActivityEntry{}
	}
	return core.ActivityEntry{
		ID:          record.ID,
		IdentityKey: record.IdentityKey,
		Action:      record.Action,
		Channel:     record.Channel,
		RequestID:   record.RequestID,
		Status:      core.ActivityStatus(record.Status),
		Metadata:    copyAnyMap(record.Metadata),
		CreatedAt:   record.CreatedAt,
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
