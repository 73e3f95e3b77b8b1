package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type activityEntryRecord struct {
	bun.BaseModel `bun:"table:paybridge_activity_entries,alias:pae"`

	ID          string         `bun:"id,pk"`
	IdentityKey string         `bun:"identity_key,notnull"`
	Action      string         `bun:"action,notnull"`
	Channel     string         `bun:"channel,notnull"`
	RequestID   string         `bun:"request_id,notnull"`
	Status      string         `bun:"status,notnull"`
	Metadata    map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
