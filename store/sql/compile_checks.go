package sqlstore

import "github.com/goliatone/go-paybridge/core"

var (
	_ core.ActivitySink   = (*ActivityStore)(nil)
	_ core.ActivityReader = (*ActivityStore)(nil)
	_ SelectionReader     = (*ActivityStore)(nil)
	_ core.ActivitySink   = (*CachedSelectionReader)(nil)
	_ core.ActivityReader = (*CachedSelectionReader)(nil)
	_ SelectionReader     = (*CachedSelectionReader)(nil)
)
