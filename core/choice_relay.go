package core

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ChoiceRelay delivers the next selection-changed notification to a single
// callback and then stops listening.
type ChoiceRelay struct {
	once *OnceRelay
	obs  *observer
}

func newChoiceRelay(source EventSource, channel string, obs *observer) *ChoiceRelay {
	return &ChoiceRelay{
		once: newOnceRelay(source, channel, obs),
		obs:  obs,
	}
}

func (r *ChoiceRelay) ArmOnce(onSelected func(SelectionEvent)) error {
	if r == nil || r.once == nil {
		return dependencyError("core: choice relay is not configured")
	}
	if onSelected == nil {
		return bridgeError(
			"core: selection callback is required",
			goerrors.CategoryBadInput,
			BridgeErrorBadInput,
			nil,
		)
	}
	channel := r.once.channel
	return r.once.ArmOnce(func(ctx context.Context, payload map[string]any) {
		selection := SelectionEvent(payload)
		r.obs.observeOperation(ctx, time.Now(), "selection_changed", nil, map[string]any{
			"channel": channel,
			"brand":   selection.Brand(),
		})
		r.obs.recordActivity(ctx, ActivityEntry{
			Action:   ActivitySelectionChanged,
			Channel:  channel,
			Status:   ActivityStatusOK,
			Metadata: copyAnyMap(payload),
		})
		onSelected(selection)
	})
}

func (r *ChoiceRelay) Cancel() {
	if r == nil {
		return
	}
	r.once.Cancel()
}

func (r *ChoiceRelay) Active() bool {
	if r == nil {
		return false
	}
	return r.once.Active()
}
