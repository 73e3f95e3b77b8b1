package core

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	goerrors "github.com/goliatone/go-errors"
)

// OnceRelay arms a listener that fires at most once and unsubscribes itself
// before handing the payload over. Arming again discards the previous arm
// without invoking it.
//
// EventSource implementations must not deliver from inside Subscribe.
type OnceRelay struct {
	armMu   sync.Mutex
	source  EventSource
	channel string
	obs     *observer
	slot    SubscriptionSlot
}

func newOnceRelay(source EventSource, channel string, obs *observer) *OnceRelay {
	return &OnceRelay{
		source:  source,
		channel: strings.TrimSpace(channel),
		obs:     obs,
	}
}

type onceHandle struct {
	ready chan struct{}
	sub   Subscription
	token uint64
	fired atomic.Bool
}

func (r *OnceRelay) ArmOnce(onFire Listener) error {
	if r == nil || r.source == nil {
		return dependencyError("core: once relay is not configured")
	}
	if onFire == nil {
		return bridgeError(
			"core: once relay callback is required",
			goerrors.CategoryBadInput,
			BridgeErrorBadInput,
			map[string]any{"channel": r.channel},
		)
	}

	r.armMu.Lock()
	defer r.armMu.Unlock()

	r.slot.Cancel()

	handle := &onceHandle{ready: make(chan struct{})}
	sub, err := r.source.Subscribe(r.channel, func(ctx context.Context, payload map[string]any) {
		<-handle.ready
		if handle.sub == nil {
			return
		}
		if !handle.fired.CompareAndSwap(false, true) {
			return
		}
		// superseded or cancelled between snapshot and delivery
		if !r.slot.Clear(handle.token) {
			return
		}
		handle.sub.Cancel()
		onFire(ctx, payload)
	})
	if err != nil {
		close(handle.ready)
		return bridgeWrapError(
			err,
			goerrors.CategoryOperation,
			"core: subscribe once listener",
			BridgeErrorSubscribeFailed,
			map[string]any{"channel": r.channel},
		)
	}
	handle.sub = sub
	handle.token = r.slot.Arm(sub)
	close(handle.ready)

	r.obs.logDebug(context.Background(), "once listener armed", map[string]any{"channel": r.channel})
	return nil
}

func (r *OnceRelay) Cancel() {
	if r == nil {
		return
	}
	r.slot.Cancel()
}

func (r *OnceRelay) Active() bool {
	if r == nil {
		return false
	}
	return r.slot.Active()
}
