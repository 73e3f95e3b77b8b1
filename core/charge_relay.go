package core

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ChargeRelay waits for the native side to report that a processed payment
// is ready to be charged.
type ChargeRelay struct {
	once    *OnceRelay
	native  NativeModule
	timeout time.Duration
	obs     *observer

	mu      sync.Mutex
	pending *chargeWaiter
}

// chargeWaiter is closed when its Confirm call is cancelled or superseded.
type chargeWaiter struct {
	abort chan struct{}
	once  sync.Once
}

func newChargeWaiter() *chargeWaiter {
	return &chargeWaiter{abort: make(chan struct{})}
}

func (w *chargeWaiter) close() {
	if w == nil {
		return
	}
	w.once.Do(func() { close(w.abort) })
}

func newChargeRelay(source EventSource, native NativeModule, channel string, timeout time.Duration, obs *observer) *ChargeRelay {
	return &ChargeRelay{
		once:    newOnceRelay(source, channel, obs),
		native:  native,
		timeout: timeout,
		obs:     obs,
	}
}

// Confirm arms the readiness listener before asking the native side to
// process the payment, then waits for the notification.
func (r *ChargeRelay) Confirm(ctx context.Context, options ChargeOptions) (ChargeReadiness, error) {
	if r == nil || r.once == nil || r.native == nil {
		return ChargeReadiness{}, dependencyError("core: charge relay is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(options.ClientSecret) == "" {
		return ChargeReadiness{}, bridgeError(
			"core: charge client secret is required",
			goerrors.CategoryBadInput,
			BridgeErrorBadInput,
			nil,
		)
	}

	waiter := r.replacePending()
	defer r.releasePending(waiter)

	results := make(chan map[string]any, 1)
	if err := r.once.ArmOnce(func(_ context.Context, payload map[string]any) {
		results <- payload
	}); err != nil {
		return ChargeReadiness{}, err
	}
	if err := r.native.ProcessPayment(ctx, options); err != nil {
		r.cancelIfPending(waiter)
		return ChargeReadiness{}, err
	}

	waitCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	select {
	case payload := <-results:
		return r.resolve(ctx, payload)
	case <-waiter.abort:
		// a payload that landed before the abort still wins
		select {
		case payload := <-results:
			return r.resolve(ctx, payload)
		default:
		}
		return ChargeReadiness{}, bridgeError(
			"core: charge confirmation was cancelled",
			goerrors.CategoryOperation,
			BridgeErrorChargeUnconfirmed,
			map[string]any{"channel": r.once.channel},
		)
	case <-waitCtx.Done():
		r.cancelIfPending(waiter)
		return ChargeReadiness{}, bridgeWrapError(
			waitCtx.Err(),
			goerrors.CategoryOperation,
			"core: charge readiness was not reported",
			BridgeErrorChargeUnconfirmed,
			map[string]any{"channel": r.once.channel},
		)
	}
}

func (r *ChargeRelay) resolve(ctx context.Context, payload map[string]any) (ChargeReadiness, error) {
	readiness := ChargeReadiness{Ready: !chargeFailed(payload), Payload: payload}
	status := ActivityStatusOK
	if !readiness.Ready {
		status = ActivityStatusFailed
	}
	r.obs.recordActivity(ctx, ActivityEntry{
		Action:   ActivityChargeReady,
		Channel:  r.once.channel,
		Status:   status,
		Metadata: copyAnyMap(payload),
	})
	if !readiness.Ready {
		return readiness, bridgeError(
			"core: native side reported charge failure",
			goerrors.CategoryOperation,
			BridgeErrorChargeFailed,
			map[string]any{"channel": r.once.channel},
		)
	}
	return readiness, nil
}

// replacePending installs a waiter for a new Confirm call and aborts the one
// it supersedes.
func (r *ChargeRelay) replacePending() *chargeWaiter {
	waiter := newChargeWaiter()
	r.mu.Lock()
	prev := r.pending
	r.pending = waiter
	r.mu.Unlock()
	prev.close()
	return waiter
}

// cancelIfPending removes the readiness listener only while waiter still owns
// the relay, so a late timeout cannot tear down a newer arm.
func (r *ChargeRelay) cancelIfPending(waiter *chargeWaiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == waiter {
		r.once.Cancel()
	}
}

func (r *ChargeRelay) releasePending(waiter *chargeWaiter) {
	r.mu.Lock()
	if r.pending == waiter {
		r.pending = nil
	}
	r.mu.Unlock()
}

// Cancel removes the readiness listener and wakes a Confirm call that is
// still waiting.
func (r *ChargeRelay) Cancel() {
	if r == nil {
		return
	}
	r.mu.Lock()
	waiter := r.pending
	r.pending = nil
	r.mu.Unlock()
	r.once.Cancel()
	waiter.close()
}

func chargeFailed(payload map[string]any) bool {
	if payload == nil {
		return true
	}
	switch value := payload["error"].(type) {
	case bool:
		return value
	case string:
		return strings.EqualFold(strings.TrimSpace(value), "true")
	default:
		return false
	}
}
