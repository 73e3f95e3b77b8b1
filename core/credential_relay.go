package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// CredentialRelay serves credential requests emitted by the native side. Each
// notification is answered with exactly one DeliverCredential or
// ReportCredentialFailure call.
type CredentialRelay struct {
	mu         sync.Mutex
	source     EventSource
	native     NativeModule
	channel    string
	config     CredentialConfig
	obs        *observer
	slot       SubscriptionSlot
	provider   ProviderFunc
	baseCtx    context.Context
	generation uint64
	inflight   inflightTracker
}

func newCredentialRelay(
	source EventSource,
	native NativeModule,
	channel string,
	cfg CredentialConfig,
	obs *observer,
) *CredentialRelay {
	return &CredentialRelay{
		source:  source,
		native:  native,
		channel: strings.TrimSpace(channel),
		config:  cfg,
		obs:     obs,
		baseCtx: context.Background(),
	}
}

// Start subscribes to the credential channel. Calling it while a
// subscription is active only replaces the provider.
func (r *CredentialRelay) Start(ctx context.Context, provider ProviderFunc) error {
	if r == nil || r.source == nil || r.native == nil {
		return dependencyError("core: credential relay is not configured")
	}
	if provider == nil {
		return providerRequiredError()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.provider = provider
	r.baseCtx = context.WithoutCancel(ctx)
	if r.slot.Active() {
		r.obs.logDebug(ctx, "credential relay already started", map[string]any{"channel": r.channel})
		return nil
	}

	generation := r.generation
	sub, err := r.source.Subscribe(r.channel, func(_ context.Context, payload map[string]any) {
		r.serve(payload, generation)
	})
	if err != nil {
		return bridgeWrapError(
			err,
			goerrors.CategoryOperation,
			"core: subscribe credential listener",
			BridgeErrorSubscribeFailed,
			map[string]any{"channel": r.channel},
		)
	}
	r.slot.Arm(sub)
	r.obs.logDebug(ctx, "credential relay started", map[string]any{"channel": r.channel})
	return nil
}

// Stop cancels the subscription. Provider calls already in flight keep
// running and still report unless DropOutcomeAfterStop is set.
func (r *CredentialRelay) Stop() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slot.Cancel()
	r.generation++
}

func (r *CredentialRelay) Active() bool {
	if r == nil {
		return false
	}
	return r.slot.Active()
}

// Wait blocks until every in-flight request has reported its outcome.
func (r *CredentialRelay) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.inflight.wait(ctx)
}

func (r *CredentialRelay) serve(payload map[string]any, generation uint64) {
	req := CredentialRequestFromPayload(payload)

	r.mu.Lock()
	provider := r.provider
	base := r.baseCtx
	r.mu.Unlock()

	r.inflight.add()
	go func() {
		defer r.inflight.done()
		r.handle(base, provider, req, generation)
	}()
}

func (r *CredentialRelay) handle(base context.Context, provider ProviderFunc, req CredentialRequest, generation uint64) {
	startedAt := time.Now()
	requestID := uuid.NewString()
	fields := map[string]any{
		"request_id":  requestID,
		"channel":     r.channel,
		"api_version": req.APIVersion,
	}

	payload, providerErr := r.invoke(base, provider, req.APIVersion)

	if r.config.DropOutcomeAfterStop && r.stopped(generation) {
		fields["outcome"] = "dropped"
		r.obs.logWarn(base, "credential outcome dropped after stop", fields)
		r.obs.observeOperation(base, startedAt, "credential_request", providerErr, fields)
		return
	}

	outcome := Success(payload)
	var reportErr error
	if providerErr != nil {
		outcome = Failure()
		reportErr = r.native.ReportCredentialFailure(base)
	} else {
		reportErr = r.native.DeliverCredential(base, outcome.Payload)
	}
	fields["outcome"] = string(outcome.Kind)

	opErr := providerErr
	if reportErr != nil {
		opErr = errors.Join(opErr, bridgeWrapError(
			reportErr,
			goerrors.CategoryOperation,
			"core: report credential outcome",
			BridgeErrorNativeCallFailed,
			map[string]any{"request_id": requestID, "outcome": string(outcome.Kind)},
		))
	}
	r.obs.observeOperation(base, startedAt, "credential_request", opErr, fields)

	action := ActivityCredentialDelivered
	status := ActivityStatusOK
	if !outcome.Succeeded() {
		action = ActivityCredentialFailed
		status = ActivityStatusFailed
	}
	metadata := map[string]any{"api_version": req.APIVersion}
	if reportErr != nil {
		metadata["report_error"] = reportErr.Error()
	}
	r.obs.recordActivity(base, ActivityEntry{
		Action:    action,
		Channel:   r.channel,
		RequestID: requestID,
		Status:    status,
		Metadata:  metadata,
	})
}

func (r *CredentialRelay) invoke(base context.Context, provider ProviderFunc, apiVersion string) (payload CredentialPayload, err error) {
	if provider == nil {
		return nil, providerRequiredError()
	}
	ctx := base
	if r.config.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(base, r.config.ProviderTimeout)
		defer cancel()
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			payload = nil
			err = bridgeError(
				fmt.Sprintf("core: credential provider panicked: %v", recovered),
				goerrors.CategoryInternal,
				BridgeErrorProviderPanicked,
				nil,
			)
		}
	}()

	payload, err = provider(ctx, apiVersion)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = bridgeWrapError(
			err,
			goerrors.CategoryOperation,
			"core: credential provider timed out",
			BridgeErrorProviderTimedOut,
			map[string]any{"timeout": r.config.ProviderTimeout.String()},
		)
	}
	return payload, err
}

func (r *CredentialRelay) stopped(generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation != generation
}

type inflightTracker struct {
	mu      sync.Mutex
	count   int
	waiters []chan struct{}
}

func (t *inflightTracker) add() {
	t.mu.Lock()
	t.count++
	t.mu.Unlock()
}

func (t *inflightTracker) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count--
	if t.count > 0 {
		return
	}
	for _, waiter := range t.waiters {
		close(waiter)
	}
	t.waiters = nil
}

func (t *inflightTracker) wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t.mu.Lock()
	if t.count == 0 {
		t.mu.Unlock()
		return nil
	}
	waiter := make(chan struct{})
	t.waiters = append(t.waiters, waiter)
	t.mu.Unlock()

	select {
	case <-waiter:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
