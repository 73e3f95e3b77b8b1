// Package devkit provides test doubles for hosts that embed the payment
// bridge without a real native SDK.
package devkit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-paybridge/core"
	"github.com/goliatone/go-paybridge/events"
)

const (
	MethodInitialize              = "initialize"
	MethodInitContext             = "init_context"
	MethodCurrentPaymentMethod    = "current_payment_method"
	MethodPresentChooser          = "present_chooser"
	MethodDeliverCredential       = "deliver_credential"
	MethodReportCredentialFailure = "report_credential_failure"
	MethodProcessPayment          = "process_payment"
)

type NativeCall struct {
	Method string
	Args   map[string]any
}

// FakeNative plays the native SDK: it records every call made by the bridge
// and emits the SDK's notifications on an events.Emitter.
type FakeNative struct {
	mu            sync.Mutex
	emitter       *events.Emitter
	channels      core.ChannelsConfig
	calls         []NativeCall
	errs          map[string]error
	paymentMethod core.PaymentMethod
	autoSelection core.SelectionEvent
	autoCharge    map[string]any
	outcomes      chan core.CredentialOutcome
}

type FakeNativeOption func(*FakeNative)

func WithChannels(channels core.ChannelsConfig) FakeNativeOption {
	return func(n *FakeNative) {
		n.channels = channels
	}
}

// WithAutoSelection makes PresentChooser report selection immediately.
func WithAutoSelection(selection core.SelectionEvent) FakeNativeOption {
	return func(n *FakeNative) {
		n.autoSelection = selection
	}
}

// WithAutoCharge makes ProcessPayment report charge readiness with payload.
func WithAutoCharge(payload map[string]any) FakeNativeOption {
	return func(n *FakeNative) {
		n.autoCharge = payload
	}
}

func WithPaymentMethod(method core.PaymentMethod) FakeNativeOption {
	return func(n *FakeNative) {
		n.paymentMethod = method
	}
}

func NewFakeNative(emitter *events.Emitter, opts ...FakeNativeOption) *FakeNative {
	if emitter == nil {
		emitter = events.NewEmitter()
	}
	native := &FakeNative{
		emitter:  emitter,
		channels: core.DefaultConfig().Channels,
		errs:     map[string]error{},
		outcomes: make(chan core.CredentialOutcome, 64),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(native)
		}
	}
	return native
}

func (n *FakeNative) Emitter() *events.Emitter {
	return n.emitter
}

// FailNext makes every following call to method return err until cleared
// with a nil err.
func (n *FakeNative) FailNext(method string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	method = strings.TrimSpace(method)
	if err == nil {
		delete(n.errs, method)
		return
	}
	n.errs[method] = err
}

func (n *FakeNative) Initialize(_ context.Context, in core.NativeInit) error {
	return n.record(MethodInitialize, map[string]any{
		"identity_key": in.IdentityKey,
		"merchant_id":  in.MerchantID,
		"theme":        map[string]any(in.Theme),
	})
}

func (n *FakeNative) InitContext(_ context.Context, options core.PaymentContextOptions) (core.PaymentMethod, error) {
	if err := n.record(MethodInitContext, map[string]any{"options": map[string]any(options)}); err != nil {
		return nil, err
	}
	return n.currentMethod(), nil
}

func (n *FakeNative) CurrentPaymentMethod(_ context.Context, options core.PaymentContextOptions) (core.PaymentMethod, error) {
	if err := n.record(MethodCurrentPaymentMethod, map[string]any{"options": map[string]any(options)}); err != nil {
		return nil, err
	}
	return n.currentMethod(), nil
}

func (n *FakeNative) PresentChooser(ctx context.Context) error {
	if err := n.record(MethodPresentChooser, nil); err != nil {
		return err
	}
	n.mu.Lock()
	selection := n.autoSelection
	n.mu.Unlock()
	if selection != nil {
		n.Select(ctx, selection)
	}
	return nil
}

func (n *FakeNative) DeliverCredential(_ context.Context, payload core.CredentialPayload) error {
	err := n.record(MethodDeliverCredential, map[string]any{"payload": map[string]any(payload)})
	n.outcomes <- core.Success(payload)
	return err
}

func (n *FakeNative) ReportCredentialFailure(context.Context) error {
	err := n.record(MethodReportCredentialFailure, nil)
	n.outcomes <- core.Failure()
	return err
}

func (n *FakeNative) ProcessPayment(ctx context.Context, options core.ChargeOptions) error {
	if err := n.record(MethodProcessPayment, map[string]any{
		"client_secret": options.ClientSecret,
		"return_url":    options.ReturnURL,
	}); err != nil {
		return err
	}
	n.mu.Lock()
	payload := n.autoCharge
	n.mu.Unlock()
	if payload != nil {
		n.ReportCharge(ctx, payload)
	}
	return nil
}

// RequestCredential emits a credential request the way the SDK does when it
// needs a fresh key.
func (n *FakeNative) RequestCredential(ctx context.Context, apiVersion string) int {
	return n.emitter.Emit(ctx, n.channels.CredentialRequested, map[string]any{"apiVersion": apiVersion})
}

// RequestCredentialAndWait emits a credential request and blocks until the
// bridge reports an outcome for it.
func (n *FakeNative) RequestCredentialAndWait(ctx context.Context, apiVersion string) (core.CredentialOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if delivered := n.RequestCredential(ctx, apiVersion); delivered == 0 {
		return core.CredentialOutcome{}, fmt.Errorf("devkit: no listener on %q", n.channels.CredentialRequested)
	}
	return n.NextOutcome(ctx)
}

func (n *FakeNative) NextOutcome(ctx context.Context) (core.CredentialOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case outcome := <-n.outcomes:
		return outcome, nil
	case <-ctx.Done():
		return core.CredentialOutcome{}, ctx.Err()
	}
}

// ExpectNoOutcome fails when an outcome is reported within wait.
func (n *FakeNative) ExpectNoOutcome(wait time.Duration) error {
	select {
	case outcome := <-n.outcomes:
		return fmt.Errorf("devkit: unexpected %s outcome", outcome.Kind)
	case <-time.After(wait):
		return nil
	}
}

func (n *FakeNative) Select(ctx context.Context, selection core.SelectionEvent) int {
	return n.emitter.Emit(ctx, n.channels.SelectionChanged, map[string]any(selection))
}

func (n *FakeNative) ReportCharge(ctx context.Context, payload map[string]any) int {
	return n.emitter.Emit(ctx, n.channels.ChargeReady, payload)
}

func (n *FakeNative) Calls() []NativeCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NativeCall, 0, len(n.calls))
	for _, call := range n.calls {
		out = append(out, NativeCall{Method: call.Method, Args: cloneArgs(call.Args)})
	}
	return out
}

func (n *FakeNative) CallCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, call := range n.calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

func (n *FakeNative) record(method string, args map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, NativeCall{Method: method, Args: cloneArgs(args)})
	return n.errs[method]
}

func (n *FakeNative) currentMethod() core.PaymentMethod {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.paymentMethod == nil {
		return nil
	}
	out := make(core.PaymentMethod, len(n.paymentMethod))
	for key, value := range n.paymentMethod {
		out[key] = value
	}
	return out
}

func cloneArgs(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var _ core.NativeModule = (*FakeNative)(nil)
