package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type stubSubscription struct {
	source  *stubSource
	channel string
	id      int
}

func (s *stubSubscription) Cancel() {
	s.source.mu.Lock()
	defer s.source.mu.Unlock()
	delete(s.source.listeners[s.channel], s.id)
}

// stubSource delivers synchronously on the emitting goroutine.
type stubSource struct {
	mu           sync.Mutex
	next         int
	listeners    map[string]map[int]Listener
	subscribeErr error
	subscribes   int
}

func newStubSource() *stubSource {
	return &stubSource{listeners: map[string]map[int]Listener{}}
}

func (s *stubSource) Subscribe(channel string, listener Listener) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	s.next++
	s.subscribes++
	if s.listeners[channel] == nil {
		s.listeners[channel] = map[int]Listener{}
	}
	s.listeners[channel][s.next] = listener
	return &stubSubscription{source: s, channel: channel, id: s.next}, nil
}

func (s *stubSource) emit(channel string, payload map[string]any) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.listeners[channel]))
	for id := range s.listeners[channel] {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Ints(ids)
	for _, id := range ids {
		s.mu.Lock()
		listener, ok := s.listeners[channel][id]
		s.mu.Unlock()
		if !ok {
			continue
		}
		listener(context.Background(), payload)
	}
}

func (s *stubSource) listenerCount(channel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners[channel])
}

type stubNative struct {
	mu            sync.Mutex
	inits         []NativeInit
	contexts      []PaymentContextOptions
	currentCalls  int
	presents      int
	delivered     []CredentialPayload
	failures      int
	charges       []ChargeOptions
	outcomes      chan string
	initErr       error
	presentErr    error
	contextResult PaymentMethod
	contextErr    error
	processErr    error
	onPresent     func()
	onProcess     func(ChargeOptions)
}

func newStubNative() *stubNative {
	return &stubNative{outcomes: make(chan string, 64)}
}

func (n *stubNative) Initialize(_ context.Context, in NativeInit) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inits = append(n.inits, in)
	return n.initErr
}

func (n *stubNative) InitContext(_ context.Context, options PaymentContextOptions) (PaymentMethod, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contexts = append(n.contexts, options)
	return n.contextResult, n.contextErr
}

func (n *stubNative) CurrentPaymentMethod(_ context.Context, options PaymentContextOptions) (PaymentMethod, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.currentCalls++
	n.contexts = append(n.contexts, options)
	return n.contextResult, n.contextErr
}

func (n *stubNative) PresentChooser(context.Context) error {
	n.mu.Lock()
	n.presents++
	hook := n.onPresent
	err := n.presentErr
	n.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (n *stubNative) DeliverCredential(_ context.Context, payload CredentialPayload) error {
	n.mu.Lock()
	n.delivered = append(n.delivered, payload)
	n.mu.Unlock()
	n.outcomes <- "success:" + fmt.Sprint(payload["secret"])
	return nil
}

func (n *stubNative) ReportCredentialFailure(context.Context) error {
	n.mu.Lock()
	n.failures++
	n.mu.Unlock()
	n.outcomes <- "failure"
	return nil
}

func (n *stubNative) ProcessPayment(_ context.Context, options ChargeOptions) error {
	n.mu.Lock()
	n.charges = append(n.charges, options)
	hook := n.onProcess
	err := n.processErr
	n.mu.Unlock()
	if err != nil {
		return err
	}
	if hook != nil {
		go hook(options)
	}
	return nil
}

func (n *stubNative) counts() (inits int, delivered int, failures int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.inits), len(n.delivered), n.failures
}

func waitOutcome(t *testing.T, native *stubNative) string {
	t.Helper()
	select {
	case outcome := <-native.outcomes:
		return outcome
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for credential outcome")
		return ""
	}
}

func expectNoOutcome(t *testing.T, native *stubNative) {
	t.Helper()
	select {
	case outcome := <-native.outcomes:
		t.Fatalf("expected no outcome, got %q", outcome)
	case <-time.After(50 * time.Millisecond):
	}
}

func secretProvider(secret string) ProviderFunc {
	return func(_ context.Context, apiVersion string) (CredentialPayload, error) {
		return CredentialPayload{"secret": secret, "apiVersion": apiVersion}, nil
	}
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	return copyAnyMap(l.values), nil
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *stubNative, *stubSource) {
	t.Helper()
	native := newStubNative()
	source := newStubSource()
	manager, err := NewManager(native, source, opts...)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager, native, source
}

func (n *stubNative) chargeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.charges)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func expectChargeUnconfirmed(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) || richErr.TextCode != BridgeErrorChargeUnconfirmed {
			t.Fatalf("expected %s, got %v", BridgeErrorChargeUnconfirmed, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("confirm still blocked")
	}
}
