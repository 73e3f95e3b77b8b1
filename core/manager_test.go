package core

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func TestNewManager_DefaultDependencies(t *testing.T) {
	manager, _, _ := newTestManager(t)
	if manager.Logger() == nil {
		t.Fatalf("expected default logger")
	}
	if manager.LoggerProvider() == nil {
		t.Fatalf("expected default logger provider")
	}
	cfg := manager.Config()
	if cfg.Name != "paybridge" {
		t.Fatalf("expected default name paybridge, got %q", cfg.Name)
	}
	if cfg.Channels.CredentialRequested != DefaultCredentialRequestedChannel {
		t.Fatalf("expected default credential channel, got %q", cfg.Channels.CredentialRequested)
	}
}

func TestNewManager_RequiresNativeAndSource(t *testing.T) {
	if _, err := NewManager(nil, newStubSource()); err == nil {
		t.Fatalf("expected error for missing native module")
	}
	if _, err := NewManager(newStubNative(), nil); err == nil {
		t.Fatalf("expected error for missing event source")
	}
}

func TestNewManager_RuntimeConfigWins(t *testing.T) {
	manager, _, _ := newTestManager(t,
		WithConfigProvider(NewCfgxConfigProvider(mapRawLoader{values: map[string]any{
			"name": "from-file",
			"channels": map[string]any{
				"selection_changed": "sdk.card.changed",
			},
		}})),
		WithConfig(Config{Name: "runtime"}),
	)
	cfg := manager.Config()
	if cfg.Name != "runtime" {
		t.Fatalf("expected runtime name, got %q", cfg.Name)
	}
	if cfg.Channels.SelectionChanged != "sdk.card.changed" {
		t.Fatalf("expected loaded selection channel, got %q", cfg.Channels.SelectionChanged)
	}
	if cfg.Channels.CredentialRequested != DefaultCredentialRequestedChannel {
		t.Fatalf("expected default credential channel, got %q", cfg.Channels.CredentialRequested)
	}
}

func TestNewManager_InvalidConfigIsMapped(t *testing.T) {
	_, err := NewManager(newStubNative(), newStubSource(), WithConfig(Config{
		Channels: ChannelsConfig{
			CredentialRequested: "same",
			SelectionChanged:    "same",
		},
	}))
	if err == nil {
		t.Fatalf("expected duplicate channel error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if richErr.TextCode == "" {
		t.Fatalf("expected text code on build error")
	}
}

func TestManager_InitWithoutProviderDoesNothing(t *testing.T) {
	manager, native, source := newTestManager(t)

	err := manager.Init(context.Background(), InitOptions{IdentityKey: "pk_test"})
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != BridgeErrorProviderRequired {
		t.Fatalf("expected %s, got %v", BridgeErrorProviderRequired, err)
	}
	if source.subscribes != 0 {
		t.Fatalf("expected no subscription, got %d", source.subscribes)
	}
	if inits, _, _ := native.counts(); inits != 0 {
		t.Fatalf("expected no native initialize call, got %d", inits)
	}
}

func TestManager_InitForwardsOptions(t *testing.T) {
	manager, native, source := newTestManager(t)

	err := manager.Init(context.Background(), InitOptions{
		IdentityKey: "pk_test_123",
		Provider:    secretProvider("s"),
		MerchantID:  "merchant.com.example",
		Theme:       Theme{"primaryColor": "#fff", "fontSize": 12},
	})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !manager.CredentialActive() {
		t.Fatalf("expected credential relay active")
	}
	if source.listenerCount(DefaultCredentialRequestedChannel) != 1 {
		t.Fatalf("expected one credential listener")
	}
	if len(native.inits) != 1 {
		t.Fatalf("expected one native initialize call, got %d", len(native.inits))
	}
	in := native.inits[0]
	if in.IdentityKey != "pk_test_123" || in.MerchantID != "merchant.com.example" {
		t.Fatalf("unexpected native init %#v", in)
	}
	if in.Theme["primaryColor"] != uint32(0xffffffff) {
		t.Fatalf("expected normalized primaryColor, got %#v", in.Theme["primaryColor"])
	}
	if in.Theme["fontSize"] != 12 {
		t.Fatalf("expected fontSize unchanged, got %#v", in.Theme["fontSize"])
	}
}

func TestManager_InitReturnsNativeErrorUnchanged(t *testing.T) {
	manager, native, _ := newTestManager(t)
	sentinel := errors.New("native init failed")
	native.initErr = sentinel

	err := manager.Init(context.Background(), InitOptions{Provider: secretProvider("s")})
	if err != sentinel {
		t.Fatalf("expected native error unchanged, got %v", err)
	}
}

func TestManager_InitTwiceDoesNotDoubleReport(t *testing.T) {
	manager, native, source := newTestManager(t)
	for _, secret := range []string{"a", "b"} {
		if err := manager.Init(context.Background(), InitOptions{Provider: secretProvider(secret)}); err != nil {
			t.Fatalf("init: %v", err)
		}
	}

	source.emit(DefaultCredentialRequestedChannel, credentialRequest("v1"))
	if got := waitOutcome(t, native); got != "success:b" {
		t.Fatalf("expected latest provider to serve the request, got %q", got)
	}
	expectNoOutcome(t, native)
}

func TestManager_DestroyThenInitRearms(t *testing.T) {
	manager, native, source := newTestManager(t)
	if err := manager.Init(context.Background(), InitOptions{Provider: secretProvider("first")}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := manager.ShowChoice(context.Background(), func(SelectionEvent) {}); err != nil {
		t.Fatalf("show choice: %v", err)
	}

	manager.Destroy()
	manager.Destroy()
	if manager.CredentialActive() || manager.ChoiceArmed() {
		t.Fatalf("expected no active subscriptions after destroy")
	}
	source.emit(DefaultCredentialRequestedChannel, credentialRequest("v1"))
	expectNoOutcome(t, native)

	if err := manager.Init(context.Background(), InitOptions{Provider: secretProvider("second")}); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	source.emit(DefaultCredentialRequestedChannel, credentialRequest("v2"))
	if got := waitOutcome(t, native); got != "success:second" {
		t.Fatalf("expected success:second, got %q", got)
	}
	expectNoOutcome(t, native)
}

func TestManager_DestroyWithoutInit(t *testing.T) {
	manager, _, _ := newTestManager(t)
	manager.Destroy()
	if err := manager.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestManager_ShowChoiceArmsBeforePresenting(t *testing.T) {
	manager, native, source := newTestManager(t)
	var selected []SelectionEvent
	native.onPresent = func() {
		source.emit(DefaultSelectionChangedChannel, map[string]any{"brand": "visa", "last4": "4242"})
	}

	if err := manager.ShowChoice(context.Background(), func(selection SelectionEvent) {
		selected = append(selected, selection)
	}); err != nil {
		t.Fatalf("show choice: %v", err)
	}
	if len(selected) != 1 || selected[0].Last4() != "4242" {
		t.Fatalf("expected selection emitted during presentation to be delivered, got %#v", selected)
	}
	if native.presents != 1 {
		t.Fatalf("expected one present call, got %d", native.presents)
	}
}

func TestManager_ShowChoiceReturnsNativeError(t *testing.T) {
	manager, native, _ := newTestManager(t)
	sentinel := errors.New("no activity")
	native.presentErr = sentinel

	if err := manager.ShowChoice(context.Background(), func(SelectionEvent) {}); err != sentinel {
		t.Fatalf("expected native error unchanged, got %v", err)
	}
}

func TestManager_PassThroughCalls(t *testing.T) {
	manager, native, _ := newTestManager(t)
	native.contextResult = PaymentMethod{"brand": "visa"}

	method, err := manager.RequestPayment(context.Background(), PaymentContextOptions{"amount": 1099})
	if err != nil {
		t.Fatalf("request payment: %v", err)
	}
	if method["brand"] != "visa" {
		t.Fatalf("expected native payment method, got %#v", method)
	}
	if len(native.contexts) != 1 || native.contexts[0]["amount"] != 1099 {
		t.Fatalf("expected options forwarded, got %#v", native.contexts)
	}

	native.contextResult = nil
	method, err = manager.GetCurrentPaymentMethod(context.Background(), nil)
	if err != nil {
		t.Fatalf("current payment method: %v", err)
	}
	if !method.Empty() {
		t.Fatalf("expected empty payment method, got %#v", method)
	}
	if native.currentCalls != 1 {
		t.Fatalf("expected one current payment method call, got %d", native.currentCalls)
	}

	sentinel := errors.New("context failed")
	native.contextErr = sentinel
	if _, err := manager.RequestPayment(context.Background(), nil); err != sentinel {
		t.Fatalf("expected native error unchanged, got %v", err)
	}
}

func TestManager_ConfirmPayment(t *testing.T) {
	manager, native, source := newTestManager(t, WithConfig(Config{Charge: ChargeConfig{Timeout: time.Second}}))
	native.onProcess = func(ChargeOptions) {
		source.emit(DefaultChargeReadyChannel, map[string]any{"error": false})
	}

	readiness, err := manager.ConfirmPayment(context.Background(), ChargeOptions{ClientSecret: "pi_secret"})
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if !readiness.Ready {
		t.Fatalf("expected ready charge")
	}
}

func TestManager_ActivityCarriesIdentity(t *testing.T) {
	log := NewMemoryActivityLog(10)
	manager, native, source := newTestManager(t, WithActivitySink(log))
	if err := manager.Init(context.Background(), InitOptions{IdentityKey: "pk_live", Provider: secretProvider("s")}); err != nil {
		t.Fatalf("init: %v", err)
	}

	source.emit(DefaultCredentialRequestedChannel, credentialRequest("v1"))
	waitOutcome(t, native)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := manager.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	page, err := log.List(context.Background(), ActivityFilter{IdentityKey: "pk_live"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Items[0].Action != ActivityCredentialDelivered {
		t.Fatalf("expected one delivered entry for pk_live, got %#v", page)
	}
}

func TestManager_ObservesInit(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	manager, _, _ := newTestManager(t,
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
	)

	_ = manager.Init(context.Background(), InitOptions{})
	counters, _ := metrics.snapshot()
	if !hasCounter(counters, "paybridge.init.total", "failure") {
		t.Fatalf("expected init failure counter")
	}
	if !hasLog(logger.snapshot(), "error", "init failed", "init") {
		t.Fatalf("expected init failed log")
	}
}

func TestManager_DestroyWakesPendingConfirm(t *testing.T) {
	manager, native, source := newTestManager(t)

	done := make(chan error, 1)
	go func() {
		_, err := manager.ConfirmPayment(context.Background(), ChargeOptions{ClientSecret: "pi_secret"})
		done <- err
	}()
	waitFor(t, func() bool { return native.chargeCount() == 1 })

	manager.Destroy()
	expectChargeUnconfirmed(t, done)
	if source.listenerCount(DefaultChargeReadyChannel) != 0 {
		t.Fatalf("expected readiness listener removed by destroy")
	}
}

func TestManager_FailedInitKeepsPreviousIdentity(t *testing.T) {
	manager, _, source := newTestManager(t)
	if err := manager.Init(context.Background(), InitOptions{IdentityKey: "pk_a", Provider: secretProvider("s")}); err != nil {
		t.Fatalf("init: %v", err)
	}
	manager.Destroy()

	source.mu.Lock()
	source.subscribeErr = errors.New("bus unavailable")
	source.mu.Unlock()

	if err := manager.Init(context.Background(), InitOptions{IdentityKey: "pk_b", Provider: secretProvider("s")}); err == nil {
		t.Fatalf("expected init to fail when subscribe fails")
	}
	if got := manager.currentIdentity(); got != "pk_a" {
		t.Fatalf("expected identity pk_a after failed init, got %q", got)
	}
}
