package core

import (
	"context"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Manager sequences initialization, the two relays, and teardown for one
// native payment module. Hosts construct one per native module and pass it
// around explicitly.
type Manager struct {
	mu              sync.Mutex
	config          Config
	native          NativeModule
	source          EventSource
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	colorNormalizer ColorNormalizer
	identityKey     string

	obs        *observer
	credential *CredentialRelay
	choice     *ChoiceRelay
	charge     *ChargeRelay
}

func NewManager(native NativeModule, source EventSource, opts ...Option) (*Manager, error) {
	builder := defaultManagerBuilder()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}
	if native == nil {
		return nil, dependencyError("core: native module is required")
	}
	if source == nil {
		return nil, dependencyError("core: event source is required")
	}

	provider, logger := glog.Resolve("paybridge", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("paybridge"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.activitySink == nil {
		builder.activitySink = NopActivitySink{}
	}
	if builder.colorNormalizer == nil {
		builder.colorNormalizer = ARGBColorNormalizer{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err = applyExplicit(finalConfig, builder.explicit)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	m := &Manager{
		config:          finalConfig,
		native:          native,
		source:          source,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		colorNormalizer: builder.colorNormalizer,
	}
	m.obs = &observer{
		logger:          logger,
		metricsRecorder: builder.metricsRecorder,
		activitySink:    builder.activitySink,
		identity:        m.currentIdentity,
	}
	m.credential = newCredentialRelay(source, native, finalConfig.Channels.CredentialRequested, finalConfig.Credential, m.obs)
	m.choice = newChoiceRelay(source, finalConfig.Channels.SelectionChanged, m.obs)
	m.charge = newChargeRelay(source, native, finalConfig.Channels.ChargeReady, finalConfig.Charge.Timeout, m.obs)
	return m, nil
}

func (m *Manager) Config() Config {
	if m == nil {
		return Config{}
	}
	return m.config
}

func (m *Manager) Logger() Logger {
	if m == nil {
		return glog.Nop()
	}
	return m.logger
}

func (m *Manager) LoggerProvider() LoggerProvider {
	if m == nil {
		return nil
	}
	return m.loggerProvider
}

// Init starts the credential relay and then initializes the native side.
// A missing provider fails before anything is subscribed or called. The
// native error is returned unchanged.
func (m *Manager) Init(ctx context.Context, in InitOptions) (err error) {
	if m == nil {
		return dependencyError("core: manager is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := map[string]any{"identity_key": strings.TrimSpace(in.IdentityKey)}
	defer func() {
		m.obs.observeOperation(ctx, startedAt, "init", err, fields)
	}()

	if in.Provider == nil {
		return providerRequiredError()
	}

	m.mu.Lock()
	previousIdentity := m.identityKey
	m.identityKey = strings.TrimSpace(in.IdentityKey)
	m.mu.Unlock()

	if err := m.credential.Start(ctx, in.Provider); err != nil {
		m.mu.Lock()
		m.identityKey = previousIdentity
		m.mu.Unlock()
		return err
	}
	return m.native.Initialize(ctx, NativeInit{
		IdentityKey: in.IdentityKey,
		MerchantID:  in.MerchantID,
		Theme:       NormalizeTheme(in.Theme, m.colorNormalizer),
	})
}

// Destroy cancels every subscription the manager holds. It is safe to call
// without Init and more than once.
func (m *Manager) Destroy() {
	if m == nil {
		return
	}
	m.choice.Cancel()
	m.charge.Cancel()
	m.credential.Stop()
	m.obs.logDebug(context.Background(), "paybridge destroyed", nil)
}

// Shutdown destroys the manager and waits for credential requests that were
// already being served.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.Destroy()
	return m.credential.Wait(ctx)
}

// ShowChoice arms the selection relay before the chooser is presented so a
// fast selection cannot be missed.
func (m *Manager) ShowChoice(ctx context.Context, onSelected func(SelectionEvent)) error {
	if m == nil {
		return dependencyError("core: manager is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := m.choice.ArmOnce(onSelected); err != nil {
		return err
	}
	return m.native.PresentChooser(ctx)
}

func (m *Manager) RequestPayment(ctx context.Context, options PaymentContextOptions) (PaymentMethod, error) {
	if m == nil {
		return nil, dependencyError("core: manager is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return m.native.InitContext(ctx, options)
}

func (m *Manager) GetCurrentPaymentMethod(ctx context.Context, options PaymentContextOptions) (PaymentMethod, error) {
	if m == nil {
		return nil, dependencyError("core: manager is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return m.native.CurrentPaymentMethod(ctx, options)
}

// ConfirmPayment asks the native side to process a payment and waits for it
// to report charge readiness.
func (m *Manager) ConfirmPayment(ctx context.Context, options ChargeOptions) (ChargeReadiness, error) {
	if m == nil {
		return ChargeReadiness{}, dependencyError("core: manager is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	readiness, err := m.charge.Confirm(ctx, options)
	m.obs.observeOperation(ctx, startedAt, "confirm_payment", err, map[string]any{
		"channel": m.config.Channels.ChargeReady,
	})
	return readiness, err
}

func (m *Manager) CredentialActive() bool {
	return m != nil && m.credential.Active()
}

func (m *Manager) ChoiceArmed() bool {
	return m != nil && m.choice.Active()
}

// ActivitySink returns the sink relay outcomes are recorded to.
func (m *Manager) ActivitySink() ActivitySink {
	if m == nil || m.obs == nil {
		return nil
	}
	return m.obs.activitySink
}

func (m *Manager) currentIdentity() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identityKey
}
