package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type managerBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	activitySink    ActivitySink
	colorNormalizer ColorNormalizer
	explicit        []func(*Config)
}

type Option func(*managerBuilder)

// WithConfig sets the runtime layer, which wins over loaded and default values.
func WithConfig(cfg Config) Option {
	return func(b *managerBuilder) {
		b.runtimeConfig = cfg
	}
}

func WithLogger(logger Logger) Option {
	return func(b *managerBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *managerBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *managerBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *managerBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *managerBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *managerBuilder) {
		b.optionsResolver = resolver
	}
}

func WithActivitySink(sink ActivitySink) Option {
	return func(b *managerBuilder) {
		b.activitySink = sink
	}
}

func WithColorNormalizer(normalizer ColorNormalizer) Option {
	return func(b *managerBuilder) {
		b.colorNormalizer = normalizer
	}
}

// WithChargeTimeout pins charge.timeout after every layer is merged. Zero
// means unbounded, which a layered value cannot express.
func WithChargeTimeout(timeout time.Duration) Option {
	return func(b *managerBuilder) {
		b.explicit = append(b.explicit, func(cfg *Config) {
			cfg.Charge.Timeout = timeout
		})
	}
}

// WithProviderTimeout pins credential.provider_timeout after every layer is
// merged.
func WithProviderTimeout(timeout time.Duration) Option {
	return func(b *managerBuilder) {
		b.explicit = append(b.explicit, func(cfg *Config) {
			cfg.Credential.ProviderTimeout = timeout
		})
	}
}

// WithDropOutcomeAfterStop pins credential.drop_outcome_after_stop after
// every layer is merged, so false can override a loaded true.
func WithDropOutcomeAfterStop(drop bool) Option {
	return func(b *managerBuilder) {
		b.explicit = append(b.explicit, func(cfg *Config) {
			cfg.Credential.DropOutcomeAfterStop = drop
		})
	}
}

// applyExplicit runs pinned values over the resolved config.
func applyExplicit(cfg Config, explicit []func(*Config)) (Config, error) {
	if len(explicit) == 0 {
		return cfg, nil
	}
	for _, apply := range explicit {
		apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultManagerBuilder() managerBuilder {
	loggerProvider, logger := glog.Resolve("paybridge", nil, nil)
	return managerBuilder{
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		activitySink:    NopActivitySink{},
		colorNormalizer: ARGBColorNormalizer{},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return bridgeErrorMapper(err)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		mapper = defaultErrorMapper
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

// StaticConfigLoader serves a fixed raw map, typically decoded from a host
// configuration file.
type StaticConfigLoader struct {
	Values map[string]any
}

func (l StaticConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	return copyAnyMap(l.Values), nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// configToLayerMap treats zero values outside the defaults layer as unset.
// Zero durations and false flags are pinned with WithChargeTimeout,
// WithProviderTimeout and WithDropOutcomeAfterStop instead.
func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Name) != "" {
		layer["name"] = cfg.Name
	}

	channels := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Channels.CredentialRequested) != "" {
		channels["credential_requested"] = cfg.Channels.CredentialRequested
	}
	if includeZero || strings.TrimSpace(cfg.Channels.SelectionChanged) != "" {
		channels["selection_changed"] = cfg.Channels.SelectionChanged
	}
	if includeZero || strings.TrimSpace(cfg.Channels.ChargeReady) != "" {
		channels["charge_ready"] = cfg.Channels.ChargeReady
	}
	if len(channels) > 0 {
		layer["channels"] = channels
	}

	credential := map[string]any{}
	if includeZero || cfg.Credential.ProviderTimeout != 0 {
		credential["provider_timeout"] = cfg.Credential.ProviderTimeout
	}
	if includeZero || cfg.Credential.DropOutcomeAfterStop {
		credential["drop_outcome_after_stop"] = cfg.Credential.DropOutcomeAfterStop
	}
	if len(credential) > 0 {
		layer["credential"] = credential
	}

	if includeZero || cfg.Charge.Timeout != 0 {
		layer["charge"] = map[string]any{
			"timeout": cfg.Charge.Timeout,
		}
	}
	return layer
}
