package paybridge

import "github.com/goliatone/go-paybridge/core"

type Config = core.Config
type ChannelsConfig = core.ChannelsConfig
type CredentialConfig = core.CredentialConfig
type ChargeConfig = core.ChargeConfig

type Option = core.Option

type Manager = core.Manager

type EventSource = core.EventSource
type NativeModule = core.NativeModule
type Listener = core.Listener
type Subscription = core.Subscription
type ProviderFunc = core.ProviderFunc
type ColorNormalizer = core.ColorNormalizer
type ActivitySink = core.ActivitySink
type ActivityReader = core.ActivityReader

type CredentialPayload = core.CredentialPayload
type CredentialOutcome = core.CredentialOutcome
type SelectionEvent = core.SelectionEvent
type PaymentMethod = core.PaymentMethod
type PaymentContextOptions = core.PaymentContextOptions
type Theme = core.Theme
type InitOptions = core.InitOptions
type ChargeOptions = core.ChargeOptions
type ChargeReadiness = core.ChargeReadiness
type ActivityEntry = core.ActivityEntry
type ActivityFilter = core.ActivityFilter
type ActivityPage = core.ActivityPage

var (
	WithConfig          = core.WithConfig
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithActivitySink    = core.WithActivitySink
	WithColorNormalizer = core.WithColorNormalizer

	WithChargeTimeout        = core.WithChargeTimeout
	WithProviderTimeout      = core.WithProviderTimeout
	WithDropOutcomeAfterStop = core.WithDropOutcomeAfterStop
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewManager builds a bridge manager over the native module and the event
// source it emits on.
func NewManager(native NativeModule, source EventSource, opts ...Option) (*Manager, error) {
	return core.NewManager(native, source, opts...)
}

// NormalizeTheme converts color entries of theme to packed ARGB integers.
func NormalizeTheme(theme Theme) Theme {
	return core.NormalizeTheme(theme, core.ARGBColorNormalizer{})
}
