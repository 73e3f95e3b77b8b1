package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// Listener receives the payload of a single notification on a named channel.
type Listener func(ctx context.Context, payload map[string]any)

// Subscription owns exactly one listener registration. Cancel is idempotent
// and no notification reaches the listener once it returns.
type Subscription interface {
	Cancel()
}

// EventSource is the publish/subscribe primitive the native side emits on.
// Delivery is at-least-once and in order per channel.
type EventSource interface {
	Subscribe(channel string, listener Listener) (Subscription, error)
}

// NativeModule is the call surface of the native payment SDK.
type NativeModule interface {
	Initialize(ctx context.Context, in NativeInit) error
	InitContext(ctx context.Context, options PaymentContextOptions) (PaymentMethod, error)
	CurrentPaymentMethod(ctx context.Context, options PaymentContextOptions) (PaymentMethod, error)
	PresentChooser(ctx context.Context) error
	DeliverCredential(ctx context.Context, payload CredentialPayload) error
	ReportCredentialFailure(ctx context.Context) error
	ProcessPayment(ctx context.Context, options ChargeOptions) error
}

// ProviderFunc fetches a short-lived credential for the requested API version.
type ProviderFunc func(ctx context.Context, apiVersion string) (CredentialPayload, error)

type ColorNormalizer interface {
	Normalize(value any) any
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type ActivitySink interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

type ActivityReader interface {
	List(ctx context.Context, filter ActivityFilter) (ActivityPage, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
