package devkit

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-paybridge/core"
)

// EmitFunc publishes payload on channel through the EventSource under test.
type EmitFunc func(ctx context.Context, channel string, payload map[string]any)

// ValidateEventSourceConformance checks the delivery guarantees the relays
// depend on: per-channel ordering, isolation between channels, and that a
// cancelled subscription receives nothing further.
func ValidateEventSourceConformance(
	ctx context.Context,
	source core.EventSource,
	emit EmitFunc,
	channel string,
) error {
	if source == nil {
		return fmt.Errorf("devkit: event source is required")
	}
	if emit == nil {
		return fmt.Errorf("devkit: emit func is required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return fmt.Errorf("devkit: channel is required")
	}

	received := []any{}
	sub, err := source.Subscribe(channel, func(_ context.Context, payload map[string]any) {
		received = append(received, payload["seq"])
	})
	if err != nil {
		return fmt.Errorf("devkit: subscribe: %w", err)
	}
	if sub == nil {
		return fmt.Errorf("devkit: subscribe returned nil subscription")
	}

	emit(ctx, channel+".other", map[string]any{"seq": -1})
	for seq := 1; seq <= 3; seq++ {
		emit(ctx, channel, map[string]any{"seq": seq})
	}
	if len(received) != 3 {
		return fmt.Errorf("devkit: expected 3 notifications, got %d", len(received))
	}
	for index, value := range received {
		if value != index+1 {
			return fmt.Errorf("devkit: expected in-order delivery, got %v", received)
		}
	}

	sub.Cancel()
	sub.Cancel()
	emit(ctx, channel, map[string]any{"seq": 4})
	if len(received) != 3 {
		return fmt.Errorf("devkit: cancelled subscription received a notification")
	}
	return nil
}

// ValidateNativeModuleConformance drives the acknowledgement calls a native
// binding must accept.
func ValidateNativeModuleConformance(ctx context.Context, native core.NativeModule) error {
	if native == nil {
		return fmt.Errorf("devkit: native module is required")
	}
	if err := native.Initialize(ctx, core.NativeInit{IdentityKey: "pk_conformance", Theme: core.Theme{}}); err != nil {
		return fmt.Errorf("devkit: initialize: %w", err)
	}
	if err := native.DeliverCredential(ctx, core.CredentialPayload{"secret": "ek_conformance"}); err != nil {
		return fmt.Errorf("devkit: deliver credential: %w", err)
	}
	if err := native.ReportCredentialFailure(ctx); err != nil {
		return fmt.Errorf("devkit: report credential failure: %w", err)
	}
	if _, err := native.CurrentPaymentMethod(ctx, core.PaymentContextOptions{}); err != nil {
		return fmt.Errorf("devkit: current payment method: %w", err)
	}
	return nil
}
