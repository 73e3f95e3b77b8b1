package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-paybridge/core"
)

// MutatingBridge is the part of *core.Manager the commands drive.
type MutatingBridge interface {
	Init(ctx context.Context, in core.InitOptions) error
	Destroy()
	ShowChoice(ctx context.Context, onSelected func(core.SelectionEvent)) error
	RequestPayment(ctx context.Context, options core.PaymentContextOptions) (core.PaymentMethod, error)
	ConfirmPayment(ctx context.Context, options core.ChargeOptions) (core.ChargeReadiness, error)
}

type InitCommand struct {
	bridge MutatingBridge
}

func NewInitCommand(bridge MutatingBridge) *InitCommand {
	return &InitCommand{bridge: bridge}
}

func (c *InitCommand) Execute(ctx context.Context, msg InitMessage) error {
	if c == nil || c.bridge == nil {
		return commandDependencyError("command: init bridge is required")
	}
	return c.bridge.Init(ctx, msg.Options)
}

type DestroyCommand struct {
	bridge MutatingBridge
}

func NewDestroyCommand(bridge MutatingBridge) *DestroyCommand {
	return &DestroyCommand{bridge: bridge}
}

func (c *DestroyCommand) Execute(_ context.Context, _ DestroyMessage) error {
	if c == nil || c.bridge == nil {
		return commandDependencyError("command: destroy bridge is required")
	}
	c.bridge.Destroy()
	return nil
}

type ShowChoiceCommand struct {
	bridge MutatingBridge
}

func NewShowChoiceCommand(bridge MutatingBridge) *ShowChoiceCommand {
	return &ShowChoiceCommand{bridge: bridge}
}

func (c *ShowChoiceCommand) Execute(ctx context.Context, msg ShowChoiceMessage) error {
	if c == nil || c.bridge == nil {
		return commandDependencyError("command: show choice bridge is required")
	}
	return c.bridge.ShowChoice(ctx, msg.OnSelected)
}

type RequestPaymentCommand struct {
	bridge MutatingBridge
}

func NewRequestPaymentCommand(bridge MutatingBridge) *RequestPaymentCommand {
	return &RequestPaymentCommand{bridge: bridge}
}

func (c *RequestPaymentCommand) Execute(ctx context.Context, msg RequestPaymentMessage) error {
	if c == nil || c.bridge == nil {
		return commandDependencyError("command: request payment bridge is required")
	}
	out, err := c.bridge.RequestPayment(ctx, msg.Options)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ConfirmPaymentCommand struct {
	bridge MutatingBridge
}

func NewConfirmPaymentCommand(bridge MutatingBridge) *ConfirmPaymentCommand {
	return &ConfirmPaymentCommand{bridge: bridge}
}

func (c *ConfirmPaymentCommand) Execute(ctx context.Context, msg ConfirmPaymentMessage) error {
	if c == nil || c.bridge == nil {
		return commandDependencyError("command: confirm payment bridge is required")
	}
	out, err := c.bridge.ConfirmPayment(ctx, msg.Options)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
