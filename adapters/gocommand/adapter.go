package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	bridgecommand "github.com/goliatone/go-paybridge/command"
	"github.com/goliatone/go-paybridge/core"
	bridgequery "github.com/goliatone/go-paybridge/query"
)

// ValidateMessageContract requires a non-empty Type() and runs Validate() when present.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeCommandFunc[T any](handler command.CommandFunc[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(handler, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func SubscribeQueryFunc[T any, R any](qry command.QueryFunc[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// BridgeHandlers names the collaborators RegisterBridge wires. Bridge is
// required; readers left nil skip their query.
type BridgeHandlers struct {
	Bridge     bridgecommand.MutatingBridge
	Methods    bridgequery.PaymentMethodReader
	Activity   core.ActivityReader
	Selections bridgequery.SelectionReader
}

// BridgeSubscriptions holds every dispatcher subscription made by
// RegisterBridge so hosts can tear the wiring down in one call.
type BridgeSubscriptions struct {
	subscriptions []commanddispatcher.Subscription
}

func (s *BridgeSubscriptions) Len() int {
	if s == nil {
		return 0
	}
	return len(s.subscriptions)
}

func (s *BridgeSubscriptions) Unsubscribe() {
	if s == nil {
		return
	}
	for i := len(s.subscriptions) - 1; i >= 0; i-- {
		if s.subscriptions[i] != nil {
			s.subscriptions[i].Unsubscribe()
		}
	}
	s.subscriptions = nil
}

func (s *BridgeSubscriptions) add(sub commanddispatcher.Subscription, err error) error {
	if err != nil {
		return err
	}
	s.subscriptions = append(s.subscriptions, sub)
	return nil
}

// RegisterBridge registers and subscribes the paybridge commands and
// queries. On failure every subscription made so far is released.
func RegisterBridge(
	adapter *RegistryAdapter,
	handlers BridgeHandlers,
	runnerOpts ...runner.Option,
) (*BridgeSubscriptions, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if handlers.Bridge == nil {
		return nil, fmt.Errorf("gocommand: bridge is required")
	}
	subs := &BridgeSubscriptions{}
	steps := []func() error{
		func() error {
			return subs.add(RegisterAndSubscribe[bridgecommand.InitMessage](adapter, bridgecommand.NewInitCommand(handlers.Bridge), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[bridgecommand.DestroyMessage](adapter, bridgecommand.NewDestroyCommand(handlers.Bridge), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[bridgecommand.ShowChoiceMessage](adapter, bridgecommand.NewShowChoiceCommand(handlers.Bridge), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[bridgecommand.RequestPaymentMessage](adapter, bridgecommand.NewRequestPaymentCommand(handlers.Bridge), runnerOpts...))
		},
		func() error {
			return subs.add(RegisterAndSubscribe[bridgecommand.ConfirmPaymentMessage](adapter, bridgecommand.NewConfirmPaymentCommand(handlers.Bridge), runnerOpts...))
		},
	}
	if handlers.Methods != nil {
		steps = append(steps, func() error {
			return subs.add(RegisterAndSubscribeQuery[bridgequery.CurrentPaymentMethodMessage, core.PaymentMethod](
				adapter, bridgequery.NewCurrentPaymentMethodQuery(handlers.Methods), runnerOpts...))
		})
	}
	if handlers.Activity != nil {
		steps = append(steps, func() error {
			return subs.add(RegisterAndSubscribeQuery[bridgequery.ListActivityMessage, core.ActivityPage](
				adapter, bridgequery.NewListActivityQuery(handlers.Activity), runnerOpts...))
		})
	}
	if handlers.Selections != nil {
		steps = append(steps, func() error {
			return subs.add(RegisterAndSubscribeQuery[bridgequery.LatestSelectionMessage, core.SelectionEvent](
				adapter, bridgequery.NewLatestSelectionQuery(handlers.Selections), runnerOpts...))
		})
	}
	for _, step := range steps {
		if err := step(); err != nil {
			subs.Unsubscribe()
			return nil, err
		}
	}
	return subs, nil
}
