package paybridge

import (
	"fmt"

	bridgecommand "github.com/goliatone/go-paybridge/command"
	"github.com/goliatone/go-paybridge/core"
	bridgequery "github.com/goliatone/go-paybridge/query"
)

type CommandQueryBridge interface {
	bridgecommand.MutatingBridge
	bridgequery.PaymentMethodReader
}

type Commands struct {
	Init           *bridgecommand.InitCommand
	Destroy        *bridgecommand.DestroyCommand
	ShowChoice     *bridgecommand.ShowChoiceCommand
	RequestPayment *bridgecommand.RequestPaymentCommand
	ConfirmPayment *bridgecommand.ConfirmPaymentCommand
}

type Queries struct {
	CurrentPaymentMethod *bridgequery.CurrentPaymentMethodQuery
	ListActivity         *bridgequery.ListActivityQuery
	LatestSelection      *bridgequery.LatestSelectionQuery
}

type Facade struct {
	bridge   CommandQueryBridge
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	activityReader  core.ActivityReader
	selectionReader bridgequery.SelectionReader
}

func WithActivityReader(reader core.ActivityReader) FacadeOption {
	return func(options *facadeOptions) {
		options.activityReader = reader
	}
}

func WithSelectionReader(reader bridgequery.SelectionReader) FacadeOption {
	return func(options *facadeOptions) {
		options.selectionReader = reader
	}
}

func NewFacade(bridge CommandQueryBridge, opts ...FacadeOption) (*Facade, error) {
	if bridge == nil {
		return nil, fmt.Errorf("paybridge: command/query bridge is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	activity := cfg.activityReader
	if activity == nil {
		activity = resolveActivityReader(bridge)
	}
	selections := cfg.selectionReader
	if selections == nil {
		if reader, ok := activity.(bridgequery.SelectionReader); ok {
			selections = reader
		}
	}

	facade := &Facade{bridge: bridge}
	facade.commands = Commands{
		Init:           bridgecommand.NewInitCommand(bridge),
		Destroy:        bridgecommand.NewDestroyCommand(bridge),
		ShowChoice:     bridgecommand.NewShowChoiceCommand(bridge),
		RequestPayment: bridgecommand.NewRequestPaymentCommand(bridge),
		ConfirmPayment: bridgecommand.NewConfirmPaymentCommand(bridge),
	}
	facade.queries = Queries{
		CurrentPaymentMethod: bridgequery.NewCurrentPaymentMethodQuery(bridge),
		ListActivity:         bridgequery.NewListActivityQuery(activity),
		LatestSelection:      bridgequery.NewLatestSelectionQuery(selections),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Bridge() CommandQueryBridge {
	if f == nil {
		return nil
	}
	return f.bridge
}

// resolveActivityReader falls back to the bridge's own activity sink when
// that sink can also be read back.
func resolveActivityReader(bridge CommandQueryBridge) core.ActivityReader {
	if reader, ok := bridge.(core.ActivityReader); ok {
		return reader
	}
	provider, ok := bridge.(interface {
		ActivitySink() core.ActivitySink
	})
	if !ok {
		return nil
	}
	reader, ok := provider.ActivitySink().(core.ActivityReader)
	if !ok {
		return nil
	}
	return reader
}
