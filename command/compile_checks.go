package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-paybridge/core"
)

var (
	_ gocmd.Commander[InitMessage]           = (*InitCommand)(nil)
	_ gocmd.Commander[DestroyMessage]        = (*DestroyCommand)(nil)
	_ gocmd.Commander[ShowChoiceMessage]     = (*ShowChoiceCommand)(nil)
	_ gocmd.Commander[RequestPaymentMessage] = (*RequestPaymentCommand)(nil)
	_ gocmd.Commander[ConfirmPaymentMessage] = (*ConfirmPaymentCommand)(nil)

	_ MutatingBridge = (*core.Manager)(nil)
)
