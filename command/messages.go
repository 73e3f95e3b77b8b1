package command

import (
	"strings"

	"github.com/goliatone/go-paybridge/core"
)

const (
	TypeInit           = "paybridge.command.init"
	TypeDestroy        = "paybridge.command.destroy"
	TypeShowChoice     = "paybridge.command.choice.show"
	TypeRequestPayment = "paybridge.command.payment.request"
	TypeConfirmPayment = "paybridge.command.payment.confirm"
)

type InitMessage struct {
	Options core.InitOptions
}

func (InitMessage) Type() string { return TypeInit }

func (m InitMessage) Validate() error {
	if m.Options.Provider == nil {
		return commandValidationError("provider", "credential provider function is required")
	}
	return nil
}

type DestroyMessage struct{}

func (DestroyMessage) Type() string { return TypeDestroy }

type ShowChoiceMessage struct {
	OnSelected func(core.SelectionEvent)
}

func (ShowChoiceMessage) Type() string { return TypeShowChoice }

func (m ShowChoiceMessage) Validate() error {
	if m.OnSelected == nil {
		return commandValidationError("on_selected", "selection callback is required")
	}
	return nil
}

type RequestPaymentMessage struct {
	Options core.PaymentContextOptions
}

func (RequestPaymentMessage) Type() string { return TypeRequestPayment }

type ConfirmPaymentMessage struct {
	Options core.ChargeOptions
}

func (ConfirmPaymentMessage) Type() string { return TypeConfirmPayment }

func (m ConfirmPaymentMessage) Validate() error {
	if strings.TrimSpace(m.Options.ClientSecret) == "" {
		return commandValidationError("client_secret", "client secret is required")
	}
	return nil
}
