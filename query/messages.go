package query

import (
	"strings"

	"github.com/goliatone/go-paybridge/core"
)

const (
	TypeCurrentPaymentMethod = "paybridge.query.payment_method.current"
	TypeListActivity         = "paybridge.query.activity.list"
	TypeLatestSelection      = "paybridge.query.selection.latest"
)

type CurrentPaymentMethodMessage struct {
	Options core.PaymentContextOptions
}

func (CurrentPaymentMethodMessage) Type() string { return TypeCurrentPaymentMethod }

type ListActivityMessage struct {
	Filter core.ActivityFilter
}

func (ListActivityMessage) Type() string { return TypeListActivity }

func (m ListActivityMessage) Validate() error {
	if m.Filter.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.Filter.PerPage < 0 || m.Filter.PerPage > 500 {
		return queryValidationError("per_page", "per_page must be between 0 and 500")
	}
	if m.Filter.From != nil && m.Filter.To != nil && m.Filter.To.Before(*m.Filter.From) {
		return queryValidationError("to", "to must not be before from")
	}
	return nil
}

type LatestSelectionMessage struct {
	IdentityKey string
}

func (LatestSelectionMessage) Type() string { return TypeLatestSelection }

func (m LatestSelectionMessage) Validate() error {
	if strings.TrimSpace(m.IdentityKey) == "" {
		return queryValidationError("identity_key", "identity key is required")
	}
	return nil
}
