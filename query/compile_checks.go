package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-paybridge/core"
)

var (
	_ gocmd.Querier[CurrentPaymentMethodMessage, core.PaymentMethod] = (*CurrentPaymentMethodQuery)(nil)
	_ gocmd.Querier[ListActivityMessage, core.ActivityPage]          = (*ListActivityQuery)(nil)
	_ gocmd.Querier[LatestSelectionMessage, core.SelectionEvent]     = (*LatestSelectionQuery)(nil)

	_ PaymentMethodReader = (*core.Manager)(nil)
)
