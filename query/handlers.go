package query

import (
	"context"

	"github.com/goliatone/go-paybridge/core"
)

type PaymentMethodReader interface {
	GetCurrentPaymentMethod(ctx context.Context, options core.PaymentContextOptions) (core.PaymentMethod, error)
}

type SelectionReader interface {
	LatestSelection(ctx context.Context, identityKey string) (core.SelectionEvent, error)
}

type CurrentPaymentMethodQuery struct {
	reader PaymentMethodReader
}

func NewCurrentPaymentMethodQuery(reader PaymentMethodReader) *CurrentPaymentMethodQuery {
	return &CurrentPaymentMethodQuery{reader: reader}
}

func (q *CurrentPaymentMethodQuery) Query(ctx context.Context, msg CurrentPaymentMethodMessage) (core.PaymentMethod, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: payment method reader is required")
	}
	return q.reader.GetCurrentPaymentMethod(ctx, msg.Options)
}

type ListActivityQuery struct {
	reader core.ActivityReader
}

func NewListActivityQuery(reader core.ActivityReader) *ListActivityQuery {
	return &ListActivityQuery{reader: reader}
}

func (q *ListActivityQuery) Query(ctx context.Context, msg ListActivityMessage) (core.ActivityPage, error) {
	if q == nil || q.reader == nil {
		return core.ActivityPage{}, queryDependencyError("query: activity reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}

type LatestSelectionQuery struct {
	reader SelectionReader
}

func NewLatestSelectionQuery(reader SelectionReader) *LatestSelectionQuery {
	return &LatestSelectionQuery{reader: reader}
}

func (q *LatestSelectionQuery) Query(ctx context.Context, msg LatestSelectionMessage) (core.SelectionEvent, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: selection reader is required")
	}
	return q.reader.LatestSelection(ctx, msg.IdentityKey)
}
