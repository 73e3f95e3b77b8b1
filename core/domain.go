package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultCredentialRequestedChannel = "paybridge.credential.requested"
	DefaultSelectionChangedChannel    = "paybridge.selection.changed"
	DefaultChargeReadyChannel         = "paybridge.charge.ready"
)

const (
	ActivityCredentialDelivered = "credential.delivered"
	ActivityCredentialFailed    = "credential.failed"
	ActivitySelectionChanged    = "selection.changed"
	ActivityChargeReady         = "charge.ready"
)

type CredentialPayload map[string]any

type CredentialRequest struct {
	APIVersion string
}

// CredentialRequestFromPayload reads the notification payload without
// interpreting the api version.
func CredentialRequestFromPayload(payload map[string]any) CredentialRequest {
	req := CredentialRequest{}
	if payload == nil {
		return req
	}
	switch value := payload["apiVersion"].(type) {
	case string:
		req.APIVersion = value
	case nil:
	default:
		req.APIVersion = fmt.Sprint(value)
	}
	return req
}

type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
)

type CredentialOutcome struct {
	Kind    OutcomeKind
	Payload CredentialPayload
}

func Success(payload CredentialPayload) CredentialOutcome {
	return CredentialOutcome{Kind: OutcomeSuccess, Payload: payload}
}

func Failure() CredentialOutcome {
	return CredentialOutcome{Kind: OutcomeFailure}
}

func (o CredentialOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// SelectionEvent is the opaque descriptor of the instrument the user picked.
type SelectionEvent map[string]any

func (e SelectionEvent) Brand() string {
	return selectionString(e, "brand")
}

func (e SelectionEvent) Last4() string {
	return selectionString(e, "last4")
}

func selectionString(e SelectionEvent, key string) string {
	if e == nil {
		return ""
	}
	value, ok := e[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// PaymentMethod is what the native side resolves a payment context with. It
// is empty when no card-like instrument is selected.
type PaymentMethod map[string]any

func (m PaymentMethod) Empty() bool {
	return len(m) == 0
}

type Theme map[string]any

type InitOptions struct {
	IdentityKey string
	Provider    ProviderFunc
	MerchantID  string
	Theme       Theme
}

type NativeInit struct {
	IdentityKey string
	MerchantID  string
	Theme       Theme
}

type PaymentContextOptions map[string]any

type ChargeOptions struct {
	ClientSecret string
	ReturnURL    string
	Metadata     map[string]any
}

type ChargeReadiness struct {
	Ready   bool
	Payload map[string]any
}

type ActivityStatus string

const (
	ActivityStatusOK     ActivityStatus = "ok"
	ActivityStatusFailed ActivityStatus = "failed"
)

type ActivityEntry struct {
	ID          string
	IdentityKey string
	Action      string
	Channel     string
	RequestID   string
	Status      ActivityStatus
	Metadata    map[string]any
	CreatedAt   time.Time
}

type ActivityFilter struct {
	IdentityKey string
	Action      string
	Status      ActivityStatus
	From        *time.Time
	To          *time.Time
	Page        int
	PerPage     int
}

type ActivityPage struct {
	Items   []ActivityEntry
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
