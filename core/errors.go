package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	BridgeErrorBadInput          = "PAYBRIDGE_BAD_INPUT"
	BridgeErrorProviderRequired  = "PAYBRIDGE_PROVIDER_REQUIRED"
	BridgeErrorNativeCallFailed  = "PAYBRIDGE_NATIVE_CALL_FAILED"
	BridgeErrorChargeFailed      = "PAYBRIDGE_CHARGE_FAILED"
	BridgeErrorSubscribeFailed   = "PAYBRIDGE_SUBSCRIBE_FAILED"
	BridgeErrorInternal          = "PAYBRIDGE_INTERNAL_ERROR"
	BridgeErrorProviderPanicked  = "PAYBRIDGE_PROVIDER_PANICKED"
	BridgeErrorProviderTimedOut  = "PAYBRIDGE_PROVIDER_TIMED_OUT"
	BridgeErrorChargeUnconfirmed = "PAYBRIDGE_CHARGE_UNCONFIRMED"
	BridgeErrorSelectionNotFound = "PAYBRIDGE_SELECTION_NOT_FOUND"
)

// providerRequiredError is returned by Init and CredentialRelay.Start when no
// provider function is configured.
func providerRequiredError() error {
	return bridgeError(
		"core: credential provider function is required",
		goerrors.CategoryBadInput,
		BridgeErrorProviderRequired,
		nil,
	)
}

func bridgeError(message string, category goerrors.Category, textCode string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(bridgeHTTPStatus(category)).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func bridgeWrapError(source error, category goerrors.Category, message string, textCode string, metadata map[string]any) *goerrors.Error {
	if source == nil {
		return bridgeError(message, category, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(bridgeHTTPStatus(category)).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// SelectionNotFoundError reports that no selection was recorded for identityKey.
func SelectionNotFoundError(identityKey string) error {
	return bridgeError(
		"core: no selection recorded",
		goerrors.CategoryNotFound,
		BridgeErrorSelectionNotFound,
		map[string]any{"identity_key": identityKey},
	)
}

func dependencyError(message string) error {
	return bridgeError(message, goerrors.CategoryInternal, BridgeErrorInternal, nil)
}

func bridgeErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureBridgeErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "provider") && strings.Contains(msg, "required"):
		return bridgeError(err.Error(), goerrors.CategoryBadInput, BridgeErrorProviderRequired, nil)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "must be"):
		return bridgeError(err.Error(), goerrors.CategoryBadInput, BridgeErrorBadInput, nil)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureBridgeErrorEnvelope(mapped)
}

func ensureBridgeErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = bridgeHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultBridgeTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultBridgeTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return BridgeErrorBadInput
	case goerrors.CategoryOperation:
		return BridgeErrorNativeCallFailed
	default:
		return BridgeErrorInternal
	}
}

func bridgeHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
