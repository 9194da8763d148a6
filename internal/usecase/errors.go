package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// 機械判定用のエラー種別
type ErrorKind string

const (
	KindInvalidRequest          ErrorKind = "InvalidRequest"
	KindUnauthorized            ErrorKind = "Unauthorized"
	KindNotFound                ErrorKind = "NotFound"
	KindInvalidItem             ErrorKind = "InvalidItem"
	KindMissingPostalCode       ErrorKind = "MissingPostalCode"
	KindInvalidPostalCode       ErrorKind = "InvalidPostalCode"
	KindDeliveryUnavailable     ErrorKind = "DeliveryUnavailable"
	KindInvalidCoupon           ErrorKind = "InvalidCoupon"
	KindItemsUnavailable        ErrorKind = "ItemsUnavailable"
	KindAddressResolutionFailed ErrorKind = "AddressResolutionFailed"
	KindCannotCancel            ErrorKind = "CannotCancel"
	KindIdempotencyConflict     ErrorKind = "IdempotencyConflict"
	KindTransitionNotAllowed    ErrorKind = "TransitionNotAllowed"
	KindConflict                ErrorKind = "Conflict"
	KindInternal                ErrorKind = "Internal"
)

type HTTPError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Details map[string]string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// 種別はstatusから決める
func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Kind:    kindFromStatus(status),
		Message: message,
	}
}

func newKindError(status int, kind ErrorKind, message string) *HTTPError {
	return &HTTPError{Status: status, Kind: kind, Message: message}
}

func (e *HTTPError) withDetails(kv ...string) *HTTPError {
	if e.Details == nil {
		e.Details = make(map[string]string, len(kv)/2)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Details[kv[i]] = kv[i+1]
	}
	return e
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func kindFromStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindInvalidRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	}
	return KindInternal
}

func errDB() error {
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
