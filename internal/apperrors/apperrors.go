package apperrors

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindAuthorization   Kind = "authorization"
	KindNotFound        Kind = "not_found"
	KindTransition      Kind = "transition"
	KindExternalService Kind = "external_service"
)

// Exception is the error type every service returns. Handlers translate the
// status code into the HTTP response; Kind lets tests assert the category.
type Exception struct {
	Kind       Kind
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	return e.Message
}

func Validation(msg string) *Exception {
	return &Exception{Kind: KindValidation, Message: msg, StatusCode: http.StatusBadRequest}
}

func Authorization(msg string) *Exception {
	return &Exception{Kind: KindAuthorization, Message: msg, StatusCode: http.StatusForbidden}
}

func NotFound(msg string) *Exception {
	return &Exception{Kind: KindNotFound, Message: msg, StatusCode: http.StatusNotFound}
}

// Transition reports a state machine guard failure, e.g. accepting an offer
// on a task that is no longer pending.
func Transition(msg string) *Exception {
	return &Exception{Kind: KindTransition, Message: msg, StatusCode: http.StatusConflict}
}

// ExternalService wraps failures of best-effort collaborators (email
// fan-out, storage). These are logged and swallowed, never failing the
// primary write.
func ExternalService(msg string) *Exception {
	return &Exception{Kind: KindExternalService, Message: msg, StatusCode: http.StatusBadGateway}
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func KindOf(err error) Kind {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
