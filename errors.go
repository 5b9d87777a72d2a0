package corspolicy

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jub0bs/corspolicy/internal/headers"
)

// An InvalidOriginHeaderError indicates a request whose Origin header
// cannot possibly be a serialized origin (e.g. "file:").
type InvalidOriginHeaderError struct {
	Origin string // the raw value of the Origin header
}

func (err *InvalidOriginHeaderError) Error() string {
	return fmt.Sprintf("corspolicy: invalid Origin header %q", err.Origin)
}

// A DisallowedOriginError indicates a cross-origin request whose origin
// is not allowed.
type DisallowedOriginError struct {
	Origin string // the raw value of the Origin header
}

func (err *DisallowedOriginError) Error() string {
	return fmt.Sprintf("The origin %q is not authorized", err.Origin)
}

// A DisallowedMethodError indicates a preflight request for a method
// that is not allowed.
type DisallowedMethodError struct {
	Origin string // the raw value of the Origin header
	Method string // the raw value of the Access-Control-Request-Method header
}

func (err *DisallowedMethodError) Error() string {
	return fmt.Sprintf("The method %q is not authorized", err.Method)
}

// StatusCode returns the status code of the response that corresponds to
// err: 400 for an *[InvalidOriginHeaderError], 403 for a
// *[DisallowedOriginError] or a *[DisallowedMethodError],
// and 0 for all other errors.
func StatusCode(err error) int {
	var (
		invalid          *InvalidOriginHeaderError
		disallowedOrigin *DisallowedOriginError
		disallowedMethod *DisallowedMethodError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &disallowedOrigin), errors.As(err, &disallowedMethod):
		return http.StatusForbidden
	default:
		return 0
	}
}

// WriteError, if err is a CORS error (see [StatusCode]), writes the
// corresponding response to w and returns true; otherwise, it leaves w
// untouched and returns false.
// The response to an *[InvalidOriginHeaderError] has an empty body;
// the responses to other CORS errors carry the error message as a
// plain-text body.
//
// WriteError does not remove headers already set on w;
// the middleware only ever calls it with a fresh header map.
func WriteError(w http.ResponseWriter, err error) bool {
	status := StatusCode(err)
	if status == 0 {
		return false
	}
	h := w.Header()
	if status == http.StatusBadRequest {
		h.Set(headers.ContentLength, headers.ValueZero)
		w.WriteHeader(status)
		return true
	}
	msg := rejectionMessage(err)
	h.Set(headers.ContentType, "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	io.WriteString(w, msg)
	return true
}

// rejectionMessage returns the message of the outermost CORS rejection
// in err's tree, so that wrapping does not leak into response bodies.
func rejectionMessage(err error) string {
	var disallowedOrigin *DisallowedOriginError
	if errors.As(err, &disallowedOrigin) {
		return disallowedOrigin.Error()
	}
	var disallowedMethod *DisallowedMethodError
	if errors.As(err, &disallowedMethod) {
		return disallowedMethod.Error()
	}
	return err.Error()
}
