// Package methods provides helpers for handling HTTP method names.
package methods

import (
	"net/http"

	"github.com/jub0bs/corspolicy/internal/util"
	"golang.org/x/net/http/httpguts"
)

// IsValid reports whether name is a valid method, [per the Fetch standard].
//
// [per the Fetch standard]: https://fetch.spec.whatwg.org/#concept-method
func IsValid(name string) bool {
	// Note: the production is identical to that of header names.
	return httpguts.ValidHeaderFieldName(name)
}

// Normalize returns the byte-uppercase version of name.
// Configured methods are normalized once, so that "post" and "POST"
// denote the same allowed method.
func Normalize(name string) string {
	return util.ByteUppercase(name)
}

// IsOPTIONS reports whether name is, case-insensitively, the OPTIONS method.
func IsOPTIONS(name string) bool {
	if name == http.MethodOptions { // fast path
		return true
	}
	return len(name) == len(http.MethodOptions) &&
		Normalize(name) == http.MethodOptions
}
