// Package headers gathers the names of the CORS-related HTTP headers
// and a few helpers for reading and writing them.
package headers

import (
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// header names in canonical format
const (
	// common request headers
	Origin = "Origin"

	// preflight-only request headers
	ACRM = "Access-Control-Request-Method"
	ACRH = "Access-Control-Request-Headers"

	// common response headers
	ACAO = "Access-Control-Allow-Origin"
	ACAC = "Access-Control-Allow-Credentials"

	// preflight-only response headers
	ACAM = "Access-Control-Allow-Methods"
	ACAH = "Access-Control-Allow-Headers"
	ACMA = "Access-Control-Max-Age"

	// actual-only response headers
	ACEH = "Access-Control-Expose-Headers"

	ContentLength = "Content-Length"
	ContentType   = "Content-Type"
	Vary          = "Vary"
)

const (
	ValueTrue     = "true"
	ValueWildcard = "*"
	ValueNull     = "null"
	ValueZero     = "0"
)

// ValueSep separates the elements of the list-based header values
// that we write.
const ValueSep = ", "

// IsValid reports whether name is a valid header name,
// [per the Fetch standard].
//
// [per the Fetch standard]: https://fetch.spec.whatwg.org/#header-name
func IsValid(name string) bool {
	return httpguts.ValidHeaderFieldName(name)
}

// First, if k is present in hdrs, returns the first value associated to k
// in hdrs and true; otherwise, First returns "", false.
// Precondition: k is in canonical format (see [http.CanonicalHeaderKey]).
//
// Contrary to [http.Header.Get], First distinguishes between an absent
// header and a header whose value is empty.
func First(hdrs http.Header, k string) (string, bool) {
	v, found := hdrs[k]
	if !found || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// Join joins elems with [ValueSep].
// The result is empty if elems is.
func Join(elems []string) string {
	return strings.Join(elems, ValueSep)
}

// ContainsToken reports whether one of the comma-separated elements
// of one of the field lines in vs is equal to token (case-insensitively),
// ignoring optional whitespace around elements.
func ContainsToken(vs []string, token string) bool {
	for _, v := range vs {
		for elem := range strings.SplitSeq(v, ",") {
			if strings.EqualFold(strings.TrimSpace(elem), token) {
				return true
			}
		}
	}
	return false
}
