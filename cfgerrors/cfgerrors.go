/*
Package cfgerrors provides functionalities for programmatically handling
configuration errors produced by package [github.com/jub0bs/corspolicy].

Most users have no use for this package. However, services that let their
tenants configure CORS (e.g. via a YAML document or some Web portal) may find
it useful: it indeed allows them to report each CORS-configuration mistake
separately, perhaps with custom, human-friendly error messages.
*/
package cfgerrors

import (
	"fmt"
	"iter"
)

// An UnacceptableOriginPatternError indicates an unacceptable origin pattern.
// The Reason field may take one of two values:
//   - "invalid": the origin pattern is invalid;
//   - "prohibited": the origin pattern is prohibited by this library.
//
// For more details, see [github.com/jub0bs/corspolicy.Config.AllowedOrigins].
type UnacceptableOriginPatternError struct {
	Value  string // the unacceptable value that was specified
	Reason string // invalid | prohibited
}

func (err *UnacceptableOriginPatternError) Error() string {
	const tmpl = "corspolicy: %s origin pattern %q"
	return fmt.Sprintf(tmpl, err.Reason, err.Value)
}

// An UnacceptableMethodError indicates an invalid method.
//
// For more details, see [github.com/jub0bs/corspolicy.Config.AllowedMethods].
type UnacceptableMethodError struct {
	Value string // the unacceptable value that was specified
}

func (err *UnacceptableMethodError) Error() string {
	const tmpl = "corspolicy: invalid method %q"
	return fmt.Sprintf(tmpl, err.Value)
}

// An UnacceptableHeaderNameError indicates an invalid header name.
// The Type field may take one of two values:
//   - "request" (see [github.com/jub0bs/corspolicy.Config.AllowedHeaders]);
//   - "response" (see [github.com/jub0bs/corspolicy.Config.ExposedHeaders]).
type UnacceptableHeaderNameError struct {
	Value string // the unacceptable value that was specified
	Type  string // request | response
}

func (err *UnacceptableHeaderNameError) Error() string {
	const tmpl = "corspolicy: invalid %s-header name %q"
	return fmt.Sprintf(tmpl, err.Type, err.Value)
}

// A MaxAgeOutOfBoundsError indicates a negative max-age value.
//
// For more details, see [github.com/jub0bs/corspolicy.Config.MaxAge].
type MaxAgeOutOfBoundsError struct {
	Value int // the unacceptable value that was specified
}

func (err *MaxAgeOutOfBoundsError) Error() string {
	const tmpl = "corspolicy: out-of-bounds max-age value %d (must be non-negative)"
	return fmt.Sprintf(tmpl, err.Value)
}

// An IncompatibleOriginPatternError indicates an origin pattern that
// encompasses arbitrary subdomains of a public suffix (e.g. "*.com")
// even though
// [github.com/jub0bs/corspolicy.Config.DangerouslyTolerateSubdomainsOfPublicSuffixes]
// is not set.
type IncompatibleOriginPatternError struct {
	Value string // the offending origin pattern
}

func (err *IncompatibleOriginPatternError) Error() string {
	const tmpl = "corspolicy: for security reasons, origin patterns like %q that encompass subdomains of a public suffix are by default prohibited"
	return fmt.Sprintf(tmpl, err.Value)
}

// A RouteError indicates a configuration error specific to one route of a
// configuration document. Err is itself a CORS-configuration error or
// a join of several; [All] does not descend into it.
type RouteError struct {
	Pattern string // the ServeMux pattern of the route
	Err     error
}

func (err *RouteError) Error() string {
	return fmt.Sprintf("corspolicy: route %q: %v", err.Pattern, err.Err)
}

func (err *RouteError) Unwrap() error {
	return err.Err
}

// All returns an iterator over the CORS-configuration errors contained in
// err's error tree. The order is unspecified and may change from one release
// to the next. All only supports error values returned by
// [github.com/jub0bs/corspolicy.NewPolicy] and
// [github.com/jub0bs/corspolicy.FileConfig.Build]; it should not be called on
// any other error value.
func All(err error) iter.Seq[error] {
	return func(yield func(error) bool) {
		every(err, yield)
	}
}

func every(err error, f func(error) bool) bool {
	switch err := err.(type) {
	// There's no need for any "interface { Unwrap() error }" case because,
	// RouteError aside, we never wrap errors; we only ever join them.
	case interface{ Unwrap() []error }:
		for _, err := range err.Unwrap() {
			if !every(err, f) {
				return false
			}
		}
		return true
	default:
		return f(err)
	}
}
