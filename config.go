package corspolicy

import (
	"errors"
	"slices"
	"strconv"

	"github.com/jub0bs/corspolicy/cfgerrors"
	"github.com/jub0bs/corspolicy/internal/headers"
	"github.com/jub0bs/corspolicy/internal/methods"
	"github.com/jub0bs/corspolicy/internal/origins"
	"github.com/jub0bs/corspolicy/internal/util"
)

// A Config configures a [Policy]. The zero value allows nothing;
// every field is opt-in.
//
// # AllowedOrigins
//
// AllowedOrigins lists the origin patterns from which cross-origin access
// is allowed:
//
//	AllowedOrigins: []string{
//	  "https://example.com",
//	  "*.example.org",
//	  "http://localhost:*",
//	},
//
// A single asterisk denotes all origins. A leading "*." in a host pattern
// denotes one or more period-separated arbitrary DNS labels, so that
// "*.example.org" encompasses https://foo.example.org and
// http://bar.foo.example.org but not https://example.org itself.
// The scheme is optional: a pattern that omits it matches origins of
// any scheme. An asterisk in place of a port denotes an arbitrary
// (possibly implicit) port; otherwise, ports are compared as
// effective ports, so that "http://example.com" encompasses
// http://example.com:80.
//
// Patterns are case-insensitive. The null origin and the file scheme are
// prohibited, and so are patterns that contain userinfo, a path,
// a query, or a fragment. IPv4 hosts must be in dotted-quad notation
// and IPv6 hosts in their [compressed form].
//
// Allowing arbitrary subdomains of a [public suffix] (e.g. "*.com") is
// prohibited unless DangerouslyTolerateSubdomainsOfPublicSuffixes is set.
//
// # AllowedMethods
//
// AllowedMethods lists the methods listed in the
// Access-Control-Allow-Methods header of preflight responses.
// Method names are normalized to upper case; duplicates are ignored.
//
// # AllowedHeaders and ExposedHeaders
//
// AllowedHeaders and ExposedHeaders list the header names listed
// (verbatim and in order) in the Access-Control-Allow-Headers header of
// preflight responses and in the Access-Control-Expose-Headers header
// of actual responses, respectively.
//
// # MaxAge
//
// MaxAge is the number of seconds for which browsers may cache preflight
// responses. Negative values are prohibited. The zero value tells browsers
// not to cache preflight responses.
//
// # AllowedCredentials
//
// AllowedCredentials, when set, adds "Access-Control-Allow-Credentials: true"
// to responses. When both AllowedCredentials is set and all origins are
// allowed, the request's origin is echoed in place of the wildcard,
// because browsers reject the wildcard in credentialed responses.
//
// # EnforceMethods
//
// EnforceMethods, when set, makes preflight fail if the method listed in
// the preflight request is not one of AllowedMethods.
//
// [compressed form]: https://datatracker.ietf.org/doc/html/rfc5952
// [public suffix]: https://publicsuffix.org/
type Config struct {
	// Precludes comparability, unkeyed struct literals, and conversion to and
	// from third-party types.
	_ [0]func()

	AllowedOrigins                                []string `yaml:"allowed_origins,omitempty"`
	AllowedMethods                                []string `yaml:"allowed_methods,omitempty"`
	AllowedHeaders                                []string `yaml:"allowed_headers,omitempty"`
	ExposedHeaders                                []string `yaml:"exposed_headers,omitempty"`
	MaxAge                                        int      `yaml:"max_age,omitempty"`
	AllowedCredentials                            bool     `yaml:"allowed_credentials,omitempty"`
	EnforceMethods                                bool     `yaml:"enforce_methods,omitempty"`
	DangerouslyTolerateSubdomainsOfPublicSuffixes bool     `yaml:"dangerously_tolerate_subdomains_of_public_suffixes,omitempty"`
}

// A Policy is the compiled, immutable form of a [Config].
// Policies are safe for concurrent use by multiple goroutines.
type Policy struct {
	rawOrigins                   []string
	patterns                     []origins.Pattern // empty if anyOrigin
	anyOrigin                    bool
	methods                      util.OrderedSet
	acam                         string
	allowedHdrs                  []string
	acah                         string
	exposedHdrs                  []string
	aceh                         string
	maxAge                       int
	acma                         string
	credentialed                 bool
	enforceMethods               bool
	tolerateSubsOfPublicSuffixes bool
}

// NewPolicy compiles cfg into a [Policy].
// If cfg is invalid, it returns a nil *Policy and some non-nil error
// that joins all the configuration errors found in cfg.
//
// Mutating the fields of cfg after NewPolicy has returned does not alter
// the resulting policy's behavior.
//
// If you need to programmatically handle the configuration errors constitutive
// of the resulting error, rely on package
// [github.com/jub0bs/corspolicy/cfgerrors].
func NewPolicy(cfg Config) (*Policy, error) {
	p := Policy{
		credentialed:                 cfg.AllowedCredentials,
		enforceMethods:               cfg.EnforceMethods,
		tolerateSubsOfPublicSuffixes: cfg.DangerouslyTolerateSubdomainsOfPublicSuffixes,
	}

	// Accumulate errors in a slice so as to call errors.Join at most once.
	errs := p.validateOriginPatterns(cfg.AllowedOrigins)
	errs = p.validateMethods(errs, cfg.AllowedMethods)
	errs = p.validateHeaders(errs, cfg.AllowedHeaders, "request")
	errs = p.validateHeaders(errs, cfg.ExposedHeaders, "response")
	errs = p.validateMaxAge(errs, cfg.MaxAge)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	p.acam = headers.Join(p.methods.ToSlice())
	p.allowedHdrs = slices.Clone(cfg.AllowedHeaders)
	p.acah = headers.Join(p.allowedHdrs)
	p.exposedHdrs = slices.Clone(cfg.ExposedHeaders)
	p.aceh = headers.Join(p.exposedHdrs)
	p.acma = strconv.Itoa(p.maxAge)
	return &p, nil
}

func (p *Policy) validateOriginPatterns(rawPatterns []string) []error {
	var errs []error
	for _, raw := range rawPatterns {
		pattern, err := origins.ParsePattern(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !p.tolerateSubsOfPublicSuffixes && pattern.HostIsEffectiveTLD() {
			err := &cfgerrors.IncompatibleOriginPatternError{
				Value: raw,
			}
			errs = append(errs, err)
			continue
		}
		p.rawOrigins = append(p.rawOrigins, raw)
		if pattern.Kind == origins.Any {
			p.anyOrigin = true
			// We no longer need to maintain a list of patterns.
			p.patterns = nil
			continue
		}
		if !p.anyOrigin {
			p.patterns = append(p.patterns, pattern)
		}
	}
	return errs
}

func (p *Policy) validateMethods(errs []error, names []string) []error {
	for _, name := range names {
		if !methods.IsValid(name) {
			err := &cfgerrors.UnacceptableMethodError{
				Value: name,
			}
			errs = append(errs, err)
			continue
		}
		p.methods.Add(methods.Normalize(name))
	}
	return errs
}

// validateHeaders validates names, which are either the names of allowed
// request headers or those of exposed response headers, depending on typ.
func (*Policy) validateHeaders(errs []error, names []string, typ string) []error {
	for _, name := range names {
		if !headers.IsValid(name) {
			err := &cfgerrors.UnacceptableHeaderNameError{
				Value: name,
				Type:  typ,
			}
			errs = append(errs, err)
		}
	}
	return errs
}

func (p *Policy) validateMaxAge(errs []error, delta int) []error {
	if delta < 0 {
		err := &cfgerrors.MaxAgeOutOfBoundsError{
			Value: delta,
		}
		return append(errs, err)
	}
	p.maxAge = delta
	return errs
}

// Config returns a deep copy of a [Config] equivalent to the one from which
// p was compiled; if p is nil, it returns the zero Config.
// The following statement is guaranteed to succeed and produce a policy
// that behaves exactly like p:
//
//	corspolicy.NewPolicy(p.Config())
//
// Mutating the fields of the result does not alter p's behavior.
func (p *Policy) Config() Config {
	if p == nil {
		return Config{}
	}
	var allowedMethods []string
	if p.methods.Size() > 0 {
		allowedMethods = p.methods.ToSlice()
	}
	return Config{
		AllowedOrigins:     slices.Clone(p.rawOrigins),
		AllowedMethods:     allowedMethods,
		AllowedHeaders:     slices.Clone(p.allowedHdrs),
		ExposedHeaders:     slices.Clone(p.exposedHdrs),
		MaxAge:             p.maxAge,
		AllowedCredentials: p.credentialed,
		EnforceMethods:     p.enforceMethods,
		DangerouslyTolerateSubdomainsOfPublicSuffixes: p.tolerateSubsOfPublicSuffixes,
	}
}
