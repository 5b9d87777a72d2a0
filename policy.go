package corspolicy

import (
	"net/http"

	"github.com/jub0bs/corspolicy/internal/headers"
	"github.com/jub0bs/corspolicy/internal/methods"
	"github.com/jub0bs/corspolicy/internal/origins"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// IsCORSRequest reports whether r is a cross-origin request, i.e. whether r
// carries an Origin header whose (scheme, host, effective port) triple
// differs from that of r itself. The opaque origin ("null") is cross-origin
// with every request.
//
// If r's Origin header cannot possibly be a serialized origin (e.g. "file:"),
// IsCORSRequest returns false and a non-nil *[InvalidOriginHeaderError].
func IsCORSRequest(r *http.Request) (bool, error) {
	_, cors, err := classify(r)
	return cors, err
}

// IsPreflightRequest reports whether r is a [CORS-preflight request]:
// a cross-origin request whose method is, case-insensitively, OPTIONS and
// that carries an Access-Control-Request-Method header.
// Its error result is that of [IsCORSRequest].
//
// [CORS-preflight request]: https://developer.mozilla.org/en-US/docs/Glossary/Preflight_request
func IsPreflightRequest(r *http.Request) (bool, error) {
	_, cors, err := classify(r)
	if !cors {
		return false, err
	}
	return isPreflight(r), nil
}

// classify parses r's Origin header, if any, and reports whether r is a
// cross-origin request.
func classify(r *http.Request) (origins.Origin, bool, error) {
	// Browsers send at most one Origin header;
	// see https://fetch.spec.whatwg.org/#http-network-or-cache-fetch
	// (step 12).
	raw, found := headers.First(r.Header, headers.Origin)
	if !found {
		return origins.Origin{}, false, nil
	}
	o, ok := origins.Parse(raw)
	if !ok {
		return origins.Origin{}, false, &InvalidOriginHeaderError{Origin: raw}
	}
	self := requestOrigin(r)
	return o, !o.SameOrigin(&self), nil
}

// Precondition: r is a cross-origin request.
func isPreflight(r *http.Request) bool {
	_, found := r.Header[headers.ACRM]
	return found && methods.IsOPTIONS(r.Method)
}

// requestOrigin returns the origin under which r is being served.
func requestOrigin(r *http.Request) origins.Origin {
	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = schemeHTTP
		if r.TLS != nil {
			scheme = schemeHTTPS
		}
	}
	host := r.URL.Host
	if host == "" {
		host = r.Host
	}
	return origins.FromRequest(scheme, host)
}

// DecisionKind is the outcome of origin resolution.
type DecisionKind uint8

const (
	// Denied means that the origin is not allowed.
	Denied DecisionKind = iota
	// Wildcard means that the origin is allowed via "*".
	Wildcard
	// Echo means that the origin is allowed and must be echoed verbatim.
	Echo
)

func (k DecisionKind) String() string {
	switch k {
	case Wildcard:
		return "wildcard"
	case Echo:
		return "echo"
	default:
		return "denied"
	}
}

// A Decision is the result of [Policy.ResolveAllowedOrigin].
type Decision struct {
	Kind DecisionKind
	// Origin is the raw value of the request's Origin header.
	Origin string
}

// AllowOrigin returns the value of the Access-Control-Allow-Origin header
// that corresponds to d, or the empty string if d is a denial.
func (d Decision) AllowOrigin() string {
	switch d.Kind {
	case Wildcard:
		return headers.ValueWildcard
	case Echo:
		return d.Origin
	default:
		return ""
	}
}

// ResolveAllowedOrigin decides whether and how p allows the origin of r.
//
// If p allows all origins, the result is a [Wildcard] decision, except when
// p allows credentials: the request's origin is then echoed instead, because
// browsers reject "*" in credentialed responses. The opaque origin ("null")
// is never echoed.
// Otherwise, if one of p's origin patterns matches r's origin, the result is
// an [Echo] decision. In all other cases (including requests whose Origin
// header is absent or malformed), the result is a [Denied] decision.
func (p *Policy) ResolveAllowedOrigin(r *http.Request) Decision {
	raw, _ := headers.First(r.Header, headers.Origin)
	o, ok := origins.Parse(raw)
	return p.resolve(raw, &o, ok)
}

func (p *Policy) resolve(raw string, o *origins.Origin, ok bool) Decision {
	denied := Decision{Kind: Denied, Origin: raw}
	if !ok {
		return denied
	}
	if p.anyOrigin {
		if !p.credentialed {
			return Decision{Kind: Wildcard, Origin: raw}
		}
		if o.Opaque {
			return denied
		}
		return Decision{Kind: Echo, Origin: raw}
	}
	for i := range p.patterns {
		if p.patterns[i].Matches(o) {
			return Decision{Kind: Echo, Origin: raw}
		}
	}
	return denied
}

// PreflightHeaders computes the headers of the response to r,
// a preflight request. If p denies r's origin, PreflightHeaders returns a
// nil header and a non-nil *[DisallowedOriginError].
// If p enforces methods and does not allow the method listed in r's
// Access-Control-Request-Method header, it returns a nil header and
// a non-nil *[DisallowedMethodError].
//
// The result is a fresh header map; the status of the corresponding
// response is 200 and its body is empty.
func (p *Policy) PreflightHeaders(r *http.Request) (http.Header, error) {
	d := p.ResolveAllowedOrigin(r)
	return p.preflightHeaders(r, d)
}

func (p *Policy) preflightHeaders(r *http.Request, d Decision) (http.Header, error) {
	if d.Kind == Denied {
		return nil, &DisallowedOriginError{Origin: d.Origin}
	}
	if p.enforceMethods {
		// Browsers send at most one ACRM header;
		// see https://fetch.spec.whatwg.org/#cors-preflight-fetch (step 3).
		acrm, _ := headers.First(r.Header, headers.ACRM)
		if !p.methods.Contains(methods.Normalize(acrm)) {
			return nil, &DisallowedMethodError{Origin: d.Origin, Method: acrm}
		}
	}
	// Populating a small local map is cheap;
	// a simple http.Header will do.
	h := make(http.Header, 7)
	h.Set(headers.ACAO, d.AllowOrigin())
	h.Set(headers.ACAM, p.acam)
	h.Set(headers.ACAH, p.acah)
	h.Set(headers.ACMA, p.acma)
	h.Set(headers.ContentLength, headers.ValueZero)
	if p.credentialed {
		h.Set(headers.ACAC, headers.ValueTrue)
	}
	return h, nil
}

// Annotate adds the CORS headers of the response to r, a non-preflight
// cross-origin request, to h, the response's own header map.
// Headers already present in h are preserved, except for the
// Access-Control-* headers that Annotate sets and the Vary header,
// to which Annotate adds "Origin" unless the allowed origin is "*".
//
// If p denies r's origin, Annotate leaves h unchanged and returns a non-nil
// *[DisallowedOriginError].
func (p *Policy) Annotate(r *http.Request, h http.Header) error {
	d := p.ResolveAllowedOrigin(r)
	return p.annotate(h, d)
}

func (p *Policy) annotate(h http.Header, d Decision) error {
	if d.Kind == Denied {
		return &DisallowedOriginError{Origin: d.Origin}
	}
	acao := d.AllowOrigin()
	h.Set(headers.ACAO, acao)
	h.Set(headers.ACEH, p.aceh)
	ensureVary(h, acao)
	if p.credentialed {
		h.Set(headers.ACAC, headers.ValueTrue)
	}
	return nil
}

// ensureVary lists Origin in h's Vary header, unless acao is "*"
// (a wildcard response does not depend on the request's origin).
// Existing Vary field lines are folded into a single one.
// If Origin or "*" is already listed, ensureVary leaves h unchanged.
func ensureVary(h http.Header, acao string) {
	if acao == headers.ValueWildcard {
		return
	}
	vary := h[headers.Vary]
	if len(vary) == 0 {
		h.Set(headers.Vary, headers.Origin)
		return
	}
	if headers.ContainsToken(vary, headers.Origin) ||
		headers.ContainsToken(vary, headers.ValueWildcard) {
		return
	}
	h.Set(headers.Vary, headers.Join(vary)+headers.ValueSep+headers.Origin)
}
