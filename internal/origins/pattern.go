package origins

import (
	"net/netip"
	"strings"
	"sync"

	"github.com/jub0bs/corspolicy/cfgerrors"
	"github.com/jub0bs/corspolicy/internal/util"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

const (
	anyOrigin         = "*" // matches all origins
	subdomainWildcard = "*" // marks one or more period-separated DNS labels
	wildcardSeq       = subdomainWildcard + string(labelSep)
	portWildcard      = "*" // marks an arbitrary (possibly implicit) port number
)

// maxPatternLen is the maximum length of an origin pattern.
// It is simply equal to maxOriginLen because *. is a placeholder for at
// least two bytes (e.g. "a.").
const maxPatternLen = maxOriginLen

const (
	absentPort = 0
	// arbitraryPort is a sentinel value that subsumes all other port numbers.
	arbitraryPort = -1
)

// Kind represents the kind of an origin pattern.
type Kind uint8

const (
	Any               Kind = iota // all origins
	Exact                         // a single host
	WildcardSubdomain             // arbitrary subdomains of a domain
)

// A Pattern represents an origin pattern.
// Patterns are closed variants distinguished by their Kind;
// a Pattern of kind Any ignores all of its other fields.
type Pattern struct {
	// Kind is the kind of this origin pattern.
	Kind Kind
	// Scheme is the byte-lowercase scheme of this origin pattern.
	// The zero value denotes an arbitrary scheme.
	Scheme string
	// Host is the byte-lowercase host of this origin pattern;
	// if Kind is WildcardSubdomain, Host is the base domain
	// (without the leading "*.").
	// IPv6 addresses are stored without their enclosing brackets.
	Host string
	// Port is the positive port number (if any) of this origin pattern.
	// The zero value marks the absence of an explicit port.
	// -1 is used as a sentinel value to indicate that all ports are allowed.
	Port int

	raw string
}

// ParsePattern parses str into a fully valid [Pattern] structure.
// If it fails, it returns a non-nil error and some invalid pattern.
//
// The accepted forms are "*" and [scheme "://"] ["*."] host [":" port],
// where port may be "*".
func ParsePattern(str string) (p Pattern, err error) {
	// Using [url.Parse] to parse str is tempting, but the impedance
	// mismatch between that function's behavior and our needs is too great:
	// scheme-less patterns such as "*.example.com" are not URLs.
	p.raw = str
	if str == anyOrigin {
		p.Kind = Any
		return p, nil
	}
	// To bound the work done on maliciously long origin patterns,
	// let's first check the length of str.
	if len(str) > maxPatternLen {
		err = invalidOriginPatternError(str)
		return
	}
	s := util.ByteLowercase(str)
	if s == "null" {
		err = prohibitedOriginPatternError(str)
		return
	}
	rest := s
	if scheme, after, found := strings.Cut(s, schemeHostSep); found {
		var tail string
		var ok bool
		p.Scheme, tail, ok = parseScheme(scheme)
		if !ok || tail != "" {
			err = invalidOriginPatternError(str)
			return
		}
		if p.Scheme == "file" {
			err = prohibitedOriginPatternError(str)
			return
		}
		rest = after
	}
	p.Kind = Exact
	if after, found := strings.CutPrefix(rest, wildcardSeq); found {
		p.Kind = WildcardSubdomain
		rest = after
	}
	p.Host, rest, err = parseHostPattern(rest, p.Kind, str)
	if err != nil {
		return
	}
	if rest != "" {
		var ok bool
		rest, ok = strings.CutPrefix(rest, string(hostPortSep))
		if !ok {
			err = invalidOriginPatternError(str)
			return
		}
		p.Port, ok = parsePortPattern(rest)
		if !ok {
			err = invalidOriginPatternError(str)
			return
		}
	}
	return p, nil
}

func prohibitedOriginPatternError(pattern string) error {
	return &cfgerrors.UnacceptableOriginPatternError{
		Value:  pattern,
		Reason: "prohibited",
	}
}

func invalidOriginPatternError(pattern string) error {
	return &cfgerrors.UnacceptableOriginPatternError{
		Value:  pattern,
		Reason: "invalid",
	}
}

// parseHostPattern scans and validates a host in str.
// If it succeeds, it returns the host, the unconsumed part of str, and nil;
// otherwise, its err result is some non-nil error.
func parseHostPattern(str string, kind Kind, raw string) (host, rest string, err error) {
	if str != "" && str[0] == '[' { // str must be an IPv6 address.
		var ok bool
		host, rest, ok = strings.Cut(str[1:], "]")
		if !ok || kind == WildcardSubdomain {
			return "", "", invalidOriginPatternError(raw)
		}
		ip, err := netip.ParseAddr(host)
		if err != nil || !ip.Is6() || ip.Zone() != "" {
			return "", "", invalidOriginPatternError(raw)
		}
		if ip.Is4In6() || host != ip.String() {
			// IPv6 addresses must be in their compressed form
			// (see https://datatracker.ietf.org/doc/html/rfc5952),
			// which is the form in which browsers serialize them.
			return "", "", prohibitedOriginPatternError(raw)
		}
		return host, rest, nil
	}
	// str must be either an IPv4 address or a domain.
	i := 0
	for ; i < len(str) && isHostByte(str[i]); i++ {
		// deliberately empty body
	}
	host, rest = str[:i], str[i:]
	if host == "" || len(host) > maxHostLen || hasEmptyLabel(host) {
		return "", "", invalidOriginPatternError(raw)
	}
	// If the rightmost label starts with a digit, assume an IPv4 address,
	// since no TLD starts with a digit
	// (see https://www.iana.org/domains/root/db).
	rightmost := host[strings.LastIndexByte(host, labelSep)+1:]
	if isDigit(rightmost[0]) {
		if kind == WildcardSubdomain {
			return "", "", invalidOriginPatternError(raw)
		}
		ip, err := netip.ParseAddr(host)
		if err != nil || !ip.Is4() {
			return "", "", invalidOriginPatternError(raw)
		}
		if host != ip.String() {
			// IPv4 addresses must be in dotted-quad notation.
			return "", "", prohibitedOriginPatternError(raw)
		}
		return host, rest, nil
	}
	profileOnce.Do(initProfile)
	if _, err := profile.ToASCII(host); err != nil {
		return "", "", invalidOriginPatternError(raw)
	}
	return host, rest, nil
}

var (
	profileOnce sync.Once     // guards init of profile via initProfile
	profile     *idna.Profile // lazily initialized
)

func initProfile() {
	profile = idna.New(
		idna.BidiRule(),
		idna.ValidateLabels(true),
		idna.StrictDomainName(true),
		idna.VerifyDNSLength(true),
	)
}

// parsePortPattern parses a port pattern.
// It it succeeds, it returns the port number and true;
// otherwise, it returns 0 and false.
func parsePortPattern(str string) (int, bool) {
	if str == portWildcard {
		return arbitraryPort, true
	}
	return parsePort(str)
}

// String returns the origin pattern as it was originally specified.
func (p *Pattern) String() string {
	return p.raw
}

// HostIsEffectiveTLD reports whether p encompasses arbitrary subdomains of
// an effective top-level domain (eTLD), also known as [public suffix].
//
// [public suffix]: https://publicsuffix.org/list/
func (p *Pattern) HostIsEffectiveTLD() bool {
	if p.Kind != WildcardSubdomain {
		return false
	}
	// We ignore the second (boolean) result because
	// it's false for some listed eTLDs (e.g. github.io)
	etld, _ := publicsuffix.PublicSuffix(p.Host)
	return etld == p.Host
}

// Matches reports whether o is encompassed by p.
// The opaque origin is only ever matched by a pattern of kind Any.
func (p *Pattern) Matches(o *Origin) bool {
	if p.Kind == Any {
		return true
	}
	if o.Opaque {
		return false
	}
	if p.Scheme != "" && p.Scheme != o.Scheme {
		return false
	}
	if !p.matchesPort(o) {
		return false
	}
	switch p.Kind {
	case Exact:
		return o.Host == p.Host
	case WildcardSubdomain:
		// o's host must be a strict subdomain of p's base domain.
		n := len(o.Host) - len(p.Host)
		return n > 1 &&
			o.Host[n-1] == labelSep &&
			o.Host[n:] == p.Host
	default:
		return false
	}
}

// matchesPort compares p's port and o's port as effective ports.
// Precondition: p's scheme, if any, is o's scheme.
func (p *Pattern) matchesPort(o *Origin) bool {
	switch p.Port {
	case arbitraryPort:
		return true
	case absentPort:
		return o.EffectivePort() == DefaultPort(o.Scheme)
	default:
		return o.EffectivePort() == p.Port
	}
}
