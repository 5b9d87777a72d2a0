// Package origins parses Web origins and origin patterns
// and matches the former against the latter.
package origins

import (
	"strconv"
	"strings"

	"github.com/jub0bs/corspolicy/internal/util"
)

const (
	schemeHostSep = "://"     // scheme-host separator
	hostPortSep   = ':'       // host-port separator
	labelSep      = '.'       // DNS-label separator
	maxUint16     = 1<<16 - 1 // maximum value for uint16 type
)

const (
	// maxHostLen is the maximum length of a host, which is dominated by
	// the maximum length of an (absolute) domain name (253);
	// see https://devblogs.microsoft.com/oldnewthing/20120412-00/?p=7873.
	maxHostLen = 253
	// maxSchemeLen is the maximum tolerated length for schemes.
	// Its value is somewhat arbitrary but chosen so as to cover the great
	// majority of commonly used schemes.
	maxSchemeLen = 64
	// maxPortLen is the maximum length of a port's decimal representation.
	maxPortLen = len("65535")
	// maxHostPortLen is the maximum length of an origin's host-port part.
	maxHostPortLen = maxHostLen + 1 + maxPortLen // 1 for colon character
	// maxOriginLen is the maximum length of a serialized origin.
	maxOriginLen = maxSchemeLen + len(schemeHostSep) + maxHostPortLen
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
	portHTTP    = 80
	portHTTPS   = 443
)

// Origin represents a (tuple) [Web origin], or the opaque origin
// serialized as "null".
//
// [Web origin]: https://developer.mozilla.org/en-US/docs/Glossary/Origin
type Origin struct {
	// Scheme is the origin's byte-lowercase scheme.
	Scheme string
	// Host is the origin's byte-lowercase host.
	// IPv6 addresses are stored without their enclosing brackets.
	Host string
	// Port is the origin's port (if any).
	// The zero value marks the absence of an explicit port.
	Port int
	// Opaque reports whether the origin is the opaque origin ("null"),
	// which is same-origin with nothing.
	Opaque bool
}

// Parse parses str, the value of an Origin request header,
// into an [Origin] structure.
// It is lenient insofar as it performs just enough validation for
// [Pattern.Matches] to know what to do with the resulting Origin value;
// in particular, the host of the result is not guaranteed to be valid.
// However, Parse fails on values that cannot possibly be serialized origins,
// such as "file:" or "https://example.com/index.html".
func Parse(str string) (Origin, bool) {
	if str == "null" {
		return Origin{Opaque: true}, true
	}
	if len(str) > maxOriginLen {
		return Origin{}, false
	}
	str = util.ByteLowercase(str)
	scheme, rest, ok := parseScheme(str)
	if !ok {
		return Origin{}, false
	}
	rest, ok = strings.CutPrefix(rest, schemeHostSep)
	if !ok {
		return Origin{}, false
	}
	host, rest, ok := parseHost(rest)
	if !ok {
		return Origin{}, false
	}
	var port int // assume no port at first
	if rest != "" {
		rest, ok = strings.CutPrefix(rest, string(hostPortSep))
		if !ok {
			return Origin{}, false
		}
		port, ok = parsePort(rest)
		if !ok {
			return Origin{}, false
		}
	}
	o := Origin{
		Scheme: scheme,
		Host:   host,
		Port:   port,
	}
	return o, true
}

// FromRequest returns the origin of a request served under scheme
// and hostport, the latter being in the form of [net/http.Request.Host].
// A missing or malformed port is treated as absent.
func FromRequest(scheme, hostport string) Origin {
	host, port := hostport, ""
	if i := strings.LastIndexByte(hostport, hostPortSep); i >= 0 &&
		strings.IndexByte(hostport[i:], ']') == -1 {
		host, port = hostport[:i], hostport[i+1:]
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || maxUint16 < p {
		p = 0
	}
	o := Origin{
		Scheme: util.ByteLowercase(scheme),
		Host:   util.ByteLowercase(host),
		Port:   p,
	}
	return o
}

// EffectivePort returns o's explicit port, if any,
// or else the default port of o's scheme (80 for http, 443 for https).
// It returns 0 if o has neither.
func (o *Origin) EffectivePort() int {
	if o.Port != 0 {
		return o.Port
	}
	return DefaultPort(o.Scheme)
}

// SameOrigin reports whether o and other share the same scheme, host,
// and effective port. An opaque origin is same-origin with nothing.
func (o *Origin) SameOrigin(other *Origin) bool {
	return !o.Opaque && !other.Opaque &&
		o.Scheme == other.Scheme &&
		o.Host == other.Host &&
		o.EffectivePort() == other.EffectivePort()
}

// DefaultPort returns the default port of scheme,
// or 0 if scheme is neither http nor https.
func DefaultPort(scheme string) int {
	switch scheme {
	case schemeHTTP:
		return portHTTP
	case schemeHTTPS:
		return portHTTPS
	default:
		return 0
	}
}

// parseScheme parses a URI scheme. If successful, it returns the scheme,
// the unconsumed part of str, and true; otherwise, its ok result is false.
func parseScheme(str string) (scheme, rest string, ok bool) {
	// See https://www.rfc-editor.org/rfc/rfc3986.html#section-3.1.
	if str == "" || !isLowerAlpha(str[0]) {
		return
	}
	end := min(maxSchemeLen, len(str))
	i := 1
	for ; i < end; i++ {
		if !isSubsequentSchemeByte(str[i]) {
			break
		}
	}
	return str[:i], str[i:], true
}

// parseHost scans a host in str.
// It returns the host, the unconsumed part of str, and a bool that indicates
// success or failure.
// parseHost is lenient insofar as the resulting host is
// not guaranteed to be valid.
func parseHost(str string) (host, rest string, ok bool) {
	const minIPv6HostLen = len("[::]")
	if str != "" && str[0] == '[' { // looks like an IPv6 address
		end := strings.IndexByte(str, ']')
		if end < minIPv6HostLen-1 { // unmatched or too short
			return "", str, false
		}
		return str[1:end], str[end+1:], true
	}
	i := 0
	for ; i < len(str) && isHostByte(str[i]); i++ {
		// deliberately empty body
	}
	host = str[:i]
	if host == "" || len(host) > maxHostLen || hasEmptyLabel(host) {
		return "", str, false
	}
	return host, str[i:], true
}

// hasEmptyLabel reports whether host, a sequence of period-separated DNS
// labels, contains an empty label.
// Precondition: host is not empty.
func hasEmptyLabel(host string) bool {
	return host[0] == labelSep ||
		host[len(host)-1] == labelSep ||
		strings.Contains(host, "..")
}

// parsePort parses a port number, which must span the whole of str.
// It returns the port number and a bool that indicates success or failure.
func parsePort(str string) (int, bool) {
	if str == "" || maxPortLen < len(str) || !isNonZeroDigit(str[0]) {
		return 0, false
	}
	var port int
	for i := range len(str) {
		if !isDigit(str[i]) {
			return 0, false
		}
		port = 10*port + int(str[i]-'0')
	}
	if maxUint16 < port {
		return 0, false
	}
	return port, true
}

// isLowerAlpha reports whether c is in the 0x61-0x7A ASCII range.
func isLowerAlpha(c byte) bool {
	return 'a' <= c && c <= 'z'
}

// isDigit reports whether c is in the 0x30-0x39 ASCII range.
func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// isNonZeroDigit reports whether c is in the 0x31-0x39 ASCII range.
func isNonZeroDigit(c byte) bool {
	return '1' <= c && c <= '9'
}

// isSubsequentSchemeByte reports whether c a valid byte at index >= 1 in a scheme.
func isSubsequentSchemeByte(c byte) bool {
	// See https://www.rfc-editor.org/rfc/rfc3986.html#section-3.1.
	return isLowerAlpha(c) || isDigit(c) || c == '+' || c == '-' || c == '.'
}

// isHostByte reports whether c is an ASCII lowercase letter, an ASCII digit,
// a hyphen (0x2D), a period (0x2E), or an underscore (0x5F).
func isHostByte(c byte) bool {
	// underscores: see https://stackoverflow.com/q/2180465
	return isLowerAlpha(c) || isDigit(c) || c == '-' || c == labelSep || c == '_'
}
