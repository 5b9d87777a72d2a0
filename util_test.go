package corspolicy_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/jub0bs/corspolicy"
)

const (
	// common request headers
	headerOrigin = "Origin"

	// preflight-only request headers
	headerACRM = "Access-Control-Request-Method"
	headerACRH = "Access-Control-Request-Headers"

	// common response headers
	headerACAO = "Access-Control-Allow-Origin"
	headerACAC = "Access-Control-Allow-Credentials"

	// preflight-only response headers
	headerACAM = "Access-Control-Allow-Methods"
	headerACAH = "Access-Control-Allow-Headers"
	headerACMA = "Access-Control-Max-Age"

	// actual-only response headers
	headerACEH = "Access-Control-Expose-Headers"

	headerVary          = "Vary"
	headerContentLength = "Content-Length"
	headerContentType   = "Content-Type"
)

// dummyEndpoint is the URL of the resource that test requests target;
// its origin is https://api.example.com.
const dummyEndpoint = "https://api.example.com/whatever"

type MiddlewareTestCase struct {
	desc       string
	outerMw    *middleware
	newHandler func() http.Handler
	cfg        *corspolicy.Config
	cases      []ReqTestCase
}

type ReqTestCase struct {
	desc string
	// request
	reqMethod  string
	reqHeaders http.Header
	// expectations
	handlerCalled bool
	wantStatus    int
	respHeaders   http.Header
	wantBody      string
}

func newRequest(method string, headers http.Header) *http.Request {
	req := httptest.NewRequest(method, dummyEndpoint, nil)
	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	return req
}

func mustNewPolicy(t testing.TB, cfg corspolicy.Config) *corspolicy.Policy {
	t.Helper()
	p, err := corspolicy.NewPolicy(cfg)
	if err != nil {
		t.Fatalf("failure to build CORS policy: %v", err)
	}
	return p
}

func mustNewMiddleware(t testing.TB, p *corspolicy.Policy, opts ...corspolicy.Option) *corspolicy.Middleware {
	t.Helper()
	mw, err := corspolicy.NewMiddleware(p, opts...)
	if err != nil {
		t.Fatalf("failure to build CORS middleware: %v", err)
	}
	return mw
}

type spyHandler struct {
	called  atomic.Bool
	handler http.Handler
}

func newSpyHandler(statusCode int, respHeaders http.Header, body string) func() http.Handler {
	f := func() http.Handler {
		h := func(w http.ResponseWriter, r *http.Request) {
			for k, vs := range respHeaders {
				for _, v := range vs {
					w.Header().Add(k, v)
				}
			}
			w.WriteHeader(statusCode)
			if len(body) > 0 {
				io.WriteString(w, body)
			}
		}
		return &spyHandler{handler: http.HandlerFunc(h)}
	}
	return f
}

func (s *spyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.called.Store(true)
	s.handler.ServeHTTP(w, r)
}

var varyMiddleware = middleware{
	hdrs: http.Header{headerVary: {"before"}},
}

type middleware struct {
	hdrs http.Header
}

func (m middleware) Wrap(next http.Handler) http.Handler {
	f := func(w http.ResponseWriter, r *http.Request) {
		for k, vs := range m.hdrs {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(f)
}

// corsHeaderNames lists the names of the response headers that
// assertCORSHeaders inspects.
var corsHeaderNames = []string{
	headerACAO,
	headerACAC,
	headerACAM,
	headerACAH,
	headerACMA,
	headerACEH,
	headerVary,
	headerContentLength,
}

// assertCORSHeaders checks that, for each name in corsHeaderNames,
// got and want have the same values (absence included).
func assertCORSHeaders(t *testing.T, got, want http.Header) {
	t.Helper()
	for _, k := range corsHeaderNames {
		if !slices.Equal(got[k], want[k]) {
			t.Errorf("header %q: got %q; want %q", k, got[k], want[k])
		}
	}
}

// note: this function mutates got (to ease subsequent assertions)
func assertResponseHeaders(t *testing.T, got http.Header, want http.Header) {
	t.Helper()
	for k, vs := range want {
		for _, v := range vs {
			if !deleteHeaderValue(got, k, v) {
				t.Errorf(`missing header value "%s: %s"`, k, v)
			}
		}
		// clean up: remove headers whose values are empty but non-nil
		if vs, found := got[k]; found && len(vs) == 0 {
			delete(got, k)
		}
	}
}

func assertNoMoreResponseHeaders(t *testing.T, left http.Header) {
	t.Helper()
	for k, v := range left {
		t.Errorf("unexpected header value(s) %q: %q", k, v)
	}
}

func assertBody(t *testing.T, body io.Reader, want string) {
	t.Helper()
	var buf bytes.Buffer
	_, err := io.Copy(&buf, body)
	if got := buf.String(); err != nil || got != want {
		t.Errorf("got body %q; want body %q", got, want)
	}
}

// deleteHeaderValue reports whether h contains a header named key
// that contains value.
// If that's the case, the key-value pair in question is removed from h.
func deleteHeaderValue(h http.Header, key, value string) bool {
	vs, ok := h[key]
	if !ok {
		return false
	}
	i := slices.Index(vs, value)
	if i == -1 {
		return false
	}
	h[key] = slices.Delete(vs, i, i+1)
	return true
}
