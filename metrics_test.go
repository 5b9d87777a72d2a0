package corspolicy_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jub0bs/corspolicy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := mustNewPolicy(t, corspolicy.Config{
		AllowedOrigins: []string{"https://example.com"},
		AllowedMethods: []string{"GET"},
		EnforceMethods: true,
	})
	mw := mustNewMiddleware(t, p, corspolicy.WithMetrics(reg))
	handler := mw.Wrap(newSpyHandler(200, nil, "ok")())

	reqs := []struct {
		method  string
		headers http.Header
	}{
		{"GET", nil},
		{"GET", http.Header{headerOrigin: {"https://api.example.com"}}},
		{"OPTIONS", http.Header{headerOrigin: {"https://example.com"}, headerACRM: {"GET"}}},
		{"OPTIONS", http.Header{headerOrigin: {"https://example.com"}, headerACRM: {"PUT"}}},
		{"OPTIONS", http.Header{headerOrigin: {"https://evil.com"}, headerACRM: {"GET"}}},
		{"GET", http.Header{headerOrigin: {"https://example.com"}}},
		{"GET", http.Header{headerOrigin: {"https://evil.com"}}},
		{"GET", http.Header{headerOrigin: {"file:"}}},
	}
	for _, r := range reqs {
		handler.ServeHTTP(httptest.NewRecorder(), newRequest(r.method, r.headers))
	}

	const want = `
# HELP cors_requests_total Number of requests processed by the CORS middleware, by outcome.
# TYPE cors_requests_total counter
cors_requests_total{outcome="actual"} 1
cors_requests_total{outcome="invalid_origin"} 1
cors_requests_total{outcome="passthrough"} 2
cors_requests_total{outcome="preflight"} 1
cors_requests_total{outcome="rejected_method"} 1
cors_requests_total{outcome="rejected_origin"} 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(want), "cors_requests_total")
	assert.NoError(t, err)
}

func TestMetricsSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := mustNewPolicy(t, corspolicy.Config{AllowedOrigins: []string{"*"}})
	mw1 := mustNewMiddleware(t, p, corspolicy.WithMetrics(reg))
	mw2 := mustNewMiddleware(t, p, corspolicy.WithMetrics(reg))

	for _, mw := range []*corspolicy.Middleware{mw1, mw2} {
		req := newRequest("GET", http.Header{headerOrigin: {"https://example.com"}})
		mw.Wrap(newSpyHandler(200, nil, "")()).ServeHTTP(httptest.NewRecorder(), req)
	}

	n, err := testutil.GatherAndCount(reg, "cors_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "both middleware must share a single series")
	const want = `
# HELP cors_requests_total Number of requests processed by the CORS middleware, by outcome.
# TYPE cors_requests_total counter
cors_requests_total{outcome="actual"} 2
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(want), "cors_requests_total")
	assert.NoError(t, err)
}

func TestMetricsConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	other := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cors_requests_total",
		Help: "Number of requests processed by the CORS middleware, by outcome.",
	})
	require.NoError(t, reg.Register(other))

	mw, err := corspolicy.NewMiddleware(nil, corspolicy.WithMetrics(reg))
	assert.Nil(t, mw)
	assert.Error(t, err)
}
