package corspolicy

import (
	"context"
	"maps"
	"net/http"
	"sync/atomic"

	"github.com/jub0bs/corspolicy/internal/headers"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// A Middleware is a CORS middleware.
// Call its [*Middleware.Wrap] method to apply it to a [http.Handler].
//
// The zero value is ready to use but is a mere "passthrough" middleware,
// i.e. a middleware that simply delegates to the handler(s) it wraps.
// To obtain a proper CORS middleware, you should call [NewMiddleware]
// and pass it a [Policy].
//
// A Middleware must not be copied after first use.
//
// Middleware are safe for concurrent use by multiple goroutines.
// Therefore, you are free to reconfigure them without having to restart
// your server.
type Middleware struct {
	policy  atomic.Pointer[Policy]
	logger  *zap.Logger
	metrics *metrics
	routes  RouteResolver
}

// An Option customizes a [Middleware] built by [NewMiddleware].
type Option func(*Middleware) error

// WithLogger makes the middleware log its decisions to logger:
// preflight and actual requests at debug level,
// rejections and malformed Origin headers at warn level.
// By default, the middleware logs nothing.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Middleware) error {
		m.logger = logger
		return nil
	}
}

// WithMetrics makes the middleware count the requests it processes,
// by outcome, in a counter named cors_requests_total registered with reg.
// Middleware that share a registry share that counter.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(m *Middleware) error {
		mt, err := newMetrics(reg)
		if err != nil {
			return err
		}
		m.metrics = mt
		return nil
	}
}

// WithRouteResolver makes the middleware enforce, for each request,
// the policy that resolve returns for it, if any, in place of the
// middleware's own policy.
func WithRouteResolver(resolve RouteResolver) Option {
	return func(m *Middleware) error {
		m.routes = resolve
		return nil
	}
}

// NewMiddleware creates a CORS middleware that enforces p.
// If p is nil, the result is a passthrough middleware
// (until it gets reconfigured).
// NewMiddleware fails only if one of opts does.
func NewMiddleware(p *Policy, opts ...Option) (*Middleware, error) {
	m := Middleware{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(&m); err != nil {
			return nil, err
		}
	}
	m.policy.Store(p)
	return &m, nil
}

// Reconfigure makes m enforce p. If p is nil, it turns m into a
// passthrough middleware.
//
// You can safely reconfigure a middleware
// even as it's concurrently processing requests;
// requests in flight keep being processed under the policy that was in
// force when they reached m.
func (m *Middleware) Reconfigure(p *Policy) {
	m.policy.Store(p)
}

// Policy returns the policy that m currently enforces,
// or nil if m is a passthrough middleware.
func (m *Middleware) Policy() *Policy {
	return m.policy.Load()
}

var nopLogger = zap.NewNop()

func (m *Middleware) log() *zap.Logger {
	if m.logger == nil {
		return nopLogger
	}
	return m.logger
}

// requestState is the state that the middleware associates to
// a single request.
type requestState struct {
	policy       *Policy
	decision     Decision
	sawPreflight bool
	committed    bool
	rejection    error
}

type stateKey struct{}

func stateFrom(ctx context.Context) (*requestState, bool) {
	st, ok := ctx.Value(stateKey{}).(*requestState)
	return st, ok
}

// Reject records err, a *[DisallowedOriginError] or a *[DisallowedMethodError]
// raised while handling r, which must be the request passed by a
// [Middleware] to the handler it wraps (or derived from it).
// When the handler returns, the middleware discards the handler's response
// and responds as [WriteError] would.
//
// Reject reports whether it recorded err. It does not if err is not one of
// the aforementioned errors, if r is not a cross-origin request handled by
// a middleware, or if the response has already been committed;
// callers should then handle err by themselves.
func Reject(r *http.Request, err error) bool {
	if StatusCode(err) != http.StatusForbidden {
		return false
	}
	st, ok := stateFrom(r.Context())
	if !ok || st.committed || st.sawPreflight {
		return false
	}
	if st.rejection == nil {
		st.rejection = err
	}
	return true
}

// Wrap applies the CORS middleware to the specified handler.
func (m *Middleware) Wrap(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := m.policyFor(r)
		if p == nil { // passthrough middleware
			h.ServeHTTP(w, r)
			return
		}
		o, cors, err := classify(r)
		if err != nil {
			m.log().Warn("malformed Origin header",
				zap.String("method", r.Method),
				zap.Error(err),
			)
			m.metrics.observe(outcomeInvalidOrigin)
			clear(w.Header())
			WriteError(w, err)
			return
		}
		if !cors {
			m.metrics.observe(outcomePassthrough)
			h.ServeHTTP(w, r)
			return
		}
		raw, _ := headers.First(r.Header, headers.Origin)
		st := &requestState{
			policy:   p,
			decision: p.resolve(raw, &o, true),
		}
		if isPreflight(r) {
			// The wrapped handler never runs for preflight requests.
			st.sawPreflight = true
			m.handlePreflight(w, r, st)
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), stateKey{}, st))
		iw := newInterceptor(w, r, st, m)
		h.ServeHTTP(iw, r)
		iw.commit()
	})
}

func (m *Middleware) policyFor(r *http.Request) *Policy {
	if m.routes != nil {
		if p := m.routes(r); p != nil {
			return p
		}
	}
	return m.policy.Load()
}

func (m *Middleware) handlePreflight(w http.ResponseWriter, r *http.Request, st *requestState) {
	hdrs, err := st.policy.preflightHeaders(r, st.decision)
	if err != nil {
		m.reject(r, err)
		clear(w.Header())
		WriteError(w, err)
		return
	}
	m.log().Debug("preflight request allowed",
		zap.String("origin", st.decision.Origin),
		zap.String("method", r.Header.Get(headers.ACRM)),
	)
	m.metrics.observe(outcomePreflight)
	maps.Copy(w.Header(), hdrs)
	w.WriteHeader(http.StatusOK)
}

// lateHook annotates h, the header map of the response to r,
// or returns the error that must replace that response.
func (m *Middleware) lateHook(r *http.Request, st *requestState, h http.Header) error {
	if st.sawPreflight {
		return nil
	}
	err := st.rejection
	if err == nil {
		err = st.policy.annotate(h, st.decision)
	}
	if err != nil {
		m.reject(r, err)
		return err
	}
	m.log().Debug("actual request allowed",
		zap.String("origin", st.decision.Origin),
		zap.String("method", r.Method),
	)
	m.metrics.observe(outcomeActual)
	return nil
}

func (m *Middleware) reject(r *http.Request, err error) {
	origin, _ := headers.First(r.Header, headers.Origin)
	m.log().Warn("cross-origin request rejected",
		zap.String("origin", origin),
		zap.String("method", r.Method),
		zap.Error(err),
	)
	m.metrics.observe(outcomeOf(err))
}
