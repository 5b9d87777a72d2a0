package corspolicy

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// outcomes of the middleware, as recorded by the requests counter
const (
	outcomePassthrough    = "passthrough"
	outcomePreflight      = "preflight"
	outcomeActual         = "actual"
	outcomeRejectedOrigin = "rejected_origin"
	outcomeRejectedMethod = "rejected_method"
	outcomeInvalidOrigin  = "invalid_origin"
)

type metrics struct {
	requests *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cors_requests_total",
			Help: "Number of requests processed by the CORS middleware, by outcome.",
		},
		[]string{"outcome"},
	)
	if err := reg.Register(requests); err != nil {
		// Several middleware may share a registry.
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		requests = existing
	}
	return &metrics{requests: requests}, nil
}

// observe is safe to call on a nil *metrics.
func (m *metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// outcomeOf returns the outcome that corresponds to err,
// a CORS error.
func outcomeOf(err error) string {
	var (
		invalid          *InvalidOriginHeaderError
		disallowedMethod *DisallowedMethodError
	)
	switch {
	case errors.As(err, &invalid):
		return outcomeInvalidOrigin
	case errors.As(err, &disallowedMethod):
		return outcomeRejectedMethod
	default:
		return outcomeRejectedOrigin
	}
}
