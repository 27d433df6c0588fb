/*
Package metrics exposes Prometheus counters for the issuance pipeline.

Only aggregate counts are recorded. No channel names, identities, or tokens ever
become label values; labels are restricted to the small closed sets of token
kinds and rejection codes.
*/
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once
	registerErr  error

	tokensIssuedTotal    *prometheus.CounterVec
	tokenRejectionsTotal *prometheus.CounterVec
)

// Register initializes and registers the issuance metrics and returns the
// handler to mount on /metrics. A nil registerer uses the default registry.
func Register(registry prometheus.Registerer) (http.Handler, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	registerOnce.Do(func() {
		tokensIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokens_issued_total",
			Help: "Credentials minted, by token kind.",
		}, []string{"type"})

		tokenRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "token_rejections_total",
			Help: "Issuance requests rejected, by error code.",
		}, []string{"reason"})

		for _, c := range []prometheus.Collector{tokensIssuedTotal, tokenRejectionsTotal} {
			if err := registry.Register(c); err != nil {
				registerErr = err
				return
			}
		}
	})
	if registerErr != nil {
		return nil, registerErr
	}

	return promhttp.Handler(), nil
}

// ObserveIssued increments the issued-credential counter for the given kind.
func ObserveIssued(kind string) {
	if tokensIssuedTotal != nil {
		tokensIssuedTotal.WithLabelValues(kind).Inc()
	}
}

// ObserveRejection increments the rejection counter for the given error code.
func ObserveRejection(code string) {
	if tokenRejectionsTotal != nil {
		tokenRejectionsTotal.WithLabelValues(code).Inc()
	}
}
