package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/utxocoin/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requests = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxocoin",
			Name:      "http_requests_total",
			Help:      "Number of http requests handled",
		},
	)
	requestErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxocoin",
			Name:      "http_errors_total",
			Help:      "Number of http requests that returned an error",
		},
	)
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request and errors counters.
			requests.Inc()
			if err != nil {
				requestErrors.Inc()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
