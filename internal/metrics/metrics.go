package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameshelf",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	rentalsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gameshelf",
			Name:      "rentals_submitted_total",
			Help:      "Accepted rental submissions.",
		},
	)

	rentalConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gameshelf",
			Name:      "rental_conflicts_total",
			Help:      "Submissions rejected by the date-overlap check.",
		},
	)

	rentalTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gameshelf",
			Name:      "rental_transitions_total",
			Help:      "Rental lifecycle transitions by target status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, rentalsSubmitted, rentalConflicts, rentalTransitions)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncSubmitted counts an accepted submission.
func IncSubmitted() {
	rentalsSubmitted.Inc()
}

// IncConflict counts a submission turned away by the overlap check.
func IncConflict() {
	rentalConflicts.Inc()
}

// IncTransition counts a lifecycle transition into the given status.
func IncTransition(status string) {
	rentalTransitions.WithLabelValues(status).Inc()
}
