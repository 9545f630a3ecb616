package ingest

import "github.com/prometheus/client_golang/prometheus"

var publicationFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "publication_failures_total",
	Help: "Broker publish attempts that failed after a successful database write.",
})

func init() {
	prometheus.MustRegister(publicationFailures)
}
