package metrics

import (
	"net/http"

	"github.com/agromarket/auction-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the service's Prometheus metrics on its own registry.
type Manager struct {
	Registry                *prometheus.Registry
	BidsPlacedTotal         *prometheus.CounterVec
	BidsRejectedTotal       *prometheus.CounterVec
	BidConflictRetriesTotal prometheus.Counter
	AuctionsFinalizedTotal  *prometheus.CounterVec
	HTTPRequestLatency      *prometheus.HistogramVec
}

func NewManager(serviceName string) *Manager {
	registry := prometheus.NewRegistry()

	bidsPlacedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "bids_placed_total",
		Help:      "Total number of accepted bids by mode.",
	}, []string{"mode"})

	bidsRejectedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "bids_rejected_total",
		Help:      "Total number of rejected bids by reason.",
	}, []string{"reason"})

	bidConflictRetriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "bid_conflict_retries_total",
		Help:      "Total number of optimistic-concurrency retries during bid placement.",
	})

	auctionsFinalizedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "auctions_finalized_total",
		Help:      "Total number of finalized auctions by outcome.",
	}, []string{"outcome"})

	httpRequestLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "http_request_latency_seconds",
		Help:      "Latency of HTTP requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(
		bidsPlacedTotal,
		bidsRejectedTotal,
		bidConflictRetriesTotal,
		auctionsFinalizedTotal,
		httpRequestLatency,
	)

	return &Manager{
		Registry:                registry,
		BidsPlacedTotal:         bidsPlacedTotal,
		BidsRejectedTotal:       bidsRejectedTotal,
		BidConflictRetriesTotal: bidConflictRetriesTotal,
		AuctionsFinalizedTotal:  auctionsFinalizedTotal,
		HTTPRequestLatency:      httpRequestLatency,
	}
}

// StartServer exposes /metrics on its own port. Returns without starting
// anything when the port is empty.
func StartServer(port string, log logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		log.Info("Metrics server port not configured, server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	log.Infof("Metrics server starting on port %s", port)
	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
