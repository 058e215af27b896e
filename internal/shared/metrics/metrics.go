// Package metrics registers the engine's Prometheus collectors:
//
//	bidding_engine_bids_accepted_total
//	bidding_engine_rejections_total{operation,reason}
//	bidding_engine_auctions_closed_total{status}
//	bidding_engine_price_drops_total
//	bidding_engine_tick_duration_seconds
//	go_* and process_* system metrics
//
// They are served by Handler, mounted on the HTTP server at /metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once           sync.Once
	registry       *prometheus.Registry
	bidsAccepted   prometheus.Counter
	rejections     *prometheus.CounterVec
	auctionsClosed *prometheus.CounterVec
	priceDrops     prometheus.Counter
	tickDuration   prometheus.Histogram
)

// Init registers the collectors once. Until it is called every recorder below is a no-op.
func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		bidsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bidding_engine_bids_accepted_total",
			Help: "Number of committed bids, auto-bids and accepts",
		})
		rejections = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bidding_engine_rejections_total",
				Help: "Number of rejected or failed engine operations",
			},
			[]string{"operation", "reason"},
		)
		auctionsClosed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bidding_engine_auctions_closed_total",
				Help: "Number of auctions reaching a terminal status",
			},
			[]string{"status"},
		)
		priceDrops = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bidding_engine_price_drops_total",
			Help: "Number of descending price drops applied",
		})
		tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bidding_engine_tick_duration_seconds",
			Help:    "Time spent advancing due auctions per scheduler tick",
			Buckets: prometheus.DefBuckets,
		})

		registry.MustRegister(
			bidsAccepted, rejections, auctionsClosed, priceDrops, tickDuration,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// Handler serves the registry in the Prometheus text format.
func Handler() fiber.Handler {
	Init()
	return adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

func BidAccepted() {
	if bidsAccepted != nil {
		bidsAccepted.Inc()
	}
}

// Rejected counts a failed operation. An empty reason is reported as "internal".
func Rejected(operation, reason string) {
	if rejections == nil {
		return
	}
	if reason == "" {
		reason = "internal"
	}
	rejections.WithLabelValues(operation, reason).Inc()
}

func AuctionClosed(status string) {
	if auctionsClosed != nil {
		auctionsClosed.WithLabelValues(status).Inc()
	}
}

func PriceDropped() {
	if priceDrops != nil {
		priceDrops.Inc()
	}
}

func ObserveTick(d time.Duration) {
	if tickDuration != nil {
		tickDuration.Observe(d.Seconds())
	}
}
