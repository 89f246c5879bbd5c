// Package metrics holds the Prometheus instruments shared across the
// server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kantoor_http_requests_total",
		Help: "HTTP requests by method and status code.",
	}, []string{"method", "code"})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kantoor_ws_connected_clients",
		Help: "Currently connected websocket clients.",
	})

	FeedEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kantoor_feed_events_total",
		Help: "Change-feed events published, by table.",
	}, []string{"table"})

	PushDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kantoor_push_deliveries_total",
		Help: "Web Push delivery attempts by result.",
	}, []string{"result"})
)
