package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the push transport. All collectors are labeled by
// service domain (quiz, survey, contest) so one process-wide set serves
// every connection.
type Metrics struct {
	ConnectsTotal       *prometheus.CounterVec
	DisconnectsTotal    *prometheus.CounterVec
	FramesReceived      *prometheus.CounterVec
	FramesDropped       *prometheus.CounterVec
	SubscribeRetries    *prometheus.CounterVec
	ActiveSubscriptions *prometheus.GaugeVec
}

// NewMetrics registers the transport collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	labels := []string{"domain"}

	return &Metrics{
		ConnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compezze_transport_connects_total",
			Help: "Successful websocket handshakes.",
		}, labels),
		DisconnectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compezze_transport_disconnects_total",
			Help: "Connection losses observed by the read loop.",
		}, labels),
		FramesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compezze_transport_frames_received_total",
			Help: "Inbound push frames, including malformed ones.",
		}, labels),
		FramesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compezze_transport_frames_dropped_total",
			Help: "Inbound frames dropped because they failed to decode.",
		}, labels),
		SubscribeRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compezze_transport_subscribe_retries_total",
			Help: "Subscribe attempts deferred because the connection was not ready.",
		}, labels),
		ActiveSubscriptions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "compezze_transport_active_subscriptions",
			Help: "Currently held subscription handles.",
		}, labels),
	}
}
