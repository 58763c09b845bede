package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_sessions",
		Help: "Number of currently open sessions, authenticated or not",
	})

	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_online_users",
		Help: "Number of sessions holding a nickname",
	})

	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Inbound protocol messages processed by type",
	}, []string{"type"})

	DecodeErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_decode_errors_total",
		Help: "Inbound lines discarded by the wire codec",
	}, []string{"kind"})

	RejectedConnectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_rejected_connections_total",
		Help: "Connections refused at admission",
	}, []string{"reason"})

	SlowConsumerDisconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_slow_consumer_disconnects_total",
		Help: "Sessions closed because their outbound queue overflowed",
	})

	EventProcessingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_event_processing_seconds",
		Help:    "Time to dispatch each inbound event type",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(ConnectedSessions)
	prometheus.MustRegister(OnlineUsers)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(DecodeErrorsTotal)
	prometheus.MustRegister(RejectedConnectionsTotal)
	prometheus.MustRegister(SlowConsumerDisconnects)
	prometheus.MustRegister(EventProcessingDuration)
}
