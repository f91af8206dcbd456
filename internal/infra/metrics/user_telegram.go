package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sessionsActive,
		telegramCommandsReceivedTotal,
		telegramRateLimitTriggeredTotal,
		telegramSendFailuresTotal,
	)
}

var (
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_tracked",
			Help: "Sessions currently held in the session store.",
		},
	)

	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming messages and commands from users.",
		},
		[]string{"command"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	telegramSendFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_send_failures_total",
			Help: "Outbound messages the transport failed to deliver.",
		},
		[]string{"kind"},
	)
)

func SetSessionsTracked(n int) {
	sessionsActive.Set(float64(n))
}

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncSendFailure(kind string) {
	telegramSendFailuresTotal.WithLabelValues(norm(kind)).Inc()
}
