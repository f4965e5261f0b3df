package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speakbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "speakbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speakbook_checkouts_total",
			Help: "Total number of gateway orders opened at checkout",
		},
		[]string{"gateway"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speakbook_bookings_total",
			Help: "Total number of payment verifications by outcome",
		},
		[]string{"status", "gateway"},
	)

	BookingCancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speakbook_booking_cancellations_total",
			Help: "Total number of booking cancellations by outcome",
		},
		[]string{"status"},
	)

	SlotsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speakbook_slots_generated_total",
			Help: "Total number of slots created by the generator",
		},
	)

	SlotGenerationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speakbook_slot_generation_runs_total",
			Help: "Total number of slot generator runs by outcome",
		},
		[]string{"status"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speakbook_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	SMSSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speakbook_sms_sent_total",
			Help: "Total number of SMS notifications by outcome",
		},
		[]string{"status"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speakbook_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speakbook_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordCheckout(gateway string) {
	CheckoutsTotal.WithLabelValues(gateway).Inc()
}

func RecordBooking(status, gateway string) {
	BookingsTotal.WithLabelValues(status, gateway).Inc()
}

func RecordBookingCancellation(status string) {
	BookingCancellationsTotal.WithLabelValues(status).Inc()
}

func RecordSlotGeneration(status string, created int) {
	SlotGenerationRuns.WithLabelValues(status).Inc()
	if created > 0 {
		SlotsGeneratedTotal.Add(float64(created))
	}
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordSMS(status string) {
	SMSSentTotal.WithLabelValues(status).Inc()
}

func RecordRateLimited() {
	RateLimitedTotal.Inc()
}
