package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "join_request_bot"

	BotSubsystem = "bot"
)

var (
	JoinRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: BotSubsystem,
			Name:      "join_requests_total",
			Help:      "Total number of incoming join requests by admission outcome",
		},
		[]string{"outcome"},
	)

	ApprovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: BotSubsystem,
			Name:      "approvals_total",
			Help:      "Total number of approval attempts by status",
		},
		[]string{"status"},
	)

	UserMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: BotSubsystem,
			Name:      "user_messages_total",
			Help:      "Total number of user messages processed",
		},
		[]string{"message_type"},
	)

	PendingQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: BotSubsystem,
			Name:      "pending_queue_depth",
			Help:      "Number of pending join requests per chat",
		},
		[]string{"chat_id"},
	)
)

// Исходы обработки входящей заявки.
const (
	OutcomeAutoApproved = "auto_approved"
	OutcomeQueued       = "queued"
)

// Статусы попыток одобрения.
const (
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusUnavailable = "unavailable"
)

func RecordJoinRequest(outcome string) {
	JoinRequestsTotal.WithLabelValues(outcome).Inc()
}

func RecordApproval(status string) {
	ApprovalsTotal.WithLabelValues(status).Inc()
}

func RecordUserMessage(messageType string) {
	UserMessagesTotal.WithLabelValues(messageType).Inc()
}

func SetPendingQueueDepth(chatID string, depth int) {
	PendingQueueDepth.WithLabelValues(chatID).Set(float64(depth))
}
