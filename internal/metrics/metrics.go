package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Total number of messages appended to the store",
		},
	)

	readReceiptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "read_receipts_total",
			Help: "Total number of mark-read operations",
		},
	)

	messagesMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_marked_read_total",
			Help: "Total number of messages transitioned to read",
		},
	)

	unreadReconciliations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unread_reconciliations_total",
			Help: "Unread counter recomputations from the message store",
		},
	)
)

// MessageSent records a successful append
func MessageSent() {
	messagesSentTotal.Inc()
}

// ReadReceipt records a mark-read call and how many messages it updated
func ReadReceipt(updated int64) {
	readReceiptsTotal.Inc()
	messagesMarkedRead.Add(float64(updated))
}

// UnreadReconciled records a counter recomputation
func UnreadReconciled() {
	unreadReconciliations.Inc()
}
