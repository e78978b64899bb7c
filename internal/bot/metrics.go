package bot

import "github.com/prometheus/client_golang/prometheus"

var (
	// ticketEvents counts lifecycle transitions by kind (created, claimed,
	// closed). One label with three values keeps cardinality trivial.
	ticketEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_ticket_events_total",
			Help: "Ticket lifecycle events by kind.",
		},
		[]string{"kind"},
	)

	// relayedMessages counts messages forwarded between clients and
	// operators by direction and delivery outcome.
	relayedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_relayed_messages_total",
			Help: "Messages relayed between clients and operators.",
		},
		[]string{"direction", "outcome"},
	)

	// droppedEvents counts inbound updates the engine could not act on
	// (unknown callbacks, messages outside private chats).
	droppedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_dropped_updates_total",
			Help: "Inbound updates dropped without dispatch.",
		},
	)
)

func init() {
	prometheus.MustRegister(ticketEvents, relayedMessages, droppedEvents)
}
