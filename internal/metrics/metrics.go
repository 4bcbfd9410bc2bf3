// Package metrics provides Prometheus metrics for rooms, sessions, expansion
// and prompt mutations.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Editing sessions
var (
	roomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "promptmesh_rooms_active",
		Help: "Number of prompts with at least one open editing session",
	})

	sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "promptmesh_sessions_active",
		Help: "Number of open editing sessions",
	})

	// sessionMessagesTotal counts client frames handled by rooms.
	// Labels:
	//   - action: update, update_metadata, expand, unknown, invalid
	//   - status: ok, error
	sessionMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptmesh_session_messages_total",
			Help: "Total number of client messages processed by editing rooms",
		},
		[]string{"action", "status"},
	)

	broadcastDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promptmesh_broadcast_dropped_total",
		Help: "Sessions disconnected because their outbound queue was full",
	})
)

// Inclusion expansion
var (
	// expansionsTotal labels: outcome = clean, warnings, error
	expansionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptmesh_expansions_total",
			Help: "Total number of top-level inclusion expansions",
		},
		[]string{"outcome"},
	)

	// expansionWarningsTotal labels: kind = not_found, cycle, ambiguous, max_depth
	expansionWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptmesh_expansion_warnings_total",
			Help: "Total number of warnings produced by inclusion expansion",
		},
		[]string{"kind"},
	)
)

// Prompt repository
var (
	// promptMutationsTotal labels: op = create, update, update_metadata, delete, refresh; status = ok, error
	promptMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptmesh_prompt_mutations_total",
			Help: "Total number of prompt mutations",
		},
		[]string{"op", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		roomsActive,
		sessionsActive,
		sessionMessagesTotal,
		broadcastDroppedTotal,
		expansionsTotal,
		expansionWarningsTotal,
		promptMutationsTotal,
	)
}

func RoomOpened()    { roomsActive.Inc() }
func RoomClosed()    { roomsActive.Dec() }
func SessionOpened() { sessionsActive.Inc() }
func SessionClosed() { sessionsActive.Dec() }

// RecordSessionMessage counts one client frame.
func RecordSessionMessage(action string, ok bool) {
	sessionMessagesTotal.WithLabelValues(action, status(ok)).Inc()
}

func RecordBroadcastDropped() { broadcastDroppedTotal.Inc() }

// RecordExpansion counts one top-level expansion and its warnings by kind.
func RecordExpansion(warningKinds []string, err error) {
	switch {
	case err != nil:
		expansionsTotal.WithLabelValues("error").Inc()
		return
	case len(warningKinds) > 0:
		expansionsTotal.WithLabelValues("warnings").Inc()
	default:
		expansionsTotal.WithLabelValues("clean").Inc()
	}
	for _, k := range warningKinds {
		expansionWarningsTotal.WithLabelValues(k).Inc()
	}
}

// RecordMutation counts one create, update, delete or refresh.
func RecordMutation(op string, err error) {
	promptMutationsTotal.WithLabelValues(op, status(err == nil)).Inc()
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
