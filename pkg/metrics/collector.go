package metrics

import (
	"context"
	"time"

	"github.com/Proton-105/queue-bot/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of handled updates labeled by action and status",
		},
		[]string{"action", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "update_duration_seconds",
			Help:    "Duration of update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	activeUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_users",
			Help: "Current number of users with a stored conversation context",
		},
	)
	usersByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "users_by_state",
			Help: "Number of users per state",
		},
		[]string{"state"},
	)
	waitlistOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_operations_total",
			Help: "Waitlist mutations by operation and result",
		},
		[]string{"op", "result"},
	)
	promotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_promotions_total",
			Help: "Head promotions by result",
		},
		[]string{"result"},
	)
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outbound messages by kind and delivery status",
		},
		[]string{"kind", "status"},
	)
	faqAnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faq_answers_total",
			Help: "FAQ setup answers by result",
		},
		[]string{"result"},
	)
)

var trackedStates = state.All()

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordCommand increments update counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition tracks FSM transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// RecordWaitlistOperation counts an enqueue/dequeue outcome.
func RecordWaitlistOperation(op, result string) {
	waitlistOperationsTotal.WithLabelValues(op, result).Inc()
}

// RecordPromotion counts a head promotion attempt.
func RecordPromotion(result string) {
	promotionsTotal.WithLabelValues(result).Inc()
}

// RecordNotification counts a single outbound message.
func RecordNotification(kind, status string) {
	notificationsTotal.WithLabelValues(kind, status).Inc()
}

// RecordFAQAnswer counts an FAQ setup answer.
func RecordFAQAnswer(result string) {
	faqAnswersTotal.WithLabelValues(result).Inc()
}

// SetActiveUsers updates the gauge for current active users.
func SetActiveUsers(count int) {
	activeUsers.Set(float64(count))
}

// SetUsersByState updates the gauge for the given state.
func SetUsersByState(state string, count int) {
	if state == "" {
		state = "unknown"
	}

	usersByState.WithLabelValues(state).Set(float64(count))
}

// StateSource lists stored conversation contexts.
type StateSource interface {
	GetAllStates(ctx context.Context) ([]*state.UserContext, error)
}

// StateCollector periodically gathers context counts per state and emits gauge metrics.
type StateCollector struct {
	source   StateSource
	interval time.Duration
}

// NewStateCollector builds a metrics collector bound to the provided context source.
func NewStateCollector(source StateSource, interval time.Duration) *StateCollector {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StateCollector{source: source, interval: interval}
}

// Run polls the source on every interval, updating active user gauges until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	states, err := c.source.GetAllStates(ctx)
	if err != nil {
		return err
	}

	SetActiveUsers(len(states))

	stateCounts := make(map[string]int, len(states))
	for _, st := range states {
		label := "unknown"
		if st != nil && st.State != "" {
			label = string(st.State)
		}
		stateCounts[label]++
	}

	usersByState.Reset()

	for _, tracked := range trackedStates {
		label := string(tracked)
		SetUsersByState(label, stateCounts[label])
		delete(stateCounts, label)
	}

	for label, count := range stateCounts {
		SetUsersByState(label, count)
	}

	return nil
}
