package stream

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons reported on messages_dropped_total.
const (
	DropBinary      = "binary"
	DropTooLarge    = "too_large"
	DropQueueFull   = "queue_full"
	DropInvalidUTF8 = "invalid_utf8"
)

// Metrics holds the Prometheus collectors for stream workers. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	connectAttempts   prometheus.Counter
	connectFailures   prometheus.Counter
	connectionsActive prometheus.Gauge
	messagesReceived  prometheus.Counter
	messagesDropped   *prometheus.CounterVec // By reason
	bytesReceived     prometheus.Counter
	queueDepth        prometheus.Gauge
}

// NewMetrics creates the stream collectors and registers them with reg.
// A nil registry disables metrics and returns nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		connectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsfeed",
			Subsystem: "stream",
			Name:      "connect_attempts_total",
			Help:      "Total number of connection attempts",
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsfeed",
			Subsystem: "stream",
			Name:      "connect_failures_total",
			Help:      "Total number of failed connection attempts",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wsfeed",
			Subsystem: "stream",
			Name:      "connections_active",
			Help:      "Number of currently open connections",
		}),
		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsfeed",
			Subsystem: "stream",
			Name:      "messages_received_total",
			Help:      "Total number of text messages queued for the consumer",
		}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wsfeed",
			Subsystem: "stream",
			Name:      "messages_dropped_total",
			Help:      "Total number of received messages that were not queued",
		}, []string{"reason"}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wsfeed",
			Subsystem: "stream",
			Name:      "bytes_received_total",
			Help:      "Total payload bytes of queued messages",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wsfeed",
			Subsystem: "stream",
			Name:      "queue_depth",
			Help:      "Number of undrained messages",
		}),
	}

	collectors := []prometheus.Collector{
		m.connectAttempts,
		m.connectFailures,
		m.connectionsActive,
		m.messagesReceived,
		m.messagesDropped,
		m.bytesReceived,
		m.queueDepth,
	}
	var errs []error
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to register stream metrics: %w", err)
	}

	return m, nil
}

func (m *Metrics) connectAttempt() {
	if m == nil {
		return
	}
	m.connectAttempts.Inc()
}

func (m *Metrics) connectFailure() {
	if m == nil {
		return
	}
	m.connectFailures.Inc()
}

func (m *Metrics) connectionOpened() {
	if m == nil {
		return
	}
	m.connectionsActive.Inc()
}

func (m *Metrics) connectionClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Metrics) received(size int) {
	if m == nil {
		return
	}
	m.messagesReceived.Inc()
	m.bytesReceived.Add(float64(size))
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) dropped(reason string) {
	if m == nil {
		return
	}
	m.messagesDropped.WithLabelValues(reason).Inc()
}
