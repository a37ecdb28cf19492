// ABOUTME: Prometheus instrumentation for toolbar dispatch and request hooks
// ABOUTME: A nil *Metrics is valid and records nothing

package toolbar

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK       = "ok"
	outcomeResponse = "response"
	outcomeError    = "error"
)

// Metrics holds the toolbar collectors.
type Metrics struct {
	hookCalls        *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	requestActions   *prometheus.CounterVec
	buildFailures    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hookCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cms_toolbar",
			Name:      "hook_calls_total",
			Help:      "Sub-toolbar hook invocations by hook, toolbar key and outcome.",
		}, []string{"hook", "toolbar", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cms_toolbar",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent dispatching a hook across all sub-toolbars.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"hook"}),
		requestActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cms_toolbar",
			Name:      "request_actions_total",
			Help:      "Login and logout actions handled by the request hook.",
		}, []string{"action", "result"}),
		buildFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cms_toolbar",
			Name:      "build_failures_total",
			Help:      "Requests served without a toolbar because building it failed.",
		}),
	}
	reg.MustRegister(m.hookCalls, m.dispatchDuration, m.requestActions, m.buildFailures)
	return m
}

func (m *Metrics) countHook(hook Hook, key, outcome string) {
	if m == nil {
		return
	}
	m.hookCalls.WithLabelValues(string(hook), key, outcome).Inc()
}

func (m *Metrics) observeDispatch(hook Hook, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchDuration.WithLabelValues(string(hook)).Observe(d.Seconds())
}

func (m *Metrics) countAction(action, result string) {
	if m == nil {
		return
	}
	m.requestActions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) countBuildFailure() {
	if m == nil {
		return
	}
	m.buildFailures.Inc()
}
