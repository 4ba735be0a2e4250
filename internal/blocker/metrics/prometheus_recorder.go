package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tamashii"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reapply         *prom.CounterVec
	tamper          prom.Counter
	notifications   *prom.CounterVec
	blockedDomains  prom.Gauge
	commandDuration *prom.HistogramVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reapply: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reapply_total",
			Help:      "Blocklist re-applications by trigger and outcome",
		}, []string{"trigger", "result"}),
		tamper: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "tamper_detected_total",
			Help:      "Times the managed hosts section was found altered",
		}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Daily notifications by outcome",
		}, []string{"result"}),
		blockedDomains: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "blocked_domains",
			Help:      "Number of domains in the active blocklist",
		}),
		commandDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of control commands",
			Buckets:   prom.DefBuckets,
		}, []string{"command", "result"}),
	}
	reg.MustRegister(pr.reapply, pr.tamper, pr.notifications, pr.blockedDomains, pr.commandDuration)
	return pr
}

func (p *PrometheusRecorder) IncReapply(trigger TriggerLabel, result ResultLabel) {
	if p == nil {
		return
	}
	p.reapply.WithLabelValues(string(trigger), string(result)).Inc()
}

func (p *PrometheusRecorder) IncTamper() {
	if p == nil {
		return
	}
	p.tamper.Inc()
}

func (p *PrometheusRecorder) IncNotification(result ResultLabel) {
	if p == nil {
		return
	}
	p.notifications.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetBlockedDomains(n int) {
	if p == nil {
		return
	}
	p.blockedDomains.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveCommand(command string, d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.commandDuration.WithLabelValues(command, string(result)).Observe(d.Seconds())
}

// HTTPHandler serves the metrics of reg in the Prometheus exposition format.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

var _ Recorder = (*PrometheusRecorder)(nil)
