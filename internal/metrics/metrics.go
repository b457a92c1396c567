package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the response engine. Each
// instance carries its own registry so tests can construct them freely.
type Metrics struct {
	registry *prometheus.Registry

	alertsGenerated  *prometheus.CounterVec
	alertsIngested   prometheus.Counter
	alertsRejected   prometheus.Counter
	playbookRuns     *prometheus.CounterVec
	playbookSteps    prometheus.Counter
	ipsBlocked       prometheus.Counter
	ipsUnblocked     *prometheus.CounterVec
	blocksExpired    prometheus.Counter
	rollbacks        prometheus.Counter
	auditEntries     prometheus.Counter
	blockedIPsActive prometheus.Gauge
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		alertsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actdrs_alerts_generated_total",
			Help: "Total threat alerts added to the feed, by origin",
		}, []string{"origin"}),
		alertsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actdrs_alerts_ingested_total",
			Help: "Total alerts accepted via the ingestion API",
		}),
		alertsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actdrs_alerts_rejected_total",
			Help: "Total ingestion payloads rejected by validation",
		}),
		playbookRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actdrs_playbook_runs_total",
			Help: "Total playbook runs, by final status",
		}, []string{"status"}),
		playbookSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actdrs_playbook_steps_total",
			Help: "Total playbook steps executed",
		}),
		ipsBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actdrs_ips_blocked_total",
			Help: "Total IPs added to the block registry",
		}),
		ipsUnblocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actdrs_ips_unblocked_total",
			Help: "Total IPs removed from the block registry, by reason",
		}, []string{"reason"}),
		blocksExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actdrs_blocks_expired_total",
			Help: "Total block entries removed by the expiry sweep",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actdrs_rollbacks_total",
			Help: "Total audit entries rolled back",
		}),
		auditEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actdrs_audit_entries_total",
			Help: "Total audit log entries appended",
		}),
		blockedIPsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "actdrs_blocked_ips_active",
			Help: "Number of currently active block entries",
		}),
	}

	registry.MustRegister(
		m.alertsGenerated,
		m.alertsIngested,
		m.alertsRejected,
		m.playbookRuns,
		m.playbookSteps,
		m.ipsBlocked,
		m.ipsUnblocked,
		m.blocksExpired,
		m.rollbacks,
		m.auditEntries,
		m.blockedIPsActive,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncAlertsGenerated(origin string) { m.alertsGenerated.WithLabelValues(origin).Inc() }
func (m *Metrics) IncAlertsIngested()               { m.alertsIngested.Inc() }
func (m *Metrics) IncAlertsRejected()               { m.alertsRejected.Inc() }
func (m *Metrics) IncPlaybookRuns(status string)    { m.playbookRuns.WithLabelValues(status).Inc() }
func (m *Metrics) IncPlaybookSteps()                { m.playbookSteps.Inc() }
func (m *Metrics) IncIPsBlocked()                   { m.ipsBlocked.Inc() }
func (m *Metrics) IncIPsUnblocked(reason string)    { m.ipsUnblocked.WithLabelValues(reason).Inc() }
func (m *Metrics) IncBlocksExpired()                { m.blocksExpired.Inc() }
func (m *Metrics) IncRollbacks()                    { m.rollbacks.Inc() }
func (m *Metrics) IncAuditEntries()                 { m.auditEntries.Inc() }
func (m *Metrics) SetBlockedIPsActive(n float64)    { m.blockedIPsActive.Set(n) }
