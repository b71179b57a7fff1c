// Package metrics defines and registers all custom Prometheus metrics for
// the orion-program service. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "orion_program"

// ── Program metrics ───────────────────────────────────────────────────────────

var ProgramsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "programs_created_total",
		Help:      "Total number of programs created.",
	},
)

var ProgramsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "programs_deleted_total",
		Help:      "Total number of programs deleted (including their embedded areas).",
	},
)

// AreasMutatedTotal counts educational-area mutations.
// Label:
//   - op: "created", "updated", or "deleted"
var AreasMutatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "areas_mutated_total",
		Help:      "Total number of educational-area mutations, by operation.",
	},
	[]string{"op"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// SystemIdentityTotal counts requests granted the synthetic system identity
// via the internal/service-request headers. A spike here without a matching
// internal caller is a confused-deputy signal.
var SystemIdentityTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "system_identity_injections_total",
		Help:      "Total number of requests served under the synthetic system identity.",
	},
)

// AuthFailuresTotal counts rejected requests.
// Label:
//   - kind: "unauthenticated" (401) or "forbidden" (403)
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected by authentication or authorization.",
	},
	[]string{"kind"},
)

// ── Collaborator metrics ──────────────────────────────────────────────────────

// UserLookupsTotal counts leader lookups.
// Label:
//   - result: "hit" or "miss"
var UserLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_lookups_total",
		Help:      "Total number of leader lookups against the user directory, by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of audit entries waiting to be written.
var AuditQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries buffered for persistence.",
	},
)
