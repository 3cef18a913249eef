// Package metrics defines and registers all custom Prometheus metrics for the
// marina API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register with the default Prometheus registry through promauto when
// the package is imported; echoprometheus serves them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marina"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "throttled" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AuthRejectionsTotal counts requests stopped by the access gate.
// Label:
//   - reason: "missing_token", "invalid_token", "expired_token" or "forbidden"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected by authentication or authorization.",
	},
	[]string{"reason"},
)

// ── Domain metrics ────────────────────────────────────────────────────────────

// CapacityRejectionsTotal counts harbour assignments refused because the
// harbour was full.
var CapacityRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "harbour_capacity_rejections_total",
		Help:      "Total number of boat assignments rejected by harbour capacity.",
	},
)

// RelationshipChangesTotal counts successful relationship mutations.
// Label:
//   - action: "link_owner", "unlink_owner", "assign_harbour" or "release_harbour"
var RelationshipChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relationship_changes_total",
		Help:      "Total number of owner and harbour relationship changes, by action.",
	},
	[]string{"action"},
)
