// Package metrics defines and registers all custom Prometheus metrics for the
// auth platform. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default registry at package init; the /metrics
// endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// SignInsTotal counts sign-in attempts by outcome.
// Label:
//   - outcome: "success", "invalid_credentials", "not_found", "throttled", "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of email/password sign-in attempts, by outcome.",
	},
	[]string{"outcome"},
)

// SignUpsTotal counts account creations by outcome.
// Label:
//   - outcome: "success", "duplicate", "weak_password", "error"
var SignUpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ups_total",
		Help:      "Total number of sign-up attempts, by outcome.",
	},
	[]string{"outcome"},
)

// SocialFlowsTotal counts OAuth social sign-in flows.
// Labels:
//   - provider: "google", "github", …
//   - outcome: "begin", "success", "error"
var SocialFlowsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "social_flows_total",
		Help:      "Total number of social sign-in flow steps, by provider and outcome.",
	},
	[]string{"provider", "outcome"},
)

// AuthErrorsTotal counts errors returned to clients, by taxonomy code.
var AuthErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total number of auth errors returned to clients, by error code.",
	},
	[]string{"code"},
)

// SessionsActive tracks sessions established minus sessions revoked by this
// instance. An approximation; Redis TTL expiry is not observed.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Sessions created minus sessions explicitly revoked by this instance.",
	},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
