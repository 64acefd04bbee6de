// Package metrics holds the Prometheus collectors for the auth services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Signups counts registration attempts by outcome.
var Signups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_signups_total",
		Help: "Total number of signup attempts",
	},
	[]string{"status"},
)

// Logins counts login attempts by outcome.
var Logins = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total number of login attempts",
	},
	[]string{"status"},
)

// ResetTokensIssued counts reset tokens handed out.
var ResetTokensIssued = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_reset_tokens_issued_total",
		Help: "Total number of password reset tokens issued",
	},
)

// ResetConsumptions counts consume attempts. The status label is
// "success" or the failure kind (invalid, used, expired, validation, store).
var ResetConsumptions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_reset_consumptions_total",
		Help: "Total number of password reset attempts",
	},
	[]string{"status"},
)

// ResetTokensPurged counts rows removed by the expired/used sweep.
var ResetTokensPurged = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_reset_tokens_purged_total",
		Help: "Total number of expired or used reset tokens deleted",
	},
)

// RegisterMetrics registers the collectors with reg. It panics if
// registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Signups, Logins, ResetTokensIssued, ResetConsumptions, ResetTokensPurged)
}

func status(ok bool) string {
	if ok {
		return StatusSuccess
	}
	return StatusFailure
}

// RecordSignup increments the signup counter.
func RecordSignup(ok bool) { Signups.WithLabelValues(status(ok)).Inc() }

// RecordLogin increments the login counter.
func RecordLogin(ok bool) { Logins.WithLabelValues(status(ok)).Inc() }

// RecordTokenIssued increments the issued-token counter.
func RecordTokenIssued() { ResetTokensIssued.Inc() }

// RecordConsume increments the consume counter for the given status.
func RecordConsume(status string) { ResetConsumptions.WithLabelValues(status).Inc() }

// RecordPurged adds n to the purged-token counter.
func RecordPurged(n int64) {
	if n > 0 {
		ResetTokensPurged.Add(float64(n))
	}
}
