// Package metrics defines the custom Prometheus metrics of the auth API.
// All metrics are registered with the default registry on package load.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ceasar/auth-service/internal/core/domain"
)

const namespace = "ceasar_auth"

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "created", "duplicate", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "rejected", "throttled", "invalid" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ValidationsTotal counts token validations.
// Label:
//   - result: "valid", "missing", "malformed", "signature_mismatch", "expired", "user_not_found" or "error"
var ValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of token validations, by verdict.",
	},
	[]string{"result"},
)

// VerdictLabel maps a verdict to its ValidationsTotal label.
func VerdictLabel(v domain.Verdict) string {
	if v.Valid {
		return "valid"
	}
	switch {
	case errors.Is(v.Reason, domain.ErrTokenMissing):
		return "missing"
	case errors.Is(v.Reason, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(v.Reason, domain.ErrTokenSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(v.Reason, domain.ErrTokenUserNotFound):
		return "user_not_found"
	default:
		return "malformed"
	}
}
