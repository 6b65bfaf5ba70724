// Package metrics exposes prometheus collectors for the portfolio server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login result labels.
const (
	ResultSuccess  = "success"
	ResultInvalid  = "invalid_credentials"
	ResultLocked   = "locked"
	ResultDisabled = "disabled"
	ResultError    = "error"
)

// Metrics aggregates the server's prometheus collectors.
type Metrics struct {
	LoginAttempts   *prometheus.CounterVec
	Registrations   prometheus.Counter
	OAuthSignIns    *prometheus.CounterVec
	SessionsCreated prometheus.Counter
}

// New registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Local login attempts by result.",
		}, []string{"result"}),
		Registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Successful local registrations.",
		}),
		OAuthSignIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_oauth_sign_ins_total",
			Help: "Google sign-ins by resolution outcome.",
		}, []string{"outcome"}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_sessions_created_total",
			Help: "Server-side sessions established.",
		}),
	}
}
