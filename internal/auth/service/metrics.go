package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the identity service counters. A nil *Metrics records
// nothing, which keeps tests free of registries.
type Metrics struct {
	LoginAttempts    *prometheus.CounterVec
	Lockouts         prometheus.Counter
	TokenValidations *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passguard_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		Lockouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "passguard_lockouts_total",
				Help: "Accounts locked after too many failed logins",
			},
		),
		TokenValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passguard_token_validations_total",
				Help: "Access token validations by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.LoginAttempts, m.Lockouts, m.TokenValidations)
	return m
}

func (m *Metrics) login(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) lockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

func (m *Metrics) tokenValidation(ok bool) {
	if m == nil {
		return
	}
	result := "valid"
	if !ok {
		result = "invalid"
	}
	m.TokenValidations.WithLabelValues(result).Inc()
}
