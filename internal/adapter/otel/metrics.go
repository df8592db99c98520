package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "praxis"

// Metrics holds all praxis metric instruments.
type Metrics struct {
	Logins          metric.Int64Counter
	LoginFailures   metric.Int64Counter
	Reactivations   metric.Int64Counter
	SessionsExpired metric.Int64Counter
	AccessAllowed   metric.Int64Counter
	AccessDenied    metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Logins, err = meter.Int64Counter("praxis.logins",
		metric.WithDescription("Number of sessions established"))
	if err != nil {
		return nil, err
	}

	m.LoginFailures, err = meter.Int64Counter("praxis.login.failures",
		metric.WithDescription("Number of failed authentication attempts"))
	if err != nil {
		return nil, err
	}

	m.Reactivations, err = meter.Int64Counter("praxis.account.reactivations",
		metric.WithDescription("Number of accounts reactivated via verified link"))
	if err != nil {
		return nil, err
	}

	m.SessionsExpired, err = meter.Int64Counter("praxis.sessions.expired",
		metric.WithDescription("Number of sessions expired for inactivity"))
	if err != nil {
		return nil, err
	}

	m.AccessAllowed, err = meter.Int64Counter("praxis.access.allowed",
		metric.WithDescription("Number of permitted access checks"))
	if err != nil {
		return nil, err
	}

	m.AccessDenied, err = meter.Int64Counter("praxis.access.denied",
		metric.WithDescription("Number of denied access checks"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
