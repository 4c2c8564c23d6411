package goIdentity

import (
	"sync/atomic"
)

// MetricID defines a public type used by goIdentity APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricSignupRequest is an exported constant or variable used by the identity engine.
	MetricSignupRequest MetricID = iota
	// MetricSignupDeliveryFailure is an exported constant or variable used by the identity engine.
	MetricSignupDeliveryFailure
	// MetricSignupPromoted is an exported constant or variable used by the identity engine.
	MetricSignupPromoted
	// MetricSignupRaceLost is an exported constant or variable used by the identity engine.
	MetricSignupRaceLost
	// MetricSigninPasswordSuccess is an exported constant or variable used by the identity engine.
	MetricSigninPasswordSuccess
	// MetricSigninPasswordFailure is an exported constant or variable used by the identity engine.
	MetricSigninPasswordFailure
	// MetricSigninOTPSent is an exported constant or variable used by the identity engine.
	MetricSigninOTPSent
	// MetricSigninImplicitSignup is an exported constant or variable used by the identity engine.
	MetricSigninImplicitSignup
	// MetricVerifySuccess is an exported constant or variable used by the identity engine.
	MetricVerifySuccess
	// MetricVerifyFailure is an exported constant or variable used by the identity engine.
	MetricVerifyFailure
	// MetricCodeResend is an exported constant or variable used by the identity engine.
	MetricCodeResend
	// MetricResendRateLimited is an exported constant or variable used by the identity engine.
	MetricResendRateLimited
	// MetricForgotPasswordLookup is an exported constant or variable used by the identity engine.
	MetricForgotPasswordLookup
	// MetricResetCodeSent is an exported constant or variable used by the identity engine.
	MetricResetCodeSent
	// MetricPasswordResetSuccess is an exported constant or variable used by the identity engine.
	MetricPasswordResetSuccess
	// MetricPasswordResetFailure is an exported constant or variable used by the identity engine.
	MetricPasswordResetFailure
	// MetricPasswordSet is an exported constant or variable used by the identity engine.
	MetricPasswordSet
	// MetricAccountDeactivated is an exported constant or variable used by the identity engine.
	MetricAccountDeactivated
	// MetricAccountReactivated is an exported constant or variable used by the identity engine.
	MetricAccountReactivated
	// MetricDeliveryFailure is an exported constant or variable used by the identity engine.
	MetricDeliveryFailure
	// MetricPushFailure is an exported constant or variable used by the identity engine.
	MetricPushFailure
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by goIdentity APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot defines a public type used by goIdentity APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics may return an error when input validation, dependency calls, or security checks fail.
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments a single counter. Disabled or out-of-range IDs are
// no-ops.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value returns the current value of one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a point-in-time deep copy of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	return s
}
