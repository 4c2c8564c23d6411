// Package goIdentity provides an identity and account-recovery engine: it
// classifies caller-supplied identifiers (email, mobile, username), drives the
// OTP-gated signup/signin state machine, manages password-reset and
// recovery-channel flows, and tracks account lifecycle state.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goIdentity is the public surface. It exposes [Engine], [Builder], [Config],
// provider interfaces ([AccountRepository], [DeliveryGateway], [PushGateway],
// [ImageStore]) and value types. Confirmed accounts live behind
// [AccountRepository]; only unconfirmed pending signups live in Redis, where
// key TTLs implement their auto-expiry.
//
// # What this package must NOT do
//
//   - Expose Redis clients, pending-record encoding, or delivery transports in
//     its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Route HTTP. The examples directory shows a minimal integration; the
//     engine itself is transport-agnostic.
package goIdentity
