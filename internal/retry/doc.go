// Package retry runs soft-failable operations under a bounded attempt policy.
//
// Only errors that services.IsRetryable accepts are retried. Validation and
// schema failures return immediately, as does cancellation of the caller's
// context. Each retry is logged as a WARN with the attempt number.
package retry
