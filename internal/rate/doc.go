// Package rate throttles failed sign-ins with Redis counters.
//
// # Window semantics
//
// Fixed-window counters: INCR + EXPIRE on the first hit. Key suffixes under the
// configured prefix:
//   - al:  failed sign-ins per email
//   - ali: failed sign-ins per client IP
//
// Check blocks once a counter reaches MaxAttempts, so the (MaxAttempts+1)th try
// inside a window never reaches the backend.
package rate
