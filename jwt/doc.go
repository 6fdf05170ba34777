// Package jwt inspects access tokens issued by the job-board backend.
//
// The backend signs and verifies its own tokens; this package only decodes the claims
// the web tier needs (expiry, subject, role) so that stale sessions can be dropped
// before a request is wasted on a guaranteed 401.
//
// Tokens that are not JWTs are treated as opaque and never reported as expired.
package jwt
