// Package permission defines the job-board roles and the fixed-size role set used by
// route policies.
//
// # Roles
//
// Four roles exist: [Anonymous], [Applicant], [Company] and [Admin]. Each role owns one
// bit of a [RoleSet]; the empty set means "no role restriction".
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. It does not know about
// sessions, tokens or HTTP.
//
// # What this package must NOT do
//
//   - Access storage, the network, or the REST API.
//   - Import goBoard, session, guard or middleware.
//   - Add roles at runtime; the set of roles is fixed at compile time.
package permission
