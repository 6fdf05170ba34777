// Package middleware connects goBoard's session and guard packages to HTTP.
//
// # Chain
//
//   - [Session] resolves the browser-context cookie, hydrates that context's
//     session.Store through the Engine and drops stale tokens.
//   - [Guard] looks the request path up in the Engine's route table and enforces its
//     policy. [Require] enforces an explicit policy, for form actions that share a
//     page's rules. A granted request runs under a guard.Watch, so a session that
//     ends while the handler runs, as after a backend 401, still ends in the denial
//     redirect when the handler has written nothing.
//   - [Gin] adapts any of these to a gin.HandlerFunc.
//
// # What this package must NOT do
//
//   - Mutate the session other than through the Store's own operations.
//   - Decide policies. Decisions come from guard.Decide.
package middleware
