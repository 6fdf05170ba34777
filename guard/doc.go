// Package guard decides whether a browser context may see a route.
//
// A [Policy] is declared per route; [Decide] maps a policy plus the current session
// snapshot to a [State]. The decision is pure: no I/O, no navigation. Callers turn
// denials into redirects using [Paths], which names the only two destinations the guard
// ever sends a user to.
//
// [Watch] keeps a decision live for the lifetime of a rendered view by re-evaluating on
// every session change. [RouteTable] declares policies as data and can be loaded from
// YAML.
//
// # What this package must NOT do
//
//   - Mutate the session.
//   - Perform HTTP or template work; see package middleware for adapters.
package guard
