// Package internal holds goBoard packages that are not part of its public API.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - rate: Redis-backed failed sign-in throttle
//   - web: gin router and server-rendered pages
package internal
