// Package audit relays session and guard events to a sink without blocking request
// handling.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines writer, slog logger, no-op).
//   - [Dispatcher]: buffered async relay that either drops or blocks when full. Events
//     are spread over lanes by browser-context id, so one context's events stay in
//     order while different contexts are delivered in parallel.
//   - [Event]: one record with browser-context id, request id, role, path and metadata.
//
// # What this package must NOT do
//
//   - Decide which events to emit; the Engine does.
//   - Import goBoard or any sibling package.
package audit
