// Package goBoard is the server-side web tier of a job board: it owns the session of
// each browser context, gates routes on it, and calls the job-board REST API on the
// user's behalf.
//
// The package is designed for concurrent server workloads: Engine methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goBoard is the composition root. It exposes [Engine], [Builder], [Config] and value
// types such as [MetricsSnapshot]. The session lifecycle lives in package session,
// route policies in package guard, backend calls in package api and persistence in
// package storage. Audit dispatch is internal.
//
// # What this package must NOT do
//
//   - Hold business data. Jobs, companies and applicants belong to the backend.
//   - Verify token signatures. The backend issues and verifies tokens; goBoard only
//     reads the exp claim to drop stale sessions early.
//   - Import any sub-package that re-imports goBoard (no import cycles).
package goBoard
