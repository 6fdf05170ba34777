// Package storage provides the durable key-value persistence that backs a browser
// context's session record.
//
// # Backends
//
//   - [Memory]: process-local map, for tests and single-process development.
//   - [Redis]: go-redis v9 client, keys namespaced per browser context with optional TTL.
//   - [File]: one JSON document per namespace on local disk.
//
// [Namespaced] narrows any [Backend] to a single browser context so that the session
// store sees a flat [Storage] with one well-known key.
//
// # What this package must NOT do
//
//   - Interpret stored values; bytes in, bytes out.
//   - Import session, guard or goBoard.
package storage
