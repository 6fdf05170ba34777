// Package session owns the authentication state of one browser context.
//
// # Model
//
// A [Session] is an immutable value: token, role, display name and avatar. The zero
// value is the anonymous session. A [Store] holds the live Session behind an atomic
// pointer; [Store.Current] is a lock-free snapshot read and every mutation replaces the
// whole value.
//
// # Persistence
//
// The Store mirrors the live Session into a [storage.Storage] as a single JSON record
// under one well-known key (see [DefaultKey]). [Store.Initialize] restores it; anything
// malformed, inconsistent or already expired restores as anonymous.
//
// # Ordering
//
// Login, Update and Logout are serialized by a mutex and subscribers are notified while
// it is held, so observers see changes in the order they were applied.
//
// # What this package must NOT do
//
//   - Talk to the backend API or validate credentials.
//   - Make routing decisions; see package guard.
//   - Return errors from its public operations. Storage failures are logged and reported
//     through [Hooks].
package session
