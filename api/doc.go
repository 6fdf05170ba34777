// Package api is a typed client for the job-board REST backend.
//
// [Client] covers the public endpoints (auth flows, categories, job listings). Calls made
// on behalf of a signed-in browser context go through [Authed], obtained from
// [Client.For], which attaches the bearer token of the bound session and logs that
// session out on any 401.
//
// Backend failures surface as [*Error]; use errors.Is with [ErrUnauthorized] or
// [ErrNotFound] to classify them.
package api
