package middleware

import (
	"net/http"
	"net/url"
	"strings"

	goBoard "github.com/MrEthical07/goBoard"
	"github.com/MrEthical07/goBoard/guard"
)

const loadingPage = `<!doctype html><html><head><meta charset="utf-8"><title>Loading</title></head><body><p>Loading…</p></body></html>`

// Guard enforces the policy of the route table entry matching the request path.
// Paths outside the table pass through unguarded.
func Guard(engine *goBoard.Engine) func(http.Handler) http.Handler {
	routes := engine.Routes()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, _, ok := routes.Lookup(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			enforce(engine, route.Policy, routes.Paths, next, w, r)
		})
	}
}

// Require enforces p regardless of the route table.
func Require(engine *goBoard.Engine, p guard.Policy) func(http.Handler) http.Handler {
	paths := engine.Routes().Paths

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			enforce(engine, p, paths, next, w, r)
		})
	}
}

func enforce(engine *goBoard.Engine, p guard.Policy, paths guard.Paths, next http.Handler, w http.ResponseWriter, r *http.Request) {
	rs, ok := FromContext(r.Context())
	if !ok {
		engine.Logger().Error("middleware: guard reached without session middleware", "path", r.URL.Path)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	state := guard.Evaluate(p, rs.Store)
	engine.RecordGuard(r.Context(), r.URL.Path, state, rs.Store.Current())

	switch state {
	case guard.Granted:
		serveWatched(engine, p, paths, next, w, r, rs)
	case guard.Checking:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(loadingPage))
	default:
		target := paths.Redirect(state)
		if state == guard.DeniedAnonymous {
			target = authRedirect(target, r, rs.Expired)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// serveWatched runs next while a guard.Watch follows the request's store. When the
// session changes so that the route is denied, for example the logout after a backend
// 401, and next has not written a response, the request ends in the denial redirect.
// A session that ended mid-request goes to the auth page flagged as expired.
func serveWatched(engine *goBoard.Engine, p guard.Policy, paths guard.Paths, next http.Handler, w http.ResponseWriter, r *http.Request, rs *RequestSession) {
	ctx := r.Context()
	watcher := guard.Watch(p, rs.Store, func(s guard.State) {
		if s.Denied() {
			engine.RecordGuard(ctx, r.URL.Path, s, rs.Store.Current())
		}
	})
	defer watcher.Stop()

	tw, written := trackWrites(w)
	next.ServeHTTP(tw, r)

	state := watcher.State()
	if !state.Denied() || written() {
		return
	}
	target := paths.Redirect(state)
	if rs.Store.Current().IsAnonymous() {
		target = authRedirect(paths.Auth, r, true)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// trackWrites reports whether a response has been started on w. Gin's writer already
// knows; plain writers are wrapped.
func trackWrites(w http.ResponseWriter) (http.ResponseWriter, func() bool) {
	if wr, ok := w.(interface{ Written() bool }); ok {
		return w, wr.Written
	}
	tw := &writeTracker{ResponseWriter: w}
	return tw, func() bool { return tw.wrote }
}

type writeTracker struct {
	http.ResponseWriter
	wrote bool
}

func (t *writeTracker) WriteHeader(code int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *writeTracker) Write(b []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(b)
}

func (t *writeTracker) Unwrap() http.ResponseWriter { return t.ResponseWriter }

// authRedirect appends the page to return to after login, and the expiry flag.
func authRedirect(authPath string, r *http.Request, expired bool) string {
	q := url.Values{}
	if r.Method == http.MethodGet {
		q.Set("next", r.URL.RequestURI())
	}
	if expired {
		q.Set("expired", "1")
	}
	if len(q) == 0 {
		return authPath
	}
	sep := "?"
	if strings.Contains(authPath, "?") {
		sep = "&"
	}
	return authPath + sep + q.Encode()
}

// SafeNext returns next when it is a local absolute path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" || next[0] != '/' || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
