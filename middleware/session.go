package middleware

import (
	"context"
	"net"
	"net/http"

	goBoard "github.com/MrEthical07/goBoard"
	"github.com/MrEthical07/goBoard/session"
	"github.com/google/uuid"
)

type requestSessionKey struct{}

// RequestSession is the session state of one request.
type RequestSession struct {
	ContextID string
	Store     *session.Store
	// Expired is set when this request found the token past its exp claim and
	// logged the session out.
	Expired bool
}

// FromContext returns the RequestSession installed by Session.
func FromContext(ctx context.Context) (*RequestSession, bool) {
	rs, ok := ctx.Value(requestSessionKey{}).(*RequestSession)
	return rs, ok && rs != nil
}

// Session hydrates the browser context's store for every request. A missing or
// invalid context cookie is replaced by a fresh id.
func Session(engine *goBoard.Engine) func(http.Handler) http.Handler {
	cfg := engine.Config().Session

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if goBoard.RequestIDFromContext(ctx) == "" {
				ctx = goBoard.WithRequestID(ctx, uuid.NewString())
			}
			if ip := remoteHost(r.RemoteAddr); ip != "" && !hasClientIP(ctx) {
				ctx = goBoard.WithClientIP(ctx, ip)
			}

			contextID := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil && goBoard.ValidContextID(c.Value) {
				contextID = c.Value
			} else {
				contextID = goBoard.NewContextID()
			}
			// Refreshing the cookie on every response keeps active contexts alive.
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    contextID,
				Path:     "/",
				MaxAge:   int(cfg.CookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cfg.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx = goBoard.WithContextID(ctx, contextID)
			store, err := engine.Session(ctx, contextID)
			if err != nil {
				engine.Logger().Error("middleware: session hydrate failed", "context", contextID, "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			rs := &RequestSession{ContextID: contextID, Store: store}
			rs.Expired = store.LogoutIfExpired(ctx) || store.Restored() == session.RestoreExpired

			ctx = context.WithValue(ctx, requestSessionKey{}, rs)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type clientIPSetKey struct{}

// hasClientIP reports whether an adapter upstream already attached the client IP.
func hasClientIP(ctx context.Context) bool {
	v, _ := ctx.Value(clientIPSetKey{}).(bool)
	return v
}

func withClientIPSet(ctx context.Context, ip string) context.Context {
	ctx = goBoard.WithClientIP(ctx, ip)
	return context.WithValue(ctx, clientIPSetKey{}, true)
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
