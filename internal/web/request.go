package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/MrEthical07/goBoard/api"
	"github.com/MrEthical07/goBoard/middleware"
	"github.com/MrEthical07/goBoard/session"
	"github.com/gin-gonic/gin"
)

// store returns the request's session store. The Session middleware runs before every
// page handler, so a missing store is a wiring bug.
func store(c *gin.Context) *session.Store {
	rs, ok := middleware.FromContext(c.Request.Context())
	if !ok {
		panic("web: handler reached without session middleware")
	}
	return rs.Store
}

func (s *Server) authed(c *gin.Context) *api.Authed {
	return s.engine.API().For(store(c))
}

// sessionExpired reports whether err is a backend 401 and records it. The Authed
// client has already logged the session out; handlers return without writing and the
// guard answers with the sign-in redirect.
func (s *Server) sessionExpired(c *gin.Context, err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	s.engine.RecordUnauthorized(c.Request.Context(), c.Request.URL.Path, err)
	return true
}

// redirect issues a 303 to path with an optional notice flag.
func redirect(c *gin.Context, path, flag string) {
	if flag != "" {
		path += "?" + url.Values{flag: {"1"}}.Encode()
	}
	c.Redirect(http.StatusSeeOther, path)
}

// categories loads the category list for selects. A failure leaves the select empty.
func (s *Server) categories(c *gin.Context) []api.Category {
	cats, err := s.engine.API().Categories(c.Request.Context())
	if err != nil {
		s.logger.Warn("web: categories unavailable", "error", err)
		return nil
	}
	return cats
}
