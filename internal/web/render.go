package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goBoard/middleware"
	"github.com/MrEthical07/goBoard/permission"
	"github.com/MrEthical07/goBoard/session"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("02.01.2006")
	},
	"join": strings.Join,
	"isRole": func(s session.Session, name string) bool {
		r, err := permission.ParseRole(name)
		return err == nil && !s.IsAnonymous() && s.Role == r
	},
	"selected": func(a, b string) template.HTMLAttr {
		if a == b {
			return "selected"
		}
		return ""
	},
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}
	return t, nil
}

// view is the data every page template receives.
type view struct {
	Title   string
	Session session.Session
	Notice  string
	Error   string
	Path    string
	Data    any
}

func (s *Server) render(c *gin.Context, status int, page string, v view) {
	v.Session = session.Anonymous()
	if rs, ok := middleware.FromContext(c.Request.Context()); ok {
		v.Session = rs.Store.Current()
	}
	v.Path = c.Request.URL.Path
	c.Header("Cache-Control", "no-store")
	c.HTML(status, page+".html", v)
}

func (s *Server) notFound(c *gin.Context) {
	s.render(c, http.StatusNotFound, "not_found", view{Title: "Page not found"})
}

// serverError renders the generic failure page and logs err.
func (s *Server) serverError(c *gin.Context, msg string, err error) {
	s.logger.Error("web: "+msg, "path", c.Request.URL.Path, "error", err)
	s.render(c, http.StatusBadGateway, "error", view{Title: "Something went wrong", Error: msg})
}
