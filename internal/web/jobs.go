package web

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goBoard/api"
	"github.com/MrEthical07/goBoard/permission"
	"github.com/gin-gonic/gin"
)

type homeData struct {
	Jobs       []api.Job
	Categories []api.Category
	Search     string
	Category   string
}

func (s *Server) home(c *gin.Context) {
	q := api.JobQuery{Search: c.Query("search"), Category: c.Query("category")}
	data := homeData{Search: q.Search, Category: q.Category, Categories: s.categories(c)}

	v := view{Title: "Jobs", Data: &data}
	jobs, err := s.engine.API().Jobs(c.Request.Context(), q)
	if err != nil {
		s.logger.Warn("web: job list unavailable", "error", err)
		v.Error = "Job postings could not be loaded."
	}
	data.Jobs = jobs
	s.render(c, http.StatusOK, "home", v)
}

type jobData struct {
	Job      api.Job
	CanApply bool
}

// loadJob fetches a posting, with the token attached when signed in. It reports false
// after writing a response.
func (s *Server) loadJob(c *gin.Context) (api.Job, bool) {
	var (
		job api.Job
		err error
	)
	ctx := c.Request.Context()
	if store(c).Current().IsAnonymous() {
		job, err = s.engine.API().Job(ctx, c.Param("id"))
	} else {
		job, err = s.authed(c).Job(ctx, c.Param("id"))
		if s.sessionExpired(c, err) {
			// Postings are public; show it to the now signed-out visitor.
			job, err = s.engine.API().Job(ctx, c.Param("id"))
		}
	}
	switch {
	case err == nil:
		return job, true
	case errors.Is(err, api.ErrNotFound):
		s.notFound(c)
	default:
		s.serverError(c, "The job could not be loaded.", err)
	}
	return api.Job{}, false
}

func (s *Server) jobDetail(c *gin.Context) {
	job, ok := s.loadJob(c)
	if !ok {
		return
	}
	s.renderJob(c, job, view{})
}

func (s *Server) renderJob(c *gin.Context, job api.Job, v view) {
	sess := store(c).Current()
	v.Title = job.Title
	v.Data = jobData{Job: job, CanApply: !sess.IsAnonymous() && sess.Role == permission.Applicant}
	s.render(c, http.StatusOK, "job", v)
}

// apply submits the application and re-renders the posting with the backend's answer.
func (s *Server) apply(c *gin.Context) {
	msg, err := s.authed(c).Apply(c.Request.Context(), c.Param("id"))
	if s.sessionExpired(c, err) {
		return
	}
	v := view{Notice: msg}
	if err != nil {
		v = view{Error: api.Message(err, "The application could not be sent.")}
	} else if v.Notice == "" {
		v.Notice = "Your application was sent."
	}

	job, ok := s.loadJob(c)
	if !ok {
		return
	}
	s.renderJob(c, job, v)
}
