package web

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goBoard/api"
	"github.com/gin-gonic/gin"
)

const companyDashboardPath = "/company-dashboard"

type companyDashboardData struct {
	Company api.Company
	Jobs    []api.Job
}

var companyNotices = [][2]string{
	{"saved", "Company profile saved."},
	{"posted", "The job was published."},
	{"updated", "The job was updated."},
	{"deleted", "The job was deleted."},
}

func (s *Server) companyDashboard(c *gin.Context) {
	s.renderCompanyDashboard(c, http.StatusOK, nil, view{})
}

// renderCompanyDashboard loads the company's jobs and, unless override is set, its
// profile.
func (s *Server) renderCompanyDashboard(c *gin.Context, status int, override *api.Company, v view) {
	ctx := c.Request.Context()
	a := s.authed(c)

	data := companyDashboardData{}
	if override != nil {
		data.Company = *override
	} else {
		company, err := a.MyCompany(ctx)
		if s.sessionExpired(c, err) {
			return
		}
		if err != nil && !errors.Is(err, api.ErrNotFound) {
			s.serverError(c, "The company profile could not be loaded.", err)
			return
		}
		data.Company = company
	}

	jobs, err := a.MyJobs(ctx)
	if s.sessionExpired(c, err) {
		return
	}
	if err != nil {
		s.serverError(c, "Your jobs could not be loaded.", err)
		return
	}
	data.Jobs = jobs

	for _, n := range companyNotices {
		if v.Notice == "" && c.Query(n[0]) != "" {
			v.Notice = n[1]
		}
	}
	v.Title = "Company dashboard"
	v.Data = data
	s.render(c, status, "company_dashboard", v)
}

func (s *Server) updateCompanyProfile(c *gin.Context) {
	defer closeUploads(c)

	if err := parseMultipart(c); err != nil {
		s.renderCompanyDashboard(c, http.StatusUnprocessableEntity, &api.Company{}, view{Error: formMessage(err)})
		return
	}
	in, logo, err := companyForm(c)
	if err != nil {
		s.renderCompanyDashboard(c, http.StatusUnprocessableEntity, &in, view{Error: formMessage(err)})
		return
	}

	ctx := c.Request.Context()
	res, err := s.authed(c).UpdateCompanyProfile(ctx, in, logo)
	if s.sessionExpired(c, err) {
		return
	}
	if err != nil {
		s.renderCompanyDashboard(c, http.StatusUnprocessableEntity, &in,
			view{Error: api.Message(err, "The profile could not be saved.")})
		return
	}
	if res.Identity != nil {
		store(c).Update(ctx, res.Identity.Token, res.Identity.DisplayName, res.Profile.LogoURL)
	}
	redirect(c, companyDashboardPath, "saved")
}

func (s *Server) deleteJob(c *gin.Context) {
	err := s.authed(c).DeleteJob(c.Request.Context(), c.Param("id"))
	if s.sessionExpired(c, err) {
		return
	}
	if err != nil {
		s.renderCompanyDashboard(c, http.StatusOK, nil, view{Error: api.Message(err, "The job could not be deleted.")})
		return
	}
	redirect(c, companyDashboardPath, "deleted")
}

type jobApplicantsData struct {
	JobID      string
	Applicants []api.Applicant
}

func (s *Server) jobApplicants(c *gin.Context) {
	id := c.Param("id")
	list, err := s.authed(c).JobApplicants(c.Request.Context(), id)
	switch {
	case err == nil:
		s.render(c, http.StatusOK, "job_applicants", view{
			Title: "Applicants for this job",
			Data:  jobApplicantsData{JobID: id, Applicants: list},
		})
	case s.sessionExpired(c, err):
	case errors.Is(err, api.ErrNotFound):
		s.notFound(c)
	default:
		s.serverError(c, "Applicants could not be loaded.", err)
	}
}

type jobFormData struct {
	JobID        string
	Job          api.JobInput
	Deadline     string
	Categories   []api.Category
	SalaryRanges []string
	JobTypes     []string
	Levels       []string
}

func (s *Server) renderJobForm(c *gin.Context, status int, id string, in api.JobInput, v view) {
	data := jobFormData{
		JobID:        id,
		Job:          in,
		Categories:   s.categories(c),
		SalaryRanges: salaryRanges,
		JobTypes:     jobTypes,
		Levels:       levels,
	}
	if !in.ApplicationDeadline.IsZero() {
		data.Deadline = in.ApplicationDeadline.Format(dateLayout)
	}
	if id == "" {
		v.Title = "Post a job"
	} else {
		v.Title = "Edit job"
	}
	v.Data = data
	s.render(c, status, "job_form", v)
}

func (s *Server) postJobPage(c *gin.Context) {
	s.renderJobForm(c, http.StatusOK, "", api.JobInput{}, view{})
}

func (s *Server) postJob(c *gin.Context) {
	in, err := jobForm(c)
	if err != nil {
		s.renderJobForm(c, http.StatusUnprocessableEntity, "", in, view{Error: formMessage(err)})
		return
	}
	_, err = s.authed(c).CreateJob(c.Request.Context(), in)
	if s.sessionExpired(c, err) {
		return
	}
	if err != nil {
		s.renderJobForm(c, http.StatusUnprocessableEntity, "", in, view{Error: api.Message(err, "The job could not be published.")})
		return
	}
	redirect(c, companyDashboardPath, "posted")
}

func (s *Server) editJobPage(c *gin.Context) {
	job, ok := s.loadJob(c)
	if !ok {
		return
	}
	in := api.JobInput{
		Title:           job.Title,
		Description:     job.Description,
		Category:        job.Category.ID,
		Location:        job.Location,
		SalaryRange:     job.SalaryRange,
		JobType:         job.JobType,
		ExperienceLevel: job.ExperienceLevel,
	}
	if job.ApplicationDeadline != nil {
		in.ApplicationDeadline = *job.ApplicationDeadline
	}
	s.renderJobForm(c, http.StatusOK, job.ID, in, view{})
}

func (s *Server) editJob(c *gin.Context) {
	id := c.Param("id")
	in, err := jobForm(c)
	if err != nil {
		s.renderJobForm(c, http.StatusUnprocessableEntity, id, in, view{Error: formMessage(err)})
		return
	}
	_, err = s.authed(c).UpdateJob(c.Request.Context(), id, in)
	if s.sessionExpired(c, err) {
		return
	}
	if err != nil {
		s.renderJobForm(c, http.StatusUnprocessableEntity, id, in, view{Error: api.Message(err, "The job could not be updated.")})
		return
	}
	redirect(c, companyDashboardPath, "updated")
}
