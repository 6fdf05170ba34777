package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/goBoard/api"
	"github.com/gin-gonic/gin"
)

type applicantDashboardData struct {
	Profile        api.Applicant
	Categories     []api.Category
	Skills         string
	EducationJSON  string
	ExperienceJSON string
}

func newApplicantDashboardData(p api.Applicant, cats []api.Category) applicantDashboardData {
	edu, _ := json.Marshal(nonNilSlice(p.Education))
	exp, _ := json.Marshal(nonNilSlice(p.Experience))
	return applicantDashboardData{
		Profile:        p,
		Categories:     cats,
		Skills:         strings.Join(p.Skills, ", "),
		EducationJSON:  string(edu),
		ExperienceJSON: string(exp),
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) applicantDashboard(c *gin.Context) {
	profile, err := s.authed(c).MyApplicantProfile(c.Request.Context())
	if s.sessionExpired(c, err) {
		return
	}
	v := view{Title: "My profile"}
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		s.serverError(c, "Your profile could not be loaded.", err)
		return
	}
	if c.Query("saved") != "" {
		v.Notice = "Profile saved."
	}
	v.Data = newApplicantDashboardData(profile, s.categories(c))
	s.render(c, http.StatusOK, "applicant_dashboard", v)
}

// updateApplicantProfile saves the profile. When the backend reissues the identity the
// session picks up the new token, name and picture.
func (s *Server) updateApplicantProfile(c *gin.Context) {
	defer closeUploads(c)

	in, err := s.readApplicantForm(c)
	if err != nil {
		s.applicantFormError(c, in, formMessage(err))
		return
	}

	ctx := c.Request.Context()
	res, err := s.authed(c).UpdateApplicantProfile(ctx, in)
	if s.sessionExpired(c, err) {
		return
	}
	if err != nil {
		s.applicantFormError(c, in, api.Message(err, "The profile could not be saved."))
		return
	}
	if res.Identity != nil {
		store(c).Update(ctx, res.Identity.Token, res.Identity.DisplayName, res.Identity.ProfilePicture)
	}
	redirect(c, "/applicant-dashboard", "saved")
}

func (s *Server) readApplicantForm(c *gin.Context) (api.ApplicantProfileInput, error) {
	if err := parseMultipart(c); err != nil {
		return api.ApplicantProfileInput{}, err
	}
	return applicantForm(c)
}

// applicantFormError re-renders the dashboard with the submitted values.
func (s *Server) applicantFormError(c *gin.Context, in api.ApplicantProfileInput, msg string) {
	p := api.Applicant{
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Phone:             in.Phone,
		YearsOfExperience: api.Text(in.YearsOfExperience),
		About:             in.About,
		Skills:            in.Skills,
		Education:         in.Education,
		Experience:        in.Experience,
	}
	p.Category.ID = in.Category
	s.render(c, http.StatusUnprocessableEntity, "applicant_dashboard", view{
		Title: "My profile",
		Error: msg,
		Data:  newApplicantDashboardData(p, s.categories(c)),
	})
}

func (s *Server) applicantList(c *gin.Context) {
	list, err := s.authed(c).Applicants(c.Request.Context())
	if s.sessionExpired(c, err) {
		return
	}
	if err != nil {
		s.serverError(c, "Applicants could not be loaded.", err)
		return
	}
	s.render(c, http.StatusOK, "applicants", view{Title: "Applicants", Data: list})
}

func (s *Server) applicantDetail(c *gin.Context) {
	a, err := s.authed(c).Applicant(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		s.render(c, http.StatusOK, "applicant", view{Title: a.FullName(), Data: a})
	case s.sessionExpired(c, err):
	case errors.Is(err, api.ErrNotFound):
		s.notFound(c)
	default:
		s.serverError(c, "The applicant could not be loaded.", err)
	}
}
