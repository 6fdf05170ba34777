package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goBoard/api"
	"github.com/gin-gonic/gin"
)

const (
	dateLayout         = "2006-01-02"
	minPasswordLength  = 6
	maxUploadFormBytes = 10 << 20
)

// Select options the backend accepts for job postings.
var (
	salaryRanges = []string{"Müzakirə yolu ilə", "1-500 AZN", "501-1000 AZN", "1001-2000 AZN", "2001-3000 AZN", "3000+ AZN"}
	jobTypes     = []string{"Tam İş Günü", "Yarım İş Günü", "Freelance", "Müvəqqəti", "Praktika"}
	levels       = []string{"Təcrübəsiz", "Junior", "Mid-Level", "Senior", "Lead"}
)

var errFormInvalid = errors.New("invalid form")

func formError(msg string) error {
	return fmt.Errorf("%w: %s", errFormInvalid, msg)
}

// formMessage returns the user-facing part of a form validation error.
func formMessage(err error) string {
	return strings.TrimPrefix(err.Error(), errFormInvalid.Error()+": ")
}

func field(c *gin.Context, name string) string {
	return strings.TrimSpace(c.PostForm(name))
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

// jobForm reads a post-job or edit-job submission.
func jobForm(c *gin.Context) (api.JobInput, error) {
	in := api.JobInput{
		Title:           field(c, "title"),
		Description:     field(c, "description"),
		Category:        field(c, "category"),
		Location:        field(c, "location"),
		SalaryRange:     field(c, "salaryRange"),
		JobType:         field(c, "jobType"),
		ExperienceLevel: field(c, "experienceLevel"),
	}
	if in.Title == "" || in.Description == "" || in.Category == "" || in.Location == "" {
		return in, formError("Title, description, category and location are required.")
	}
	if !oneOf(in.SalaryRange, salaryRanges) || !oneOf(in.JobType, jobTypes) || !oneOf(in.ExperienceLevel, levels) {
		return in, formError("Choose a salary range, job type and experience level from the lists.")
	}
	deadline, err := time.Parse(dateLayout, field(c, "applicationDeadline"))
	if err != nil {
		return in, formError("Application deadline is not a valid date.")
	}
	in.ApplicationDeadline = deadline
	return in, nil
}

// applicantForm reads the applicant profile form. Education and experience lists
// round-trip through hidden JSON fields; entries can be removed by index and one new
// entry of each kind can be appended per submission.
func applicantForm(c *gin.Context) (api.ApplicantProfileInput, error) {
	in := api.ApplicantProfileInput{
		FirstName:         field(c, "firstName"),
		LastName:          field(c, "lastName"),
		Phone:             field(c, "phone"),
		Category:          field(c, "category"),
		YearsOfExperience: field(c, "yearsOfExperience"),
		About:             field(c, "about"),
		Skills:            splitSkills(c.PostForm("skills")),
	}
	if in.FirstName == "" || in.LastName == "" {
		return in, formError("First and last name are required.")
	}
	if in.YearsOfExperience != "" {
		if n, err := strconv.Atoi(in.YearsOfExperience); err != nil || n < 0 {
			return in, formError("Years of experience must be a whole number.")
		}
	}

	var err error
	if in.Education, err = decodeList[api.Education](c, "education"); err != nil {
		return in, err
	}
	if in.Experience, err = decodeList[api.Experience](c, "experience"); err != nil {
		return in, err
	}

	if inst := field(c, "newEducationInstitution"); inst != "" {
		in.Education = append(in.Education, api.Education{
			Institution:  inst,
			Degree:       field(c, "newEducationDegree"),
			FieldOfStudy: field(c, "newEducationField"),
			StartYear:    api.Text(field(c, "newEducationStart")),
			EndYear:      api.Text(field(c, "newEducationEnd")),
		})
	}
	if title := field(c, "newExperienceTitle"); title != "" {
		exp := api.Experience{
			JobTitle:    title,
			CompanyName: field(c, "newExperienceCompany"),
			StartDate:   field(c, "newExperienceStart"),
			EndDate:     field(c, "newExperienceEnd"),
			IsCurrent:   c.PostForm("newExperienceCurrent") != "",
			Description: field(c, "newExperienceDescription"),
		}
		if exp.IsCurrent {
			exp.EndDate = ""
		}
		in.Experience = append(in.Experience, exp)
	}

	if in.Resume, err = upload(c, "resume"); err != nil {
		return in, err
	}
	if in.ProfilePicture, err = upload(c, "profilePicture"); err != nil {
		return in, err
	}
	return in, nil
}

func splitSkills(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeList reads the JSON list in the hidden field name and drops the indexes
// listed in remove_<name>.
func decodeList[T any](c *gin.Context, name string) ([]T, error) {
	var list []T
	if raw := strings.TrimSpace(c.PostForm(name)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, formError("The " + name + " list could not be read. Reload the page and try again.")
		}
	}
	drop := make(map[int]bool)
	for _, v := range c.PostFormArray("remove_" + name) {
		if i, err := strconv.Atoi(v); err == nil {
			drop[i] = true
		}
	}
	out := list[:0]
	for i, item := range list {
		if !drop[i] {
			out = append(out, item)
		}
	}
	return out, nil
}

func companyForm(c *gin.Context) (api.Company, *api.Upload, error) {
	in := api.Company{
		CompanyName:     field(c, "companyName"),
		Industry:        field(c, "industry"),
		Description:     field(c, "description"),
		Address:         field(c, "address"),
		Website:         field(c, "website"),
		Phone:           field(c, "phone"),
		EstablishedYear: api.Text(field(c, "establishedYear")),
	}
	if in.CompanyName == "" {
		return in, nil, formError("Company name is required.")
	}
	logo, err := upload(c, "logo")
	return in, logo, err
}

// upload returns the file part name, or nil when none was sent. The part is buffered
// by the multipart reader, so its body stays valid for the rest of the request.
func upload(c *gin.Context, name string) (*api.Upload, error) {
	fh, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, formError("The uploaded " + name + " could not be read.")
	}
	if fh.Size == 0 {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, formError("The uploaded " + name + " could not be read.")
	}
	closeAfter(c, f)
	return &api.Upload{
		Field:       name,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, nil
}

func closeAfter(c *gin.Context, f multipart.File) {
	if v, ok := c.Get(openFilesKey); ok {
		c.Set(openFilesKey, append(v.([]multipart.File), f))
		return
	}
	c.Set(openFilesKey, []multipart.File{f})
}

const openFilesKey = "web.openFiles"

// closeUploads closes files opened by upload. Deferred by multipart handlers.
func closeUploads(c *gin.Context) {
	if v, ok := c.Get(openFilesKey); ok {
		for _, f := range v.([]multipart.File) {
			_ = f.Close()
		}
	}
}

// parseMultipart bounds the request body before the form is read.
func parseMultipart(c *gin.Context) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadFormBytes)
	if err := c.Request.ParseMultipartForm(maxUploadFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return formError("The form is too large or malformed.")
	}
	return nil
}

// resetForm validates the new-password pair.
func resetForm(c *gin.Context) (string, error) {
	password := c.PostForm("password")
	if len([]rune(password)) < minPasswordLength {
		return "", formError(fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}
	if password != c.PostForm("confirmPassword") {
		return "", formError("Passwords do not match.")
	}
	return password, nil
}

func registrationForm(c *gin.Context) (api.Registration, error) {
	reg := api.Registration{
		Email:    field(c, "email"),
		Password: c.PostForm("password"),
		Role:     field(c, "role"),
	}
	if reg.Email == "" || reg.Password == "" {
		return reg, formError("Email and password are required.")
	}
	switch reg.Role {
	case "applicant":
		reg.FirstName = field(c, "firstName")
		reg.LastName = field(c, "lastName")
		reg.Phone = field(c, "phone")
		reg.Category = field(c, "category")
		reg.YearsOfExperience = field(c, "yearsOfExperience")
		reg.About = field(c, "about")
		if reg.Category == "" {
			return reg, formError("Choose a category.")
		}
	case "company":
		reg.CompanyName = field(c, "companyName")
		reg.Industry = field(c, "industry")
		reg.Description = field(c, "description")
		reg.Address = field(c, "address")
		reg.Website = field(c, "website")
		reg.CompanyPhone = field(c, "companyPhone")
		reg.EstablishedYear = field(c, "establishedYear")
		if reg.CompanyName == "" {
			return reg, formError("Company name is required.")
		}
	default:
		return reg, formError("Choose whether you are an applicant or a company.")
	}
	return reg, nil
}
