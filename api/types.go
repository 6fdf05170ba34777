package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Text decodes a JSON string, number or null into a string. The backend is not
// consistent about numeric fields such as yearsOfExperience.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// Int parses the text as an integer, returning 0 when it is not one.
func (t Text) Int() int {
	n, _ := strconv.Atoi(string(t))
	return n
}

// Category is a job category.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// CategoryRef is a category that may arrive populated or as a bare id.
type CategoryRef struct {
	Category
}

func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, &r.Category)
}

func (r CategoryRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// Company is an employer profile.
type Company struct {
	ID              string `json:"_id,omitempty"`
	CompanyName     string `json:"companyName"`
	Industry        string `json:"industry,omitempty"`
	Description     string `json:"description,omitempty"`
	Address         string `json:"address,omitempty"`
	Website         string `json:"website,omitempty"`
	Phone           string `json:"phone,omitempty"`
	EstablishedYear Text   `json:"establishedYear,omitempty"`
	LogoURL         string `json:"logoUrl,omitempty"`
}

// CompanyRef is a company that may arrive populated or as a bare id.
type CompanyRef struct {
	Company
}

func (r *CompanyRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, &r.Company)
}

// Job is a posting.
type Job struct {
	ID                  string            `json:"_id"`
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	Category            CategoryRef       `json:"category"`
	Company             CompanyRef        `json:"company"`
	Location            string            `json:"location"`
	SalaryRange         string            `json:"salaryRange"`
	JobType             string            `json:"jobType"`
	ExperienceLevel     string            `json:"experienceLevel"`
	ApplicationDeadline *time.Time        `json:"applicationDeadline,omitempty"`
	Applicants          []json.RawMessage `json:"applicants,omitempty"`
	CreatedAt           *time.Time        `json:"createdAt,omitempty"`
}

// ApplicantCount returns how many applications the job has received.
func (j Job) ApplicantCount() int {
	return len(j.Applicants)
}

// JobInput is the body of job create and update calls.
type JobInput struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Category            string    `json:"category"`
	Location            string    `json:"location"`
	SalaryRange         string    `json:"salaryRange"`
	JobType             string    `json:"jobType"`
	ExperienceLevel     string    `json:"experienceLevel"`
	ApplicationDeadline time.Time `json:"applicationDeadline"`
}

// JobQuery filters the public job list.
type JobQuery struct {
	Search   string
	Category string
}

type Education struct {
	Institution  string `json:"institution"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	StartYear    Text   `json:"startYear"`
	EndYear      Text   `json:"endYear"`
}

type Experience struct {
	JobTitle    string `json:"jobTitle"`
	CompanyName string `json:"companyName"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	IsCurrent   bool   `json:"isCurrent"`
	Description string `json:"description,omitempty"`
}

// Applicant is a job seeker profile.
type Applicant struct {
	ID                string       `json:"_id"`
	FirstName         string       `json:"firstName"`
	LastName          string       `json:"lastName"`
	Phone             string       `json:"phone"`
	Category          CategoryRef  `json:"category"`
	YearsOfExperience Text         `json:"yearsOfExperience"`
	About             string       `json:"about"`
	Skills            []string     `json:"skills"`
	Education         []Education  `json:"education"`
	Experience        []Experience `json:"experience"`
	Resume            string       `json:"resume,omitempty"`
	ProfilePicture    string       `json:"profilePicture,omitempty"`
}

// FullName joins first and last name.
func (a Applicant) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}

// Identity is the signed-in user as returned by login and profile updates.
type Identity struct {
	Token          string `json:"token"`
	Role           string `json:"role"`
	DisplayName    string `json:"displayName"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Registration is the register form. Applicant fields apply when Role is "applicant",
// company fields when Role is "company".
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`

	FirstName         string `json:"firstName,omitempty"`
	LastName          string `json:"lastName,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Category          string `json:"category,omitempty"`
	YearsOfExperience string `json:"yearsOfExperience,omitempty"`
	About             string `json:"about,omitempty"`

	CompanyName     string `json:"companyName,omitempty"`
	Industry        string `json:"industry,omitempty"`
	Description     string `json:"description,omitempty"`
	Address         string `json:"address,omitempty"`
	Website         string `json:"website,omitempty"`
	CompanyPhone    string `json:"companyPhone,omitempty"`
	EstablishedYear string `json:"establishedYear,omitempty"`
}

// ProfileResult is the outcome of a profile update: the saved profile plus, when the
// backend reissued it, the refreshed identity.
type ProfileResult[T any] struct {
	Message  string
	Profile  T
	Identity *Identity
}

type envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	User    *Identity       `json:"user,omitempty"`

	// Login answers with the identity at the top level.
	Token       string `json:"token,omitempty"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}
