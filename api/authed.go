package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MrEthical07/goBoard/session"
)

// SessionSource is the slice of a session store an Authed client needs.
type SessionSource interface {
	Current() session.Session
	Logout(ctx context.Context)
}

// Authed performs calls on behalf of one browser context's session.
type Authed struct {
	client *Client
	sess   SessionSource
}

// For binds the client to sess.
func (c *Client) For(sess SessionSource) *Authed {
	return &Authed{client: c, sess: sess}
}

// do sends the request with the current token. A 401 logs the session out before the
// error is returned.
func (a *Authed) do(ctx context.Context, r request) (*envelope, error) {
	r.token = a.sess.Current().Token
	env, err := a.client.do(ctx, r)
	if errors.Is(err, ErrUnauthorized) {
		a.sess.Logout(ctx)
	}
	return env, err
}

func (a *Authed) doJSON(ctx context.Context, method, path string, body, out any) (*envelope, error) {
	req, err := jsonRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	env, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := decodeData(env, out); err != nil {
		return nil, err
	}
	return env, nil
}

// Job fetches a posting with the session's token attached, so the backend can mark
// whether the caller already applied.
func (a *Authed) Job(ctx context.Context, id string) (Job, error) {
	var out Job
	_, err := a.doJSON(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Apply submits the signed-in applicant to a job.
func (a *Authed) Apply(ctx context.Context, jobID string) (string, error) {
	env, err := a.doJSON(ctx, http.MethodPost, "/jobs/"+url.PathEscape(jobID)+"/apply", struct{}{}, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (a *Authed) CreateJob(ctx context.Context, in JobInput) (Job, error) {
	var out Job
	_, err := a.doJSON(ctx, http.MethodPost, "/jobs", in, &out)
	return out, err
}

func (a *Authed) UpdateJob(ctx context.Context, id string, in JobInput) (Job, error) {
	var out Job
	_, err := a.doJSON(ctx, http.MethodPut, "/jobs/"+url.PathEscape(id), in, &out)
	return out, err
}

func (a *Authed) DeleteJob(ctx context.Context, id string) error {
	_, err := a.doJSON(ctx, http.MethodDelete, "/jobs/"+url.PathEscape(id), nil, nil)
	return err
}

// MyJobs lists the signed-in company's postings.
func (a *Authed) MyJobs(ctx context.Context) ([]Job, error) {
	var out []Job
	_, err := a.doJSON(ctx, http.MethodGet, "/jobs/company/myjobs", nil, &out)
	return out, err
}

// JobApplicants lists who applied to one of the company's jobs.
func (a *Authed) JobApplicants(ctx context.Context, jobID string) ([]Applicant, error) {
	var out []Applicant
	_, err := a.doJSON(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/applicants", nil, &out)
	return out, err
}

func (a *Authed) Applicants(ctx context.Context) ([]Applicant, error) {
	var out []Applicant
	_, err := a.doJSON(ctx, http.MethodGet, "/applicants", nil, &out)
	return out, err
}

func (a *Authed) Applicant(ctx context.Context, id string) (Applicant, error) {
	var out Applicant
	_, err := a.doJSON(ctx, http.MethodGet, "/applicants/"+url.PathEscape(id), nil, &out)
	return out, err
}

// MyApplicantProfile returns the signed-in applicant's own profile.
func (a *Authed) MyApplicantProfile(ctx context.Context) (Applicant, error) {
	var out Applicant
	_, err := a.doJSON(ctx, http.MethodGet, "/applicants/me", nil, &out)
	return out, err
}

// ApplicantProfileInput is the editable part of an applicant profile.
type ApplicantProfileInput struct {
	FirstName         string
	LastName          string
	Phone             string
	Category          string
	YearsOfExperience string
	About             string
	Skills            []string
	Education         []Education
	Experience        []Experience

	Resume         *Upload
	ProfilePicture *Upload
}

// UpdateApplicantProfile saves the profile as multipart form data. List fields travel as
// JSON-encoded form values.
func (a *Authed) UpdateApplicantProfile(ctx context.Context, in ApplicantProfileInput) (ProfileResult[Applicant], error) {
	fields := [][2]string{
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"phone", in.Phone},
		{"category", in.Category},
		{"yearsOfExperience", in.YearsOfExperience},
		{"about", in.About},
	}
	for _, lf := range []struct {
		name  string
		value any
	}{
		{"skills", nonNil(in.Skills)},
		{"education", nonNil(in.Education)},
		{"experience", nonNil(in.Experience)},
	} {
		data, err := json.Marshal(lf.value)
		if err != nil {
			return ProfileResult[Applicant]{}, fmt.Errorf("api: encode %s: %w", lf.name, err)
		}
		fields = append(fields, [2]string{lf.name, string(data)})
	}

	var files []Upload
	if in.Resume != nil {
		up := *in.Resume
		up.Field = "resume"
		files = append(files, up)
	}
	if in.ProfilePicture != nil {
		up := *in.ProfilePicture
		up.Field = "profilePicture"
		files = append(files, up)
	}
	return updateProfile[Applicant](ctx, a, "/applicants/profile", fields, files)
}

// MyCompany returns the signed-in company's profile.
func (a *Authed) MyCompany(ctx context.Context) (Company, error) {
	var out Company
	_, err := a.doJSON(ctx, http.MethodGet, "/companies/me", nil, &out)
	return out, err
}

// UpdateCompanyProfile saves the profile as multipart form data with an optional logo.
func (a *Authed) UpdateCompanyProfile(ctx context.Context, in Company, logo *Upload) (ProfileResult[Company], error) {
	fields := [][2]string{
		{"companyName", in.CompanyName},
		{"industry", in.Industry},
		{"description", in.Description},
		{"address", in.Address},
		{"website", in.Website},
		{"phone", in.Phone},
		{"establishedYear", in.EstablishedYear.String()},
	}
	var files []Upload
	if logo != nil {
		up := *logo
		up.Field = "logo"
		files = append(files, up)
	}
	return updateProfile[Company](ctx, a, "/companies/profile", fields, files)
}

func updateProfile[T any](ctx context.Context, a *Authed, path string, fields [][2]string, files []Upload) (ProfileResult[T], error) {
	req, err := multipartRequest(http.MethodPut, path, fields, files)
	if err != nil {
		return ProfileResult[T]{}, err
	}
	env, err := a.do(ctx, req)
	if err != nil {
		return ProfileResult[T]{}, err
	}
	res := ProfileResult[T]{Message: env.Message, Identity: env.User}
	if err := decodeData(env, &res.Profile); err != nil {
		return ProfileResult[T]{}, err
	}
	return res, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
