package web

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goBoard/api"
	"github.com/MrEthical07/goBoard/middleware"
	"github.com/MrEthical07/goBoard/permission"
	"github.com/gin-gonic/gin"
)

const (
	modeLogin    = "login"
	modeRegister = "register"
	modeForgot   = "forgot"
)

type authData struct {
	Mode       string
	Next       string
	Email      string
	Categories []api.Category
	Form       api.Registration
}

func authMode(m string) string {
	switch m {
	case modeRegister, modeForgot:
		return m
	}
	return modeLogin
}

func (s *Server) authPage(c *gin.Context) {
	v := view{}
	switch {
	case c.Query("expired") != "":
		v.Notice = "Your session has expired. Please sign in again."
	case c.Query("reset") != "":
		v.Notice = "Your password was changed. You can now sign in."
	}
	s.renderAuth(c, http.StatusOK, authData{Mode: authMode(c.Query("mode")), Next: c.Query("next")}, v)
}

func (s *Server) renderAuth(c *gin.Context, status int, data authData, v view) {
	if data.Mode == modeRegister {
		data.Categories = s.categories(c)
	}
	switch data.Mode {
	case modeRegister:
		v.Title = "Create an account"
	case modeForgot:
		v.Title = "Forgot password"
	default:
		v.Title = "Sign in"
	}
	v.Data = data
	s.render(c, status, "auth", v)
}

func (s *Server) login(c *gin.Context) {
	email := field(c, "email")
	data := authData{Mode: modeLogin, Next: c.PostForm("next"), Email: email}

	ctx := c.Request.Context()
	if err := s.engine.CheckLogin(ctx, email); err != nil {
		s.renderAuth(c, http.StatusTooManyRequests, data, view{Error: "Too many failed attempts. Try again later."})
		return
	}

	id, err := s.engine.API().Login(ctx, email, c.PostForm("password"))
	if err != nil {
		if isClientError(err) {
			s.engine.LoginFailed(ctx, email)
		}
		s.renderAuth(c, http.StatusOK, data, view{Error: api.Message(err, "Sign in failed.")})
		return
	}
	s.engine.LoginSucceeded(ctx, email)
	role, err := permission.ParseRole(id.Role)
	if err != nil || role == permission.Anonymous {
		s.logger.Warn("web: login returned unusable role", "role", id.Role)
		s.renderAuth(c, http.StatusOK, data, view{Error: "This account cannot sign in here."})
		return
	}

	store(c).Login(ctx, id.Token, role, id.DisplayName, id.ProfilePicture)
	c.Redirect(http.StatusSeeOther, middleware.SafeNext(data.Next, s.engine.Routes().Paths.Home))
}

func (s *Server) register(c *gin.Context) {
	reg, err := registrationForm(c)
	data := authData{Mode: modeRegister, Email: reg.Email, Form: reg}
	if err != nil {
		s.renderAuth(c, http.StatusOK, data, view{Error: formMessage(err)})
		return
	}

	msg, err := s.engine.API().Register(c.Request.Context(), reg)
	if err != nil {
		s.renderAuth(c, http.StatusOK, data, view{Error: api.Message(err, "Registration failed.")})
		return
	}
	if msg == "" {
		msg = "Registration complete."
	}
	s.renderAuth(c, http.StatusOK, authData{Mode: modeLogin, Email: reg.Email},
		view{Notice: msg + " You can now sign in."})
}

func (s *Server) forgotPassword(c *gin.Context) {
	email := field(c, "email")
	data := authData{Mode: modeForgot, Email: email}
	if email == "" {
		s.renderAuth(c, http.StatusOK, data, view{Error: "Enter your email address."})
		return
	}
	msg, err := s.engine.API().ForgotPassword(c.Request.Context(), email)
	if err != nil {
		s.renderAuth(c, http.StatusOK, data, view{Error: api.Message(err, "The reset email could not be sent.")})
		return
	}
	if msg == "" {
		msg = "Check your inbox for a reset link."
	}
	s.renderAuth(c, http.StatusOK, data, view{Notice: msg})
}

func (s *Server) resetPasswordPage(c *gin.Context) {
	s.render(c, http.StatusOK, "reset_password", view{Title: "Reset password", Data: c.Param("token")})
}

func (s *Server) resetPassword(c *gin.Context) {
	token := c.Param("token")
	password, err := resetForm(c)
	if err != nil {
		s.render(c, http.StatusOK, "reset_password", view{Title: "Reset password", Data: token, Error: formMessage(err)})
		return
	}
	if _, err := s.engine.API().ResetPassword(c.Request.Context(), token, password); err != nil {
		s.render(c, http.StatusOK, "reset_password", view{
			Title: "Reset password",
			Data:  token,
			Error: api.Message(err, "The password could not be reset."),
		})
		return
	}
	redirect(c, s.engine.Routes().Paths.Auth, "reset")
}

func (s *Server) logout(c *gin.Context) {
	store(c).Logout(c.Request.Context())
	c.Redirect(http.StatusSeeOther, s.engine.Routes().Paths.Home)
}

// isClientError reports whether the backend rejected the request itself, as it does
// for wrong credentials, rather than failing.
func isClientError(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}
