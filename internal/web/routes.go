package web

import (
	"net/http"

	"github.com/MrEthical07/goBoard/guard"
	"github.com/MrEthical07/goBoard/middleware"
	"github.com/MrEthical07/goBoard/permission"
	"github.com/gin-gonic/gin"
)

func (s *Server) routes() {
	r := s.router

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(s.metrics))

	sessionMW := middleware.Gin(middleware.Session(s.engine))
	pages := r.Group("/", sessionMW, middleware.Gin(middleware.Guard(s.engine)))

	// Public
	pages.GET("/", s.home)
	pages.GET("/jobs/:id", s.jobDetail)
	pages.GET("/auth", s.authPage)
	pages.POST("/auth/login", s.login)
	pages.POST("/auth/register", s.register)
	pages.POST("/auth/forgot-password", s.forgotPassword)
	pages.GET("/reset-password/:token", s.resetPasswordPage)
	pages.POST("/reset-password/:token", s.resetPassword)
	pages.POST("/logout", s.logout)

	pages.POST("/jobs/:id/apply",
		s.require(guard.Policy{RequireAuth: true, AllowedRoles: permission.NewRoleSet(permission.Applicant)}),
		s.apply)

	// Authenticated
	pages.GET("/applicants", s.applicantList)
	pages.GET("/applicants/:id", s.applicantDetail)

	// Applicant
	pages.GET("/applicant-dashboard", s.applicantDashboard)
	pages.POST("/applicant-dashboard/profile", s.requireAs("/applicant-dashboard"), s.updateApplicantProfile)

	// Company
	pages.GET("/company-dashboard", s.companyDashboard)
	pages.POST("/company-dashboard/profile", s.requireAs("/company-dashboard"), s.updateCompanyProfile)
	pages.POST("/company-dashboard/jobs/:id/delete", s.requireAs("/company-dashboard"), s.deleteJob)
	pages.GET("/company-dashboard/jobs/:id/applicants", s.requireAs("/company-dashboard"), s.jobApplicants)
	pages.GET("/post-job", s.postJobPage)
	pages.POST("/post-job", s.postJob)
	pages.GET("/edit-job/:id", s.editJobPage)
	pages.POST("/edit-job/:id", s.editJob)

	// Admin
	pages.GET("/admin-dashboard", s.adminDashboard)

	r.NoRoute(sessionMW, s.notFound)
}

// require enforces p on a form action outside the route table.
func (s *Server) require(p guard.Policy) gin.HandlerFunc {
	return middleware.Gin(middleware.Require(s.engine, p))
}

// requireAs enforces the policy the route table declares for pattern, so sub-actions
// of a page follow the page's rules.
func (s *Server) requireAs(pattern string) gin.HandlerFunc {
	p, ok := s.engine.Routes().Policy(pattern)
	if !ok {
		p = guard.Authenticated()
	}
	return s.require(p)
}

func (s *Server) healthz(c *gin.Context) {
	if err := s.engine.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
