package main

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Zachkp/portfolio/internal/metrics"
	"github.com/Zachkp/portfolio/internal/portfolio"
	"github.com/Zachkp/portfolio/internal/session"
	"github.com/Zachkp/portfolio/internal/view"
	"github.com/Zachkp/portfolio/internal/visits"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var formFields = []string{
	portfolio.FieldName,
	portfolio.FieldEmail,
	portfolio.FieldSubject,
	portfolio.FieldMessage,
}

// site holds what the HTTP handlers share.
type site struct {
	controller *view.Controller
	visits     *visits.Store
	admin      *adminAuth
	sessionTTL time.Duration
	retention  time.Duration
}

// pageData is the root object of every page template.
type pageData struct {
	Page view.Page
	Copy siteCopy
}

func loadTemplates() (*template.Template, error) {
	return template.New("").
		Funcs(template.FuncMap{"initials": initials}).
		ParseFS(templatesFS, "templates/*.html")
}

func newRouter(s *site) (*gin.Engine, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	r := gin.Default()
	r.SetHTMLTemplate(tmpl)
	r.Use(metrics.Middleware("/metrics"))
	r.Use(s.visitorTrackingMiddleware())

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	r.StaticFS("/static", http.FS(static))

	// Full page: fresh data on every load, the contact form carries over
	r.GET("/", s.home)

	// HTMX project grid, re-filtered
	r.GET("/projects", s.projects)

	// HTMX two-way binding of single contact fields
	r.POST("/contact/field", s.bindField)

	// Contact form submission
	r.POST("/contact", s.submit)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})))

	setupAdminRoutes(r, s)
	return r, nil
}

func (s *site) home(c *gin.Context) {
	ctx := c.Request.Context()
	id, state, err := s.controller.Reload(ctx, s.sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if filter := c.Query("filter"); filter != "" {
		if id, state, err = s.controller.SetFilter(ctx, id, filter); err != nil {
			s.fail(c, err)
			return
		}
	}

	s.setSession(c, id)
	c.HTML(http.StatusOK, "index.html", s.data(state))
}

func (s *site) projects(c *gin.Context) {
	id, state, err := s.controller.SetFilter(c.Request.Context(), s.sessionID(c), c.Query("filter"))
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setSession(c, id)
	c.HTML(http.StatusOK, "projects.html", s.data(state))
}

func (s *site) bindField(c *gin.Context) {
	ctx := c.Request.Context()
	id := s.sessionID(c)
	bound := false
	var err error

	for _, field := range formFields {
		value, ok := c.GetPostForm(field)
		if !ok {
			continue
		}
		if id, _, err = s.controller.UpdateField(ctx, id, field, value); err != nil {
			s.fail(c, err)
			return
		}
		bound = true
	}

	if !bound {
		c.Status(http.StatusBadRequest)
		return
	}
	s.setSession(c, id)
	c.Status(http.StatusNoContent)
}

func (s *site) submit(c *gin.Context) {
	fields := make(map[string]string, len(formFields))
	for _, field := range formFields {
		if value, ok := c.GetPostForm(field); ok {
			fields[field] = value
		}
	}

	id, state, err := s.controller.Submit(c.Request.Context(), s.sessionID(c), fields)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.setSession(c, id)
	if c.GetHeader("HX-Request") == "true" {
		c.HTML(http.StatusOK, "contact-form.html", s.data(state))
		return
	}
	// Plain form post: back to the page so a refresh does not post again.
	c.Redirect(http.StatusSeeOther, "/#contact")
}

func (s *site) data(state view.State) pageData {
	return pageData{Page: s.controller.Page(state), Copy: SiteCopy}
}

func (s *site) sessionID(c *gin.Context) string {
	id, err := c.Cookie(session.CookieName)
	if err != nil {
		return ""
	}
	return id
}

func (s *site) setSession(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, id, int(s.sessionTTL/time.Second), "/", "", false, true)
}

func (s *site) fail(c *gin.Context, err error) {
	slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"error": "Sorry, the page could not be loaded. Please try again later.",
	})
}
