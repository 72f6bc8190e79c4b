package handlers

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"roster-dashboard-go/dashboard"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"isKind": func(m dashboard.Modal, kind string) bool {
		return string(m.Kind) == kind
	},
	"selected": func(current, option string) bool {
		return current == option
	},
}

// Templates parses the embedded page templates. html/template escapes every
// interpolated value by context, so record text cannot inject markup.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// NewRouter builds the gin engine serving the dashboard
func NewRouter(h *DashboardHandler) (*gin.Engine, error) {
	tmpl, err := Templates()
	if err != nil {
		return nil, err
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	router.SetHTMLTemplate(tmpl)
	h.RegisterRoutes(router)
	return router, nil
}
