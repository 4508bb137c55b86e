package ginserver

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/harmonia/internal/adapters/http/ginserver/middlewares"
)

const statusTemplate = "status.html"

//go:embed templates/status.html
var templatesFS embed.FS

var pageTemplates = template.Must(template.New(statusTemplate).ParseFS(templatesFS, "templates/"+statusTemplate))

// NewRouter builds the gin engine. middlewares run before every route.
func NewRouter(h *Handler, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.RedirectTrailingSlash = false
	r.RemoveExtraSlash = true

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
	})
	r.SetHTMLTemplate(pageTemplates)

	r.GET("/ping", h.Ping)
	r.GET("/", h.Index)
	r.GET("/status", h.StatusPage)

	api := r.Group("/api", noStore())
	api.GET("/stats", h.Stats)
	api.GET("/commands", h.Commands)
	api.GET("/commands/search", h.SearchCommands)
	api.GET("/status", h.Status)
	api.GET("/health", h.Health)

	return r
}

func noStore() gin.HandlerFunc {
	return middlewares.NoStore(NoStore)
}
