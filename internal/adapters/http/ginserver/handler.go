package ginserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vshulcz/harmonia/internal/domain"
	"github.com/vshulcz/harmonia/internal/services/dashboard"
	"github.com/vshulcz/harmonia/internal/services/proxy"
	"github.com/vshulcz/harmonia/internal/services/stats"
)

// NoStore is the Cache-Control value of every proxied document.
const NoStore = "no-store, max-age=0"

const (
	statsFailure    = "Failed to fetch stats"
	commandsFailure = "Failed to fetch commands"
)

// Proxy fetches upstream documents on demand.
type Proxy interface {
	Stats(ctx context.Context) ([]byte, error)
	Commands(ctx context.Context) ([]byte, error)
	SearchCommands(ctx context.Context, category, term string) (proxy.Catalog, error)
}

// StateSource exposes the polling store state.
type StateSource interface {
	State() stats.State
}

// HealthSource exposes the latest host sample.
type HealthSource interface {
	Snapshot() domain.HostHealth
}

// Handler exposes the proxy, the store state and the status page over HTTP.
type Handler struct {
	proxy   Proxy
	store   StateSource
	host    HealthSource
	log     *zap.Logger
	now     func() time.Time
	started time.Time
}

// NewHandler wires the services into gin handlers. host and log may be nil.
func NewHandler(p Proxy, store StateSource, host HealthSource, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{proxy: p, store: store, host: host, log: log, now: time.Now, started: time.Now()}
}

// Ping answers `GET /ping`.
func (h *Handler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Stats handles `GET /api/stats`, forwarding the upstream body unchanged.
func (h *Handler) Stats(c *gin.Context) {
	body, err := h.proxy.Stats(c.Request.Context())
	if err != nil {
		h.upstreamError(c, statsFailure, err)
		return
	}
	writeDocument(c, body)
}

// Commands handles `GET /api/commands`, forwarding the upstream body unchanged.
func (h *Handler) Commands(c *gin.Context) {
	body, err := h.proxy.Commands(c.Request.Context())
	if err != nil {
		h.upstreamError(c, commandsFailure, err)
		return
	}
	writeDocument(c, body)
}

// SearchCommands handles `GET /api/commands/search?category=&q=`.
func (h *Handler) SearchCommands(c *gin.Context) {
	cat, err := h.proxy.SearchCommands(c.Request.Context(), c.Query("category"), c.Query("q"))
	if err != nil {
		h.upstreamError(c, commandsFailure, err)
		return
	}
	c.Header("Cache-Control", NoStore)
	c.JSON(http.StatusOK, cat)
}

type statusResponse struct {
	Uptime *float64 `json:"uptime,omitempty"`
	stats.State
	Online bool `json:"online"`
}

// Status handles `GET /api/status` with the polling store state.
func (h *Handler) Status(c *gin.Context) {
	st := h.store.State()
	resp := statusResponse{State: st, Online: st.Online()}
	if ratio, ok := st.Uptime(); ok {
		resp.Uptime = &ratio
	}
	c.JSON(http.StatusOK, resp)
}

// Health handles `GET /api/health` with process uptime and the host sample.
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{
		"status":        "ok",
		"uptimeSeconds": int64(h.now().Sub(h.started) / time.Second),
	}
	if h.host != nil {
		resp["host"] = h.host.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// StatusPage renders the HTML status dashboard.
func (h *Handler) StatusPage(c *gin.Context) {
	c.HTML(http.StatusOK, statusTemplate, dashboard.Build(h.store.State(), h.now()))
}

// Index redirects to the status page.
func (h *Handler) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, "/status")
}

func writeDocument(c *gin.Context, body []byte) {
	c.Header("Cache-Control", NoStore)
	c.Data(http.StatusOK, "application/json", body)
}

func (h *Handler) upstreamError(c *gin.Context, title string, err error) {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "unknown error"
	}
	h.log.Error("upstream fetch failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.Header("Cache-Control", NoStore)
	c.JSON(http.StatusInternalServerError, gin.H{"error": title, "message": msg})
}
