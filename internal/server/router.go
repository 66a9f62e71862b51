package server

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/dormant/internal/metrics"
	"github.com/loykin/dormant/internal/store"
)

// Router provides the read-only status surface of a running monitor.
// Endpoints:
//
//	GET {basePath}/status   persisted run state, idle time, cached pid
//	GET {basePath}/healthz  liveness of the monitor itself
//	GET {basePath}/metrics  Prometheus metrics
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	st       store.Store
	session  string
	basePath string
	now      func() time.Time
}

// NewRouter constructs a Router over the monitor's state store.
func NewRouter(st store.Store, session, basePath string) *Router {
	return &Router{st: st, session: session, basePath: sanitizeBase(basePath), now: time.Now}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server or mux.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.GET("/healthz", r.handleHealthz)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router. The
// listener is bound before returning so address conflicts surface to the
// caller instead of dying inside the serve goroutine.
func NewServer(addr, basePath string, st store.Store, session string) (*http.Server, error) {
	r := NewRouter(st, session, basePath)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.Serve(ln) }()
	return server, nil
}

// statusResp is the JSON body of GET /status.
type statusResp struct {
	RunState     string    `json:"run_state"`
	LastActivity time.Time `json:"last_activity"`
	IdleSeconds  float64   `json:"idle_seconds"`
	CachedPID    int       `json:"cached_pid"`
	Session      string    `json:"session"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (r *Router) handleStatus(c *gin.Context) {
	ctx := c.Request.Context()
	state, err := r.st.RunState(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	last, err := r.st.LastActivity(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	pid, err := r.st.CachedPID(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, statusResp{
		RunState:     state.String(),
		LastActivity: last.UTC(),
		IdleSeconds:  r.now().Sub(last).Seconds(),
		CachedPID:    pid,
		Session:      r.session,
	})
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func sanitizeBase(basePath string) string {
	if basePath == "" || basePath == "/" {
		return ""
	}
	if basePath[0] != '/' {
		basePath = "/" + basePath
	}
	for len(basePath) > 1 && basePath[len(basePath)-1] == '/' {
		basePath = basePath[:len(basePath)-1]
	}
	return basePath
}
