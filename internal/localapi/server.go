// Package localapi exposes the agent's loopback-only HTTP and WebSocket
// surface: local-origin command submission, a read-only status snapshot, and
// the observer broadcast hub that mirrors every ack, event, telemetry, and
// health publication. The rendered dashboard itself is an external
// collaborator; this package is only the plumbing it talks to.
package localapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jonvt/watchdog-agent/internal/command"
	"github.com/jonvt/watchdog-agent/internal/model"
)

// StatusSnapshot is the read-only view served by GET /api/status, composed
// from state the orchestrator already maintains.
type StatusSnapshot struct {
	WallID       string                `json:"wallId"`
	Mode         model.OperationalMode `json:"mode"`
	Conditions   []model.ConditionID   `json:"conditions"`
	LeaseOwner   string                `json:"leaseOwner,omitempty"`
	LeaseExpires int64                 `json:"leaseExpiresTs,omitempty"`
	Stream       model.StreamingState  `json:"stream"`
	ActiveBroker string                `json:"activeBroker"`
	Observers    int                   `json:"observers"`
}

// CommandSubmitter hands a local-origin envelope to the command processor.
type CommandSubmitter func(ctx context.Context, env model.CommandEnvelope)

// commandRequest is the POST /api/command body.
type commandRequest struct {
	Type string         `json:"type" binding:"required"`
	Args map[string]any `json:"args"`
}

// Server is the loopback HTTP/WebSocket surface.
type Server struct {
	port    int
	hub     *Hub
	submit  CommandSubmitter
	status  func() StatusSnapshot
	log     zerolog.Logger
	limiter *ipRateLimiter

	httpSrv *http.Server
}

// New wires a Server. Call Run to start listening.
func New(port int, hub *Hub, submit CommandSubmitter, status func() StatusSnapshot, log zerolog.Logger) *Server {
	return &Server{
		port:    port,
		hub:     hub,
		submit:  submit,
		status:  status,
		log:     log,
		limiter: newIPRateLimiter(rate.Every(time.Minute/100), 10),
	}
}

// Router builds the gin engine; split out so tests can exercise the routes
// without binding a listener.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.limiter.middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.status())
	})
	r.POST("/api/command", s.handleCommand)
	r.GET("/ws", s.hub.HandleWebSocket())
	return r
}

func (s *Server) handleCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	env := command.NewLocalEnvelope(model.CommandType(req.Type), req.Args)
	go s.submit(context.Background(), env)

	c.JSON(http.StatusAccepted, gin.H{"commandId": env.CommandID})
}

// Run binds to loopback and serves until ctx is cancelled, then shuts down
// gracefully. The hub's Run loop is started here too.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run()

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("localapi: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

// ipRateLimiter applies a per-client token bucket to every request.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newIPRateLimiter(r rate.Limit, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

func (rl *ipRateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = lim
	}
	return lim
}

func (rl *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// WebSocket observers hold one long-lived connection; rate limiting
		// applies to request/response traffic only.
		if c.Request.URL.Path == "/ws" {
			c.Next()
			return
		}
		if !rl.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
