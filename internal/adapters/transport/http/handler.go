package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/enquestor/dreamer/internal/adapters/transport/http/dto"
	"github.com/enquestor/dreamer/internal/adapters/transport/http/middleware"
	appsvc "github.com/enquestor/dreamer/internal/app/auth/service"
	authErrors "github.com/enquestor/dreamer/internal/domain/auth/errors"
	"github.com/enquestor/dreamer/internal/domain/auth/model"
	"github.com/enquestor/dreamer/internal/infra/config"
	"github.com/enquestor/dreamer/internal/metrics"
)

// refreshCookie is the side channel the refresh token travels in. It never
// appears in a JSON body.
const refreshCookie = "refreshToken"

type Handler struct {
	svc     appsvc.Service
	cfg     *config.Config
	metrics *metrics.Collector
}

func NewHandler(svc appsvc.Service, cfg *config.Config, m *metrics.Collector) *Handler {
	return &Handler{svc: svc, cfg: cfg, metrics: m}
}

// NewRouter wires middleware and routes for the public surface.
func NewRouter(h *Handler, log *zap.Logger, reg *prometheus.Registry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.RateLimitPerIP(50, 100, 10_000, time.Hour))

	corsConfig := cors.Config{
		AllowOrigins: h.cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: h.cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "dreamer auth gateway")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
	router.POST("/refresh", h.Refresh)
	router.POST("/logout", h.Logout)

	return router
}

func (h *Handler) Signup(c *gin.Context) {
	defer h.observe("signup", c, time.Now())

	var body dto.SignupDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	pair, err := h.svc.Signup(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.issueTokens(c, pair)
}

func (h *Handler) Login(c *gin.Context) {
	defer h.observe("login", c, time.Now())

	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.issueTokens(c, pair)
}

func (h *Handler) Refresh(c *gin.Context) {
	defer h.observe("refresh", c, time.Now())

	token, err := c.Cookie(refreshCookie)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.issueTokens(c, pair)
}

func (h *Handler) Logout(c *gin.Context) {
	defer h.observe("logout", c, time.Now())

	token, err := c.Cookie(refreshCookie)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		// On error the cookie is left untouched.
		h.handleError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{})
}

// issueTokens returns the access token in the body and the refresh token in
// the cookie.
func (h *Handler) issueTokens(c *gin.Context, pair model.TokenPair) {
	h.setRefreshCookie(c, pair.RefreshToken, int(pair.RefreshTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"token": pair.AccessToken})
}

func (h *Handler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		refreshCookie,
		value,
		maxAge,
		"/",
		h.cfg.CookieDomain,
		false, // secure: TLS terminates upstream
		true,  // httpOnly
	)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	h.setRefreshCookie(c, "", -1)
}

// handleError collapses the failure taxonomy on purpose: apart from wrong
// credentials (401), callers cannot tell a missing user from a bad or unknown
// token from a backend failure.
func (h *Handler) handleError(c *gin.Context, err error) {
	if authErrors.IsInvalidCredentials(err) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	if authErrors.IsInvalidArgument(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handler) observe(operation string, c *gin.Context, start time.Time) {
	if h.metrics == nil {
		return
	}
	result := "ok"
	if c.Writer.Status() >= http.StatusBadRequest {
		result = "error"
	}
	h.metrics.RecordRequest(operation, result)
	h.metrics.RecordLatency(time.Since(start))
}
