package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"focus-reminders/internal/service"
)

// Checker runs one scheduled check.
type Checker interface {
	RunScheduledCheck(ctx context.Context) (service.Summary, error)
}

type Options struct {
	// CronSecret, when set, must be presented as a bearer token on /cron.
	CronSecret string
	Gatherer   prometheus.Gatherer
}

// New builds the HTTP surface: the external trigger, health and metrics.
func New(checker Checker, opts Options, log zerolog.Logger) *gin.Engine {
	log = log.With().Str("component", "http").Logger()

	r := gin.New()
	r.Use(recovery(log), requestLog(log))

	h := &cronHandler{checker: checker, secret: opts.CronSecret, log: log}
	r.GET("/cron", h.run)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

type cronHandler struct {
	checker Checker
	secret  string
	log     zerolog.Logger
}

// run triggers a check and reports its summary
// GET /cron
func (h *cronHandler) run(c *gin.Context) {
	if h.secret != "" && !bearerMatches(c.GetHeader("Authorization"), h.secret) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}

	summary, err := h.checker.RunScheduledCheck(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("scheduled check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "scheduled check failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processed": summary.Processed,
		"notified":  summary.Notified,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"timestamp": summary.Timestamp,
	})
}

func bearerMatches(header, secret string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

func recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("panic", err).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
			}
		}()
		c.Next()
	}
}

func requestLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
