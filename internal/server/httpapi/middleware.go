package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/vkarpins/stashkeeper/internal/common"
	"github.com/vkarpins/stashkeeper/internal/logging"
	"github.com/vkarpins/stashkeeper/internal/server/auth"
)

// userIDKey is the gin context key the auth middleware stores the caller
// under.
const userIDKey = "user_id"

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stashkeeper_requests_total",
			Help: "Total number of requests processed by the server.",
		},
		[]string{"path", "status"},
	)
	errorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stashkeeper_request_errors_total",
			Help: "Total number of error responses produced by the server.",
		},
		[]string{"path", "status"},
	)
)

func init() {
	prometheus.MustRegister(requestCount)
	prometheus.MustRegister(errorCount)
}

// requireAuth extracts and verifies the bearer token, rejecting the request
// with the usual envelope when it is absent, forged, or expired.
func requireAuth(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(c, common.ErrorUnauthorized)
			return
		}
		userID, err := auth.GetUserIDFromToken(token, secretKey)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUserID returns the caller stored by requireAuth.
func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// logRequests logs one line per request and feeds the prometheus counters.
func logRequests(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		args := []any{
			"method", method, "path", path, "status", status,
			"ip", c.ClientIP(), "latency_ms", latency.Milliseconds(),
		}
		if status >= 400 {
			logger.Warn(c.Request.Context(), "request failed", args...)
			errorCount.WithLabelValues(path, http.StatusText(status)).Inc()
		} else {
			logger.Info(c.Request.Context(), "request", args...)
		}
		requestCount.WithLabelValues(path, http.StatusText(status)).Inc()
	}
}

// rateLimiter limits requests by client IP. Format examples: "5-M" (5/min),
// "10-H" (10/hour), "1-S" (1/sec).
func rateLimiter(formatted string) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		panic("ratelimit: invalid rate format: " + formatted)
	}
	store := memory.NewStore()
	return mgin.NewMiddleware(limiter.New(store, rate))
}

// metricsHandler wraps the prometheus handler with basic auth. An empty
// configured password closes the endpoint entirely rather than matching
// the empty credential every client sends by default.
func metricsHandler(password string) gin.HandlerFunc {
	promHandler := promhttp.Handler()
	return func(c *gin.Context) {
		_, pass, ok := c.Request.BasicAuth()
		if password == "" || !ok || subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
			writeError(c, common.ErrorUnauthorized)
			return
		}
		promHandler.ServeHTTP(c.Writer, c.Request)
	}
}
