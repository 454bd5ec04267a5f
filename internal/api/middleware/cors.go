package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/docbridge/internal/infrastructure/tracing"
)

// DefaultCORSConfig allows the given origins with credentials. With no origins any origin is
// allowed and credentials are not.
func DefaultCORSConfig(origins ...string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Accept", "Accept-Encoding", "Cache-Control",
			"Content-Type", "Content-Length", "X-Requested-With",
			tracing.TraceHeader, tracing.SpanHeader,
		},
		ExposeHeaders: []string{tracing.TraceHeader, tracing.SpanHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

// CORS applies cfg to every request
func CORS(cfg cors.Config) gin.HandlerFunc {
	return cors.New(cfg)
}
