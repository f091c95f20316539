package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/synesthesie/catalog/internal/config"
)

// CORS creates a CORS middleware from the configured origins. In
// development any origin is echoed back.
func CORS(cfg *config.Config) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}

	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch {
		case origin == "*":
			cc.AllowAllOrigins = true
			cc.AllowCredentials = false
		case strings.HasPrefix(origin, "http://"), strings.HasPrefix(origin, "https://"):
			cc.AllowOrigins = append(cc.AllowOrigins, origin)
		}
	}

	if cc.AllowAllOrigins {
		cc.AllowOrigins = nil
	} else if cfg.Env == "development" || len(cc.AllowOrigins) == 0 {
		allowed := cc.AllowOrigins
		dev := cfg.Env == "development"
		cc.AllowOrigins = nil
		cc.AllowOriginFunc = func(origin string) bool {
			if dev {
				return true
			}
			origin = strings.TrimRight(origin, "/")
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		}
	}

	return cors.New(cc)
}
