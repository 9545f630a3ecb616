package middleware

import (
	"time"

	"github.com/gin-contrib/cors"

	"github.com/xbcsmith/xzepr/internal/config"
)

// CORS builds the gin-contrib/cors middleware from the configured allowed
// origins (spec.md §4.12, §6).
func CORS(cfg config.CORSConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := sanitizeOrigins(cfg.AllowedOrigins)
	if len(origins) == 0 {
		corsCfg.AllowOrigins = []string{"http://localhost:3000"}
		return corsCfg
	}
	corsCfg.AllowOrigins = origins
	return corsCfg
}

func sanitizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	seen := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "" || o == "*" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
