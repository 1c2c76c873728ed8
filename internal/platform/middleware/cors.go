package middleware

import (
	"net/http"

	"github.com/rs/cors"

	platformstrings "refdata/pkg/platform/strings"
)

// CORS allows browser clients from origins. With no origins configured it is
// a pass-through.
func CORS(origins []string) func(http.Handler) http.Handler {
	origins = platformstrings.DedupeAndTrimLower(origins)
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         600,
	})
	return c.Handler
}
