package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:3000",
	"https://www.aasta.food",
	"https://aasta.food",
}

// CORSOrigins returns the allowed origins plus the configured front-end URL.
func CORSOrigins(frontendURL string) []string {
	origins := append([]string(nil), defaultCORSOrigins...)
	extra := strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	if extra == "" {
		return origins
	}
	for _, o := range origins {
		if o == extra {
			return origins
		}
	}
	return append(origins, extra)
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   CORSOrigins(frontendURL),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
