package middleware

import (
	"mime"
	"net/http"

	"github.com/twostepahead/twostepahead/internal/api/models"
)

// ProblemTypeUnsupportedMediaType identifies request bodies that are not JSON.
const ProblemTypeUnsupportedMediaType = "https://twostepahead.ph/problems/unsupported-media-type"

// RequireJSON checks that the request Content-Type is application/json for
// POST, PUT, and PATCH requests. A missing Content-Type is accepted.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" {
				mediaType, _, err := mime.ParseMediaType(contentType)
				if err != nil || mediaType != "application/json" {
					problem := models.NewProblem(
						ProblemTypeUnsupportedMediaType,
						"Unsupported media type",
						http.StatusUnsupportedMediaType,
						GetRequestID(r.Context()),
					).WithDetail("Content-Type must be application/json")
					problem.Instance = r.URL.Path
					problem.Write(w)
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
