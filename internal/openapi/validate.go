package openapi

import (
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"go.uber.org/zap"
)

// ValidateRequest checks r against the documented operation it targets.
// Requests that match no operation are reported with matched set to false
// and are not validated.
func (s *Spec) ValidateRequest(r *http.Request) (matched bool, err error) {
	route, params, err := s.router.FindRoute(r)
	if err != nil {
		return false, nil
	}
	input := &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: params,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}
	return true, openapi3filter.ValidateRequest(r.Context(), input)
}

// Middleware rejects documented requests that do not satisfy the document
// with 400 and a JSON error body.
func (s *Spec) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			matched, err := s.ValidateRequest(r)
			if matched && err != nil {
				logger.Debug("request rejected", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
