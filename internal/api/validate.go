package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// ValidatedPrefix is the path prefix whose requests are checked against the
// OpenAPI document. Docs, health and webhook routes are not validated.
const ValidatedPrefix = "/api/"

// RequestValidator returns middleware that rejects requests whose
// parameters or body do not match the OpenAPI document with a 400.
// Authentication is enforced by a separate middleware.
func RequestValidator(logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	// Match on path only so the validator works behind any host.
	doc.Servers = nil

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("error building openapi router: %w", err)
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, ValidatedPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				// Unknown paths and methods are answered by the mux.
				if !errors.Is(err, routers.ErrPathNotFound) && !errors.Is(err, routers.ErrMethodNotAllowed) {
					logger.WarnContext(r.Context(), "openapi route lookup failed", "path", r.URL.Path, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.InfoContext(r.Context(), "request rejected by schema",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err,
				)
				writeValidationError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func writeValidationError(w http.ResponseWriter, err error) {
	message := err.Error()
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		message = reqErr.Error()
		if reqErr.Parameter != nil && reqErr.Reason != "" {
			message = fmt.Sprintf("parameter %q: %s", reqErr.Parameter.Name, reqErr.Reason)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(ErrorResponse{ //nolint:errcheck // client went away
		Error:   ErrorCodeInvalidRequest,
		Message: message,
	})
}
