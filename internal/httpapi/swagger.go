package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "evhandler/internal/httpapi/docs" // registers the API description with swag
)

// MountSwagger serves the swagger UI under /swagger/ when enabled with
// SetSwaggerEnabled.
func MountSwagger(r chi.Router) {
	if !swaggerEnabled {
		return
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
