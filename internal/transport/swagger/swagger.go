package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func Handler() http.Handler {
	// The document itself lives in api/openapi.yml and the router serves it
	// at /openapi.yml.
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	)
}
