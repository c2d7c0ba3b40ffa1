package handler

import (
	"context"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/api"
)

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(_ context.Context, _ GetHealthRequestObject) (ResponseObject, error) {
	return GetHealth200JSONResponse{Status: "ok"}, nil
}

// GetOpenAPI handles GET /openapi.yaml and serves the embedded API document.
func (s *Server) GetOpenAPI(_ context.Context, _ GetOpenAPIRequestObject) (ResponseObject, error) {
	return GetOpenAPI200YAMLResponse(api.OpenAPI), nil
}
