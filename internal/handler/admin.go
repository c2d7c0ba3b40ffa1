package handler

import "context"

// RebuildProjections handles POST /admin/projections/rebuild.
// It replays every event stream into the read model and reports how many
// reservations were projected.
func (s *Server) RebuildProjections(ctx context.Context, _ RebuildProjectionsRequestObject) (ResponseObject, error) {
	n, err := s.projections.RebuildProjections(ctx)
	if err != nil {
		return errorResponse(err)
	}
	s.log.InfoContext(ctx, "read model rebuilt on request", "reservations", n)
	return RebuildProjections200JSONResponse{Reservations: n}, nil
}
