package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/brickwatch/brickwatch/internal/application/common"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

// CleanupHandler deletes deal rows whose marketplace end date has passed.
type CleanupHandler struct {
	listings listing.Repository
	clock    shared.Clock
	log      zerolog.Logger
}

// NewCleanupHandler creates the expired-deal cleanup job handler.
func NewCleanupHandler(listings listing.Repository, clock shared.Clock, log zerolog.Logger) *CleanupHandler {
	return &CleanupHandler{listings: listings, clock: clock, log: log}
}

func (h *CleanupHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(RunCleanupCommand); !ok {
		return nil, fmt.Errorf("invalid request type for CleanupHandler")
	}
	deleted, err := h.listings.DeleteExpired(ctx, h.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired listings: %w", err)
	}
	h.log.Info().Int64("deleted", deleted).Msg("expired-deal cleanup complete")
	return &RunCleanupResponse{Deleted: deleted}, nil
}
