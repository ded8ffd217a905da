package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brickwatch/brickwatch/internal/application/common"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

// SnapshotHandler writes the daily price history rows. Sets and minifigs
// run independently so a failure in one never starves the other.
type SnapshotHandler struct {
	history listing.PriceHistoryRepository
	clock   shared.Clock
	log     zerolog.Logger
}

// NewSnapshotHandler creates the daily snapshot job handler.
func NewSnapshotHandler(history listing.PriceHistoryRepository, clock shared.Clock, log zerolog.Logger) *SnapshotHandler {
	return &SnapshotHandler{history: history, clock: clock, log: log}
}

func (h *SnapshotHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(RunSnapshotCommand); !ok {
		return nil, fmt.Errorf("invalid request type for SnapshotHandler")
	}
	day := h.clock.Now().UTC()
	resp := &RunSnapshotResponse{}

	var firstErr error
	for _, kind := range []catalog.ItemKind{catalog.KindSet, catalog.KindMinifig} {
		n, err := h.snapshotKind(ctx, day, kind)
		if err != nil {
			h.log.Error().Err(err).Str("kind", string(kind)).Msg("snapshot failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if kind == catalog.KindSet {
			resp.SetRows = n
		} else {
			resp.MinifigRows = n
		}
	}

	h.log.Info().
		Int("set_rows", resp.SetRows).
		Int("minifig_rows", resp.MinifigRows).
		Msg("daily snapshot complete")
	return resp, firstErr
}

func (h *SnapshotHandler) snapshotKind(ctx context.Context, day time.Time, kind catalog.ItemKind) (int, error) {
	rows, err := h.history.AggregateActive(ctx, day, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate %s listings: %w", kind, err)
	}
	if err := h.history.UpsertDaily(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to write %s snapshot: %w", kind, err)
	}
	return len(rows), nil
}
