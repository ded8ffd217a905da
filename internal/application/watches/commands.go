package watches

import (
	"context"
	"fmt"

	"github.com/brickwatch/brickwatch/internal/application/common"
	"github.com/brickwatch/brickwatch/internal/application/resolver"
	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

// CreateWatchCommand registers a watch on a free-form item identifier.
type CreateWatchCommand struct {
	UserID          int64
	Kind            catalog.ItemKind
	ItemInput       string
	ShipToCountry   string
	TargetPrice     float64
	MinPrice        float64
	Condition       watch.ConditionPref
	BrickOwlEnabled bool
	ExcludeWords    []string
}

// CreateWatchResponse returns the created watch and the resolved item.
type CreateWatchResponse struct {
	Watch *watch.Watch
	Item  *catalog.Item
}

// CreateWatchHandler resolves the item, enforces the one-active-watch
// rule, and creates the watch with defaulted allowlist and priority.
type CreateWatchHandler struct {
	resolver *resolver.Service
	watches  watch.Repository
}

// NewCreateWatchHandler creates the watch creation handler.
func NewCreateWatchHandler(r *resolver.Service, watches watch.Repository) *CreateWatchHandler {
	return &CreateWatchHandler{resolver: r, watches: watches}
}

func (h *CreateWatchHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(CreateWatchCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type for CreateWatchHandler")
	}
	if cmd.TargetPrice <= 0 {
		return nil, shared.NewProviderError(shared.ErrValidation, fmt.Errorf("target price must be positive"))
	}

	res, err := h.resolver.Resolve(ctx, cmd.Kind, cmd.ItemInput)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve item: %w", err)
	}
	if !res.Success {
		return nil, shared.NewProviderError(shared.ErrValidation,
			fmt.Errorf("could not resolve %q to a catalog item", cmd.ItemInput))
	}

	existing, err := h.watches.FindActiveByUserItem(ctx, cmd.UserID, res.Item.Ref)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing watch: %w", err)
	}
	if existing != nil {
		return nil, shared.NewProviderError(shared.ErrConflict,
			fmt.Errorf("active watch already exists for %s", res.Item.Ref))
	}

	cond := cmd.Condition
	if cond == "" {
		cond = watch.CondAny
	}
	w := &watch.Watch{
		UserID:          cmd.UserID,
		ItemRef:         res.Item.Ref,
		ShipToCountry:   cmd.ShipToCountry,
		TargetPrice:     cmd.TargetPrice,
		MinPrice:        cmd.MinPrice,
		Condition:       cond,
		ExcludeWords:    cmd.ExcludeWords,
		BrickOwlEnabled: cmd.BrickOwlEnabled,
		Status:          watch.StatusActive,
	}
	if err := h.watches.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create watch: %w", err)
	}
	return &CreateWatchResponse{Watch: w, Item: res.Item}, nil
}

// ListWatchesQuery returns all watches of one user.
type ListWatchesQuery struct {
	UserID int64
}

// ListWatchesResponse carries the user's watches.
type ListWatchesResponse struct {
	Watches []watch.Watch
}

// ListWatchesHandler reads a user's watches.
type ListWatchesHandler struct {
	watches watch.Repository
}

// NewListWatchesHandler creates the watch listing handler.
func NewListWatchesHandler(watches watch.Repository) *ListWatchesHandler {
	return &ListWatchesHandler{watches: watches}
}

func (h *ListWatchesHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	q, ok := request.(ListWatchesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type for ListWatchesHandler")
	}
	ws, err := h.watches.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watches: %w", err)
	}
	return &ListWatchesResponse{Watches: ws}, nil
}
