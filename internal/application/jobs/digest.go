package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brickwatch/brickwatch/internal/application/common"
	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
	"github.com/brickwatch/brickwatch/internal/domain/user"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

const (
	digestWindow    = 7 * 24 * time.Hour
	digestBestLimit = 5

	// Minimum gap between digest messages so the bot never bursts the
	// chat provider.
	interMessageDelay = 50 * time.Millisecond
)

// WeeklyDigestHandler sends one summary message per opted-in user with a
// bound chat handle: watch count plus the best alerts of the last 7 days.
type WeeklyDigestHandler struct {
	users   user.Repository
	watches watch.Repository
	alerts  alert.Repository
	sender  alert.DigestSender
	clock   shared.Clock
	log     zerolog.Logger
}

// NewWeeklyDigestHandler creates the digest job handler.
func NewWeeklyDigestHandler(
	users user.Repository,
	watches watch.Repository,
	alerts alert.Repository,
	sender alert.DigestSender,
	clock shared.Clock,
	log zerolog.Logger,
) *WeeklyDigestHandler {
	return &WeeklyDigestHandler{
		users:   users,
		watches: watches,
		alerts:  alerts,
		sender:  sender,
		clock:   clock,
		log:     log,
	}
}

func (h *WeeklyDigestHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(RunWeeklyDigestCommand); !ok {
		return nil, fmt.Errorf("invalid request type for WeeklyDigestHandler")
	}

	recipients, err := h.users.DigestRecipients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load digest recipients: %w", err)
	}

	resp := &RunWeeklyDigestResponse{Recipients: len(recipients)}
	since := h.clock.Now().Add(-digestWindow)

	for i := range recipients {
		u := &recipients[i]
		if i > 0 {
			select {
			case <-ctx.Done():
				return resp, ctx.Err()
			case <-time.After(interMessageDelay):
			}
		}

		digest, err := h.buildDigest(ctx, u.ID, since)
		if err != nil {
			resp.Failed++
			h.log.Warn().Err(err).Int64("user", u.ID).Msg("digest build failed")
			continue
		}
		if err := h.sender.SendDigest(ctx, u.ChatChatID, *digest); err != nil {
			resp.Failed++
			h.log.Warn().Err(err).Int64("user", u.ID).Msg("digest delivery failed")
			continue
		}
		resp.Sent++
	}

	h.log.Info().
		Int("recipients", resp.Recipients).
		Int("sent", resp.Sent).
		Int("failed", resp.Failed).
		Msg("weekly digest complete")
	return resp, nil
}

func (h *WeeklyDigestHandler) buildDigest(ctx context.Context, userID int64, since time.Time) (*alert.Digest, error) {
	watches, err := h.watches.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watches: %w", err)
	}
	active := 0
	for i := range watches {
		if watches[i].Status == watch.StatusActive {
			active++
		}
	}
	best, err := h.alerts.BestByUserSince(ctx, userID, since, digestBestLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load best alerts: %w", err)
	}
	return &alert.Digest{WatchCount: active, Best: best}, nil
}
