package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/user"
)

// WebPushSender fans one alert payload out to every active browser push
// subscription of a user. Push is additive to chat and never owns the
// alert status.
type WebPushSender struct {
	users      user.Repository
	publicKey  string
	privateKey string
	subject    string
	log        zerolog.Logger
}

// NewWebPushSender creates the push channel from a VAPID key pair.
func NewWebPushSender(users user.Repository, publicKey, privateKey, subject string, log zerolog.Logger) *WebPushSender {
	return &WebPushSender{
		users:      users,
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		log:        log,
	}
}

// Send pushes to all subscriptions. Gone endpoints (404/410) are removed;
// the aggregate outcome distinguishes full, partial, and total failure.
func (s *WebPushSender) Send(ctx context.Context, userID int64, p alert.Payload) (alert.PushResult, error) {
	subs, err := s.users.PushSubscriptions(ctx, userID)
	if err != nil {
		return alert.PushFailed, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return alert.PushNoSubscriptions, nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return alert.PushFailed, fmt.Errorf("failed to encode payload: %w", err)
	}

	sent, failed := 0, 0
	for i := range subs {
		if err := s.pushOne(ctx, &subs[i], body); err != nil {
			failed++
			s.log.Debug().Err(err).
				Int64("user", userID).
				Int64("subscription", subs[i].ID).
				Msg("push delivery failed")
			continue
		}
		sent++
	}

	switch {
	case failed == 0:
		return alert.PushSent, nil
	case sent > 0:
		return alert.PushPartial, nil
	default:
		return alert.PushFailed, nil
	}
}

func (s *WebPushSender) pushOne(ctx context.Context, sub *user.PushSubscription, body []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             3600,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		// Subscription expired; drop it so the fan-out shrinks.
		if err := s.users.RemovePushSubscription(ctx, sub.ID); err != nil {
			s.log.Warn().Err(err).Int64("subscription", sub.ID).Msg("failed to remove dead subscription")
		}
		return fmt.Errorf("subscription gone: %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return nil
}
