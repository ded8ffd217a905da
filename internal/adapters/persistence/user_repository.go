package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/brickwatch/brickwatch/internal/domain/user"
)

// GormUserRepository implements user.Repository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM user repository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %d", id)
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}
	return userToDomain(&model), nil
}

func (r *GormUserRepository) Save(ctx context.Context, u *user.User) error {
	model := userToModel(u)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save user: %w", result.Error)
	}
	u.ID = model.ID
	return nil
}

// ClearChatHandle detaches the chat recipient after a blocked-recipient
// error so no further chat jobs are enqueued until the user reconnects.
func (r *GormUserRepository) ClearChatHandle(ctx context.Context, userID int64) error {
	result := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", userID).
		Update("chat_chat_id", 0)
	if result.Error != nil {
		return fmt.Errorf("failed to clear chat handle: %w", result.Error)
	}
	return nil
}

// DigestRecipients returns users with digest enabled and a chat bound.
func (r *GormUserRepository) DigestRecipients(ctx context.Context) ([]user.User, error) {
	var models []UserModel
	result := r.db.WithContext(ctx).
		Where("digest_opt_in = ? AND chat_chat_id <> 0", true).
		Order("id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list digest recipients: %w", result.Error)
	}
	out := make([]user.User, 0, len(models))
	for i := range models {
		out = append(out, *userToDomain(&models[i]))
	}
	return out, nil
}

func (r *GormUserRepository) PushSubscriptions(ctx context.Context, userID int64) ([]user.PushSubscription, error) {
	var models []PushSubscriptionModel
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", result.Error)
	}
	out := make([]user.PushSubscription, 0, len(models))
	for _, m := range models {
		out = append(out, user.PushSubscription{
			ID:        m.ID,
			UserID:    m.UserID,
			Endpoint:  m.Endpoint,
			P256dh:    m.P256dh,
			Auth:      m.Auth,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (r *GormUserRepository) RemovePushSubscription(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&PushSubscriptionModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to remove push subscription: %w", result.Error)
	}
	return nil
}

// AddPushSubscription stores a new browser push endpoint.
func (r *GormUserRepository) AddPushSubscription(ctx context.Context, s *user.PushSubscription) error {
	model := &PushSubscriptionModel{
		UserID:   s.UserID,
		Endpoint: s.Endpoint,
		P256dh:   s.P256dh,
		Auth:     s.Auth,
	}
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to add push subscription: %w", result.Error)
	}
	s.ID = model.ID
	return nil
}

func userToDomain(m *UserModel) *user.User {
	return &user.User{
		ID:           m.ID,
		Country:      m.Country,
		Timezone:     m.Timezone,
		ScanPriority: m.ScanPriority,
		ChatChatID:   m.ChatChatID,
		DigestOptIn:  m.DigestOptIn,
		QuietStart:   m.QuietStart,
		QuietEnd:     m.QuietEnd,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func userToModel(u *user.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Country:      u.Country,
		Timezone:     u.Timezone,
		ScanPriority: u.ScanPriority,
		ChatChatID:   u.ChatChatID,
		DigestOptIn:  u.DigestOptIn,
		QuietStart:   u.QuietStart,
		QuietEnd:     u.QuietEnd,
	}
}
