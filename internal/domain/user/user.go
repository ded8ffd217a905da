package user

import (
	"context"
	"fmt"
	"time"
)

// User is the caller identity supplied by the outer auth surface, plus the
// notification preferences the engine needs.
type User struct {
	ID           int64
	Country      string
	Timezone     string // IANA name, "Europe/Berlin"
	ScanPriority int

	ChatChatID   int64 // 0 when chat is not connected
	DigestOptIn  bool
	QuietStart   string // "22:00" local, empty when disabled
	QuietEnd     string // "08:00" local

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PushSubscription is one browser push endpoint of a user.
type PushSubscription struct {
	ID        int64
	UserID    int64
	Endpoint  string
	P256dh    string
	Auth      string
	CreatedAt time.Time
}

// Repository persists users and their push subscriptions.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	Save(ctx context.Context, u *User) error
	// ClearChatHandle detaches the chat recipient handle after the
	// provider reports the user blocked the bot.
	ClearChatHandle(ctx context.Context, userID int64) error
	DigestRecipients(ctx context.Context) ([]User, error)

	PushSubscriptions(ctx context.Context, userID int64) ([]PushSubscription, error)
	RemovePushSubscription(ctx context.Context, id int64) error
}

// QuietHours evaluates the user's quiet-hours window at the given instant
// and, when active, returns how long until the window ends. The window is
// interpreted in the user's timezone and may span midnight.
func (u *User) QuietHours(now time.Time) (active bool, untilEnd time.Duration, err error) {
	if u.QuietStart == "" || u.QuietEnd == "" {
		return false, 0, nil
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return false, 0, fmt.Errorf("invalid timezone %q: %w", u.Timezone, err)
	}
	local := now.In(loc)

	start, err := atClock(local, u.QuietStart)
	if err != nil {
		return false, 0, err
	}
	end, err := atClock(local, u.QuietEnd)
	if err != nil {
		return false, 0, err
	}

	if !end.After(start) {
		// Window spans midnight (e.g. 22:00 → 08:00).
		if local.Before(end) {
			start = start.AddDate(0, 0, -1)
		} else {
			end = end.AddDate(0, 0, 1)
		}
	}
	if !local.Before(start) && local.Before(end) {
		return true, end.Sub(local), nil
	}
	return false, 0, nil
}

func atClock(day time.Time, hhmm string) (time.Time, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return time.Time{}, fmt.Errorf("invalid clock time %q: %w", hhmm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location()), nil
}
