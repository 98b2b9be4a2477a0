package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"socialhub/internal/middleware"
)

// Event type names sent to websocket clients.
const (
	EventConnected    = "connected"
	EventPostCreated  = "post_created"
	EventPostLiked    = "post_liked"
	EventUserFollowed = "user_followed"
	EventDropped      = "messages_dropped"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Actor identifies the user who caused an event.
type Actor struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// PostCreatedPayload announces a new post to everyone.
type PostCreatedPayload struct {
	PostID uint  `json:"post_id"`
	Author Actor `json:"author"`
}

// PostLikedPayload tells a post author about a like toggle.
type PostLikedPayload struct {
	PostID    uint  `json:"post_id"`
	Actor     Actor `json:"actor"`
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// UserFollowedPayload tells a user someone followed or unfollowed them.
type UserFollowedPayload struct {
	Actor     Actor `json:"actor"`
	Following bool  `json:"following"`
}

// Publisher routes events either through Redis, so every instance sees them,
// or straight to the local hub when no Redis is configured.
type Publisher struct {
	hub      *Hub
	notifier *Notifier
}

// NewPublisher builds a Publisher. Either argument may be nil.
func NewPublisher(hub *Hub, notifier *Notifier) *Publisher {
	return &Publisher{hub: hub, notifier: notifier}
}

// ToUser delivers an event to every connection of userID.
func (p *Publisher) ToUser(ctx context.Context, userID uint, eventType string, payload any) {
	msg, ok := encode(eventType, payload)
	if !ok {
		return
	}
	if p.notifier.Enabled() {
		if err := p.notifier.PublishUser(ctx, userID, msg); err != nil {
			middleware.Logger.WarnContext(ctx, "publish user event failed",
				slog.String("event", eventType),
				slog.Uint64("target_user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	if p.hub != nil {
		p.hub.Broadcast(userID, msg)
	}
}

// ToAll delivers an event to every connected client.
func (p *Publisher) ToAll(ctx context.Context, eventType string, payload any) {
	msg, ok := encode(eventType, payload)
	if !ok {
		return
	}
	if p.notifier.Enabled() {
		if err := p.notifier.PublishBroadcast(ctx, msg); err != nil {
			middleware.Logger.WarnContext(ctx, "publish broadcast event failed",
				slog.String("event", eventType),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	if p.hub != nil {
		p.hub.BroadcastAll(msg)
	}
}

func encode(eventType string, payload any) (string, bool) {
	b, err := json.Marshal(Event{Type: eventType, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		middleware.Logger.Error("marshal event failed",
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
		return "", false
	}
	return string(b), true
}
