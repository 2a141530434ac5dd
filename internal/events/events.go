package events

import "context"

// Streams
const (
	StreamAds  = "events:ads"
	StreamChat = "events:chat"
)

// Event types
const (
	EventAdViewed       = "ad_viewed"
	EventAdClickTracked = "ad_click_tracked"
	EventChatSaved      = "chat_session_saved"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
