package services

// EventKind names the inbound webhook events the engine reacts to.
type EventKind string

const (
	EventFollow   EventKind = "follow"
	EventText     EventKind = "text"
	EventPostback EventKind = "postback"
)

// Event is one inbound platform event. The set of implementations is closed:
// FollowEvent, TextEvent and PostbackEvent.
type Event interface {
	Kind() EventKind
	Meta() EventMeta
}

// EventMeta carries what every event has in common.
type EventMeta struct {
	ReplyToken string
	UserID     string
}

func (m EventMeta) Meta() EventMeta { return m }

// FollowEvent is sent when a user adds the bot as a friend.
type FollowEvent struct {
	EventMeta
}

func (FollowEvent) Kind() EventKind { return EventFollow }

// TextEvent is an inbound text message.
type TextEvent struct {
	EventMeta
	Text string
}

func (TextEvent) Kind() EventKind { return EventText }

// PostbackEvent is a tap on a carousel action; Data is the raw payload.
type PostbackEvent struct {
	EventMeta
	Data string
}

func (PostbackEvent) Kind() EventKind { return EventPostback }
