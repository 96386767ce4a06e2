package kafka

import "context"

// MeetingEvent represents a meeting lifecycle change published for
// downstream consumers (analytics, presence dashboards).
type MeetingEvent struct {
	Type      string `json:"type"`
	MeetingID string `json:"meeting_id"`
	UserID    string `json:"user_id,omitempty"`
	HostID    string `json:"host_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Event types
const (
	EventMeetingStarted    = "meeting_started"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventMeetingEnded      = "meeting_ended"
)

// MeetingEventProducer defines the interface for producing meeting
// lifecycle events. The producer is optional: a nil producer disables
// event publishing without affecting the relay.
type MeetingEventProducer interface {
	ProduceMeetingStarted(ctx context.Context, meetingID, hostID string) error
	ProduceParticipantJoined(ctx context.Context, meetingID, userID string) error
	ProduceParticipantLeft(ctx context.Context, meetingID, userID string) error
	ProduceMeetingEnded(ctx context.Context, meetingID string) error
	Close() error
}
