package service

import (
	"context"

	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/internal/hub"
)

// SignalService relays signaling messages between the members of a meeting
// room. One handler per message kind; dispatch happens in the WebSocket
// handler over the closed domain.ClientMessage set.
type SignalService interface {
	HandleJoinMeeting(ctx context.Context, c *hub.Client, msg domain.JoinMeetingMessage) error
	HandleOffer(ctx context.Context, c *hub.Client, msg domain.OfferMessage) error
	HandleAnswer(ctx context.Context, c *hub.Client, msg domain.AnswerMessage) error
	HandleICECandidate(ctx context.Context, c *hub.Client, msg domain.ICECandidateMessage) error
	HandleChatMessage(ctx context.Context, c *hub.Client, msg domain.ChatMessage) error
	HandleMediaState(ctx context.Context, c *hub.Client, msg domain.MediaStateMessage) error
	HandleLeaveMeeting(ctx context.Context, c *hub.Client, msg domain.LeaveMeetingMessage) error
	HandleDisconnect(ctx context.Context, c *hub.Client) error
}

// MeetingService serves the REST meeting API.
type MeetingService interface {
	CreateMeeting(ctx context.Context, hostID string, req *domain.CreateMeetingRequest) (*domain.MeetingResponse, error)
	GetMeeting(ctx context.Context, meetingID string) (*domain.MeetingResponse, error)
}
