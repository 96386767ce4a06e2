package service

import (
	"context"
	"sync"
	"time"

	"github.com/meetsync/signal-server/internal/audit"
	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/internal/hub"
	"github.com/meetsync/signal-server/internal/ledger"
)

type signalService struct {
	hub    *hub.Hub
	ledger *ledger.Synchronizer

	// One active presenter per room.
	presenters map[string]string // roomID -> connectionID
	mu         sync.Mutex
}

// NewSignalService creates the relay service.
func NewSignalService(h *hub.Hub, sync *ledger.Synchronizer) SignalService {
	return &signalService{
		hub:        h,
		ledger:     sync,
		presenters: make(map[string]string),
	}
}

func (s *signalService) HandleJoinMeeting(ctx context.Context, c *hub.Client, msg domain.JoinMeetingMessage) error {
	roomID := msg.Meeting

	// Joining while in another room is an implicit leave-then-join. A
	// session never holds two memberships.
	if current := c.Session.CurrentMeeting(); current != "" && current != roomID {
		s.leaveRoom(ctx, c, current)
	}

	existing, alreadyMember := s.hub.JoinRoom(c, roomID)
	if alreadyMember {
		// Duplicate join: no membership change, no repeated broadcast.
		return c.SendMessage(s.joinedEvent(roomID, s.peersOf(roomID, c.ID)))
	}

	c.Session.JoinMeeting(roomID)

	// Members now = pre-join snapshot + the joiner, so excluding the
	// joiner notifies exactly the snapshot. The broadcast runs outside
	// the hub lock, so a peer joining concurrently may receive a
	// user-joined for a client its own ack already listed; receivers
	// treat membership as a set, so the duplicate is harmless.
	s.hub.BroadcastToRoom(roomID, &domain.UserJoinedEvent{
		Type:     domain.KindUserJoined,
		UserID:   c.Session.UserID(),
		UserName: c.Session.Identity.DisplayName,
		SocketID: c.ID,
	}, c.ID)

	audit.Log(ctx, audit.ActionJoinMeeting, c.Session.UserID(), roomID, "participant joined meeting")
	s.ledger.RecordJoin(roomID, c.Session.UserID(), c.ID)

	return c.SendMessage(s.joinedEvent(roomID, existing))
}

func (s *signalService) HandleOffer(ctx context.Context, c *hub.Client, msg domain.OfferMessage) error {
	// Payload stays opaque; an empty room is a silent no-op.
	return s.hub.BroadcastToRoom(msg.Meeting, &domain.OfferEvent{
		Type:  domain.KindOffer,
		Offer: msg.Offer,
		From:  c.ID,
	}, c.ID)
}

func (s *signalService) HandleAnswer(ctx context.Context, c *hub.Client, msg domain.AnswerMessage) error {
	return s.hub.BroadcastToRoom(msg.Meeting, &domain.AnswerEvent{
		Type:   domain.KindAnswer,
		Answer: msg.Answer,
		From:   c.ID,
	}, c.ID)
}

func (s *signalService) HandleICECandidate(ctx context.Context, c *hub.Client, msg domain.ICECandidateMessage) error {
	return s.hub.BroadcastToRoom(msg.Meeting, &domain.ICECandidateEvent{
		Type:      domain.KindICECandidate,
		Candidate: msg.Candidate,
		From:      c.ID,
	}, c.ID)
}

// HandleChatMessage echoes to every member including the sender, so one
// server timestamp orders the room's chat.
func (s *signalService) HandleChatMessage(ctx context.Context, c *hub.Client, msg domain.ChatMessage) error {
	return s.hub.BroadcastToRoom(msg.Meeting, &domain.ChatMessageEvent{
		Type:      domain.KindChatMessage,
		Message:   msg.Message,
		Sender:    msg.Sender,
		UserID:    c.Session.UserID(),
		From:      c.ID,
		Timestamp: time.Now(),
	}, "")
}

func (s *signalService) HandleMediaState(ctx context.Context, c *hub.Client, msg domain.MediaStateMessage) error {
	roomID := msg.Meeting

	c.Session.SetMediaFlags(domain.MediaFlags{
		Muted:      msg.IsMuted,
		VideoOff:   msg.IsVideoOff,
		Presenting: msg.IsPresenting,
	})

	s.mu.Lock()
	if msg.IsPresenting {
		s.presenters[roomID] = c.ID
	} else if s.presenters[roomID] == c.ID {
		delete(s.presenters, roomID)
	}
	s.mu.Unlock()

	return s.hub.BroadcastToRoom(roomID, &domain.MediaStateEvent{
		Type:         domain.KindMediaState,
		UserID:       c.Session.UserID(),
		IsMuted:      msg.IsMuted,
		IsVideoOff:   msg.IsVideoOff,
		IsPresenting: msg.IsPresenting,
		From:         c.ID,
	}, c.ID)
}

func (s *signalService) HandleLeaveMeeting(ctx context.Context, c *hub.Client, msg domain.LeaveMeetingMessage) error {
	if c.Session.CurrentMeeting() != msg.Meeting {
		return nil
	}
	s.leaveRoom(ctx, c, msg.Meeting)
	return nil
}

// HandleDisconnect runs the same leave path as an explicit leave-meeting.
func (s *signalService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	roomID := c.Session.CurrentMeeting()
	if roomID == "" {
		return nil
	}
	s.leaveRoom(ctx, c, roomID)
	return nil
}

// Presenter returns the connection currently presenting in a room, or "".
func (s *signalService) Presenter(roomID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presenters[roomID]
}

// leaveRoom is the single teardown path shared by explicit leaves,
// disconnects, and implicit leave-then-join. Calling it twice for the same
// connection is a no-op the second time.
func (s *signalService) leaveRoom(ctx context.Context, c *hub.Client, roomID string) {
	if !s.hub.LeaveRoom(c, roomID) {
		return
	}

	userID := c.Session.UserID()

	s.mu.Lock()
	if s.presenters[roomID] == c.ID {
		delete(s.presenters, roomID)
	}
	s.mu.Unlock()

	s.hub.BroadcastToRoom(roomID, &domain.UserLeftEvent{
		Type:     domain.KindUserLeft,
		UserID:   userID,
		SocketID: c.ID,
	}, c.ID)

	c.Session.LeaveMeeting()

	audit.Log(ctx, audit.ActionLeaveMeeting, userID, roomID, "participant left meeting")
	s.ledger.RecordLeave(roomID, userID, c.ID)
}

func (s *signalService) joinedEvent(roomID string, peers []*hub.Client) *domain.MeetingJoinedEvent {
	participants := make([]domain.ParticipantInfo, 0, len(peers))
	for _, peer := range peers {
		participants = append(participants, domain.ParticipantInfo{
			UserID:   peer.Session.UserID(),
			UserName: peer.Session.Identity.DisplayName,
			SocketID: peer.ID,
		})
	}
	return &domain.MeetingJoinedEvent{
		Type:         domain.KindMeetingJoined,
		MeetingID:    roomID,
		Participants: participants,
	}
}

func (s *signalService) peersOf(roomID, exclude string) []*hub.Client {
	members := s.hub.MembersOf(roomID)
	peers := members[:0]
	for _, member := range members {
		if member.ID != exclude {
			peers = append(peers, member)
		}
	}
	return peers
}
