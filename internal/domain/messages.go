package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// MessageKind identifies a signaling message on the wire.
type MessageKind string

// Client -> server message kinds.
const (
	KindJoinMeeting  MessageKind = "join-meeting"
	KindOffer        MessageKind = "offer"
	KindAnswer       MessageKind = "answer"
	KindICECandidate MessageKind = "ice-candidate"
	KindChatMessage  MessageKind = "chat-message"
	KindMediaState   MessageKind = "media-state"
	KindLeaveMeeting MessageKind = "leave-meeting"
)

// Server -> client message kinds.
const (
	KindMeetingJoined MessageKind = "meeting-joined"
	KindUserJoined    MessageKind = "user-joined"
	KindUserLeft      MessageKind = "user-left"
	KindError         MessageKind = "error"
)

// ErrMalformedMessage is returned for messages that cannot be decoded or
// are missing required fields. The offending message is dropped; the
// connection survives.
var ErrMalformedMessage = errors.New("malformed signaling message")

// ClientMessage is the closed set of messages a client may send. Decoding
// produces exactly one of the variants below, so relay dispatch is an
// exhaustive type switch rather than a string-keyed handler lookup.
type ClientMessage interface {
	Kind() MessageKind
	MeetingID() string
}

type envelope struct {
	Type MessageKind `json:"type"`
}

// JoinMeetingMessage requests membership in a meeting.
type JoinMeetingMessage struct {
	Meeting string `json:"meetingId"`
}

func (JoinMeetingMessage) Kind() MessageKind   { return KindJoinMeeting }
func (m JoinMeetingMessage) MeetingID() string { return m.Meeting }

// OfferMessage carries an opaque SDP offer blob.
type OfferMessage struct {
	Meeting string          `json:"meetingId"`
	Offer   json.RawMessage `json:"offer"`
	From    string          `json:"from"`
}

func (OfferMessage) Kind() MessageKind   { return KindOffer }
func (m OfferMessage) MeetingID() string { return m.Meeting }

// AnswerMessage carries an opaque SDP answer blob.
type AnswerMessage struct {
	Meeting string          `json:"meetingId"`
	Answer  json.RawMessage `json:"answer"`
	From    string          `json:"from"`
}

func (AnswerMessage) Kind() MessageKind   { return KindAnswer }
func (m AnswerMessage) MeetingID() string { return m.Meeting }

// ICECandidateMessage carries an opaque ICE candidate blob.
type ICECandidateMessage struct {
	Meeting   string          `json:"meetingId"`
	Candidate json.RawMessage `json:"candidate"`
	From      string          `json:"from"`
}

func (ICECandidateMessage) Kind() MessageKind   { return KindICECandidate }
func (m ICECandidateMessage) MeetingID() string { return m.Meeting }

// ChatMessage carries a chat line for the whole room.
type ChatMessage struct {
	Meeting string `json:"meetingId"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
	UserID  string `json:"userId"`
}

func (ChatMessage) Kind() MessageKind   { return KindChatMessage }
func (m ChatMessage) MeetingID() string { return m.Meeting }

// MediaStateMessage reports the sender's media toggles.
type MediaStateMessage struct {
	Meeting      string `json:"meetingId"`
	UserID       string `json:"userId"`
	IsMuted      bool   `json:"isMuted"`
	IsVideoOff   bool   `json:"isVideoOff"`
	IsPresenting bool   `json:"isPresenting,omitempty"`
}

func (MediaStateMessage) Kind() MessageKind   { return KindMediaState }
func (m MediaStateMessage) MeetingID() string { return m.Meeting }

// LeaveMeetingMessage requests leaving a meeting.
type LeaveMeetingMessage struct {
	Meeting string `json:"meetingId"`
	UserID  string `json:"userId"`
}

func (LeaveMeetingMessage) Kind() MessageKind   { return KindLeaveMeeting }
func (m LeaveMeetingMessage) MeetingID() string { return m.Meeting }

// DecodeClientMessage parses a raw frame into one of the ClientMessage
// variants. A missing meetingId, unknown kind, or undecodable body yields
// ErrMalformedMessage.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformedMessage
	}

	var (
		msg ClientMessage
		err error
	)

	switch env.Type {
	case KindJoinMeeting:
		var m JoinMeetingMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case KindOffer:
		var m OfferMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case KindAnswer:
		var m AnswerMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case KindICECandidate:
		var m ICECandidateMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case KindChatMessage:
		var m ChatMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case KindMediaState:
		var m MediaStateMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case KindLeaveMeeting:
		var m LeaveMeetingMessage
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return nil, ErrMalformedMessage
	}

	if err != nil || msg.MeetingID() == "" {
		return nil, ErrMalformedMessage
	}
	return msg, nil
}

// Server -> client events.

// MeetingJoinedEvent acknowledges a join and carries the members that were
// already present.
type MeetingJoinedEvent struct {
	Type         MessageKind       `json:"type"`
	MeetingID    string            `json:"meetingId"`
	Participants []ParticipantInfo `json:"participants"`
}

// ParticipantInfo describes a connected member for join acknowledgements.
type ParticipantInfo struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	SocketID string `json:"socketId"`
}

// UserJoinedEvent notifies existing members about a new participant.
type UserJoinedEvent struct {
	Type     MessageKind `json:"type"`
	UserID   string      `json:"userId"`
	UserName string      `json:"userName"`
	SocketID string      `json:"socketId"`
}

// UserLeftEvent notifies remaining members about a departure.
type UserLeftEvent struct {
	Type     MessageKind `json:"type"`
	UserID   string      `json:"userId"`
	SocketID string      `json:"socketId"`
}

// OfferEvent relays an SDP offer to room peers.
type OfferEvent struct {
	Type  MessageKind     `json:"type"`
	Offer json.RawMessage `json:"offer"`
	From  string          `json:"from"`
}

// AnswerEvent relays an SDP answer to room peers.
type AnswerEvent struct {
	Type   MessageKind     `json:"type"`
	Answer json.RawMessage `json:"answer"`
	From   string          `json:"from"`
}

// ICECandidateEvent relays an ICE candidate to room peers.
type ICECandidateEvent struct {
	Type      MessageKind     `json:"type"`
	Candidate json.RawMessage `json:"candidate"`
	From      string          `json:"from"`
}

// ChatMessageEvent relays a chat line to every member, sender included,
// carrying the single authoritative server timestamp.
type ChatMessageEvent struct {
	Type      MessageKind `json:"type"`
	Message   string      `json:"message"`
	Sender    string      `json:"sender"`
	UserID    string      `json:"userId"`
	From      string      `json:"from"`
	Timestamp time.Time   `json:"timestamp"`
}

// MediaStateEvent relays a media toggle to the other members.
type MediaStateEvent struct {
	Type         MessageKind `json:"type"`
	UserID       string      `json:"userId"`
	IsMuted      bool        `json:"isMuted"`
	IsVideoOff   bool        `json:"isVideoOff"`
	IsPresenting bool        `json:"isPresenting"`
	From         string      `json:"from"`
}

// ErrorEvent reports a dropped message to its sender.
type ErrorEvent struct {
	Type    MessageKind `json:"type"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

// Error codes surfaced on the socket.
const (
	ErrCodeBadRequest = "BAD_REQUEST"
)

// NewErrorEvent creates an error event.
func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{Type: KindError, Code: code, Message: message}
}
