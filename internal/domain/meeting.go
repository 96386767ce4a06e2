package domain

import (
	"time"
)

// Participant is one audit-trail entry in a meeting's roster.
type Participant struct {
	UserID   string    `json:"userId"`
	SocketID string    `json:"socketId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Meeting is the durable record of a meeting's roster and lifecycle. It is
// a best-effort audit trail reconciled from live membership events; message
// relay never consults it.
type Meeting struct {
	MeetingID    string
	HostID       string
	Participants []Participant
	StartedAt    *time.Time
	EndedAt      *time.Time
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AddParticipant appends an entry unless the socket id is already listed.
// Reports whether the roster changed.
func (m *Meeting) AddParticipant(p Participant) bool {
	for _, existing := range m.Participants {
		if existing.SocketID == p.SocketID {
			return false
		}
	}
	m.Participants = append(m.Participants, p)
	return true
}

// RemoveParticipant drops the entry matching the socket id. Reports whether
// the roster changed.
func (m *Meeting) RemoveParticipant(socketID string) bool {
	for i, existing := range m.Participants {
		if existing.SocketID == socketID {
			m.Participants = append(m.Participants[:i], m.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// MeetingResponse is the REST representation of a meeting.
type MeetingResponse struct {
	MeetingID    string        `json:"meetingId"`
	HostID       string        `json:"hostId"`
	Participants []Participant `json:"participants"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	EndedAt      *time.Time    `json:"endedAt,omitempty"`
	IsActive     bool          `json:"isActive"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// ToResponse converts a Meeting to its REST representation.
func (m *Meeting) ToResponse() MeetingResponse {
	return MeetingResponse{
		MeetingID:    m.MeetingID,
		HostID:       m.HostID,
		Participants: m.Participants,
		StartedAt:    m.StartedAt,
		EndedAt:      m.EndedAt,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
	}
}

// CreateMeetingRequest is the REST payload for creating a meeting.
type CreateMeetingRequest struct {
	MeetingID string `json:"meetingId"`
}
