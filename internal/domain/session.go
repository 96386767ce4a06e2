package domain

import (
	"sync"
	"time"
)

// MediaFlags is the sender-reported media state of a connection.
type MediaFlags struct {
	Muted      bool
	VideoOff   bool
	Presenting bool
}

// Session tracks per-connection state: the verified identity, the meeting
// the connection currently belongs to (at most one), and its last-known
// media flags.
type Session struct {
	ID               string
	Identity         Identity
	CurrentMeetingID string
	Media            MediaFlags
	CreatedAt        time.Time
	LastActiveAt     time.Time
	mu               sync.RWMutex
}

// NewSession creates a session for a connection whose identity has already
// been verified.
func NewSession(connectionID string, identity Identity) *Session {
	now := time.Now()
	return &Session{
		ID:           connectionID,
		Identity:     identity,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// JoinMeeting sets the current meeting for the session.
func (s *Session) JoinMeeting(meetingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentMeetingID = meetingID
	s.LastActiveAt = time.Now()
}

// LeaveMeeting clears the current meeting and resets media flags.
func (s *Session) LeaveMeeting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentMeetingID = ""
	s.Media = MediaFlags{}
	s.LastActiveAt = time.Now()
}

// CurrentMeeting returns the meeting the session is in, or "".
func (s *Session) CurrentMeeting() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentMeetingID
}

// UserID returns the verified user id.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Identity.ID
}

// SetMediaFlags records the sender-reported media state.
func (s *Session) SetMediaFlags(flags MediaFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Media = flags
	s.LastActiveAt = time.Now()
}

// MediaState returns the last-known media flags.
func (s *Session) MediaState() MediaFlags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Media
}

// UpdateActivity updates the last active timestamp.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
