package repository

import (
	"context"
	"errors"

	"github.com/meetsync/signal-server/internal/domain"
)

var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrMeetingExists   = errors.New("meeting already exists")
	ErrUserNotFound    = errors.New("user not found")
)

// MeetingRepository defines persistence for meeting records. The store is
// document-shaped: find by meeting id, create, save back the whole record.
type MeetingRepository interface {
	FindByMeetingID(ctx context.Context, meetingID string) (*domain.Meeting, error)
	Create(ctx context.Context, meeting *domain.Meeting) error
	Save(ctx context.Context, meeting *domain.Meeting) error
}

// UserRepository reads the user store to resolve a token subject into a
// verified identity.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (domain.Identity, error)
}
