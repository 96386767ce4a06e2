package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/pkg/log"
)

// GormMeetingRepository implements MeetingRepository using GORM.
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewGormMeetingRepository creates a new GORM-based meeting repository.
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	return &GormMeetingRepository{db: db}
}

// FindByMeetingID retrieves a meeting record by its meeting code.
func (r *GormMeetingRepository) FindByMeetingID(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	l := log.Ctx(ctx)

	var model domain.MeetingModel
	result := r.db.WithContext(ctx).First(&model, "meeting_id = ?", meetingID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldMeetingID, meetingID).Msg("failed to find meeting")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// Create inserts a new meeting record.
func (r *GormMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	l := log.Ctx(ctx)

	model := domain.MeetingToModel(meeting)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrMeetingExists
		}
		l.Error().Err(result.Error).Str(log.FieldMeetingID, meeting.MeetingID).Msg("failed to create meeting")
		return result.Error
	}

	meeting.CreatedAt = model.CreatedAt
	meeting.UpdatedAt = model.UpdatedAt
	l.Debug().Str(log.FieldMeetingID, meeting.MeetingID).Msg("meeting created in db")
	return nil
}

// Save writes the whole meeting record back.
func (r *GormMeetingRepository) Save(ctx context.Context, meeting *domain.Meeting) error {
	l := log.Ctx(ctx)

	model := domain.MeetingToModel(meeting)
	result := r.db.WithContext(ctx).
		Model(&domain.MeetingModel{}).
		Where("meeting_id = ?", meeting.MeetingID).
		Updates(map[string]interface{}{
			"host_id":      model.HostID,
			"participants": model.Participants,
			"started_at":   model.StartedAt,
			"ended_at":     model.EndedAt,
			"is_active":    model.IsActive,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldMeetingID, meeting.MeetingID).Msg("failed to save meeting")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}
