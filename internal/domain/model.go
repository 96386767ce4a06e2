package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ParticipantList stores a meeting roster as a JSON column. JSON keeps the
// column portable across PostgreSQL, MySQL, and SQLite.
type ParticipantList []Participant

// Scan implements the sql.Scanner interface for reading from the database.
func (l *ParticipantList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("ParticipantList: unsupported scan type")
	}
}

// Value implements the driver.Valuer interface for writing to the database.
func (l ParticipantList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType returns the GORM data type hint.
func (ParticipantList) GormDataType() string {
	return "text"
}

// MeetingModel is the GORM model for the meetings table.
type MeetingModel struct {
	MeetingID    string          `gorm:"type:varchar(36);primaryKey"`
	HostID       string          `gorm:"type:varchar(36);index;not null"`
	Participants ParticipantList `gorm:"type:text"`
	StartedAt    *time.Time
	EndedAt      *time.Time
	IsActive     bool      `gorm:"index;default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for MeetingModel.
func (MeetingModel) TableName() string {
	return "meetings"
}

// ToDomain converts MeetingModel to a domain Meeting.
func (m *MeetingModel) ToDomain() *Meeting {
	return &Meeting{
		MeetingID:    m.MeetingID,
		HostID:       m.HostID,
		Participants: []Participant(m.Participants),
		StartedAt:    m.StartedAt,
		EndedAt:      m.EndedAt,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// MeetingToModel converts a domain Meeting to MeetingModel.
func MeetingToModel(m *Meeting) *MeetingModel {
	return &MeetingModel{
		MeetingID:    m.MeetingID,
		HostID:       m.HostID,
		Participants: ParticipantList(m.Participants),
		StartedAt:    m.StartedAt,
		EndedAt:      m.EndedAt,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// UserModel is the GORM model for the users table. Registration and login
// are owned by the account service; this service only reads the table to
// confirm a token's subject still exists.
type UserModel struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name      string `gorm:"type:varchar(100);not null"`
	PhotoURL  string `gorm:"type:varchar(500)"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToIdentity converts a user row to a connection Identity.
func (m *UserModel) ToIdentity() Identity {
	return Identity{
		ID:          m.ID,
		DisplayName: m.Name,
		Email:       m.Email,
		PhotoURL:    m.PhotoURL,
	}
}
