package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/meetsync/signal-server/internal/domain"
	"github.com/meetsync/signal-server/pkg/log"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByID resolves a user id into a verified identity.
func (r *GormUserRepository) GetByID(ctx context.Context, userID string) (domain.Identity, error) {
	l := log.Ctx(ctx)

	var model domain.UserModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return domain.Identity{}, ErrUserNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldUserID, userID).Msg("failed to get user by id")
		return domain.Identity{}, result.Error
	}
	return model.ToIdentity(), nil
}
