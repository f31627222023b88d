package repository

import (
	"context"

	"gorm.io/gorm"

	"nudge-notify/internal/model"
)

// SpaceRepository reads shared spaces and their membership.
type SpaceRepository struct {
	db *gorm.DB
}

func NewSpaceRepository(db *gorm.DB) *SpaceRepository {
	return &SpaceRepository{db: db}
}

func (r *SpaceRepository) FindByID(ctx context.Context, spaceID string) (*model.Space, error) {
	var space model.Space
	if err := r.db.WithContext(ctx).Preload("Members").Where("id = ?", spaceID).First(&space).Error; err != nil {
		return nil, err
	}
	return &space, nil
}
