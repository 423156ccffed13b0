package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ahmeeeeedddddd/Studify/internal/model"
)

// ResourceRepository 学习资源数据访问接口
type ResourceRepository interface {
	BatchCreate(ctx context.Context, resources []model.Resource) error
	ListByPlans(ctx context.Context, planIDs []string) ([]model.Resource, error)
}

type resourceRepo struct {
	db *gorm.DB
}

func NewResourceRepo(db *gorm.DB) ResourceRepository {
	return &resourceRepo{db: db}
}

func (r *resourceRepo) BatchCreate(ctx context.Context, resources []model.Resource) error {
	if len(resources) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&resources).Error
}

func (r *resourceRepo) ListByPlans(ctx context.Context, planIDs []string) ([]model.Resource, error) {
	if len(planIDs) == 0 {
		return nil, nil
	}
	var resources []model.Resource
	err := r.db.WithContext(ctx).
		Where("daily_plan_id IN ?", planIDs).
		Order("daily_plan_id, name ASC").
		Find(&resources).Error
	return resources, err
}
