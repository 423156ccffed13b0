package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ahmeeeeedddddd/Studify/internal/model"
)

// AILogRepository AI 生成审计日志数据访问接口（只追加）
type AILogRepository interface {
	Create(ctx context.Context, log *model.AIRecommendationLog) error
	ListByUserCourse(ctx context.Context, userCourseID string) ([]model.AIRecommendationLog, error)
}

type aiLogRepo struct {
	db *gorm.DB
}

func NewAILogRepo(db *gorm.DB) AILogRepository {
	return &aiLogRepo{db: db}
}

func (r *aiLogRepo) Create(ctx context.Context, log *model.AIRecommendationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *aiLogRepo) ListByUserCourse(ctx context.Context, userCourseID string) ([]model.AIRecommendationLog, error) {
	var logs []model.AIRecommendationLog
	err := r.db.WithContext(ctx).
		Where("user_course_id = ?", userCourseID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
