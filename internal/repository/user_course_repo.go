package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ahmeeeeedddddd/Studify/internal/model"
	pkgerrors "github.com/ahmeeeeedddddd/Studify/pkg/errors"
)

// UserCourseRepository 用户课程数据访问接口
type UserCourseRepository interface {
	Create(ctx context.Context, uc *model.UserCourse) error
	// GetForUser 仅返回属于该用户的记录，否则 gorm.ErrRecordNotFound
	GetForUser(ctx context.Context, id, userID string) (*model.UserCourse, error)
	// ListByUser 按创建时间倒序分页
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.UserCourse, int64, error)
	// UpdateProgress 乐观锁更新进度字段
	UpdateProgress(ctx context.Context, uc *model.UserCourse) error
}

type userCourseRepo struct {
	db *gorm.DB
}

func NewUserCourseRepo(db *gorm.DB) UserCourseRepository {
	return &userCourseRepo{db: db}
}

func (r *userCourseRepo) Create(ctx context.Context, uc *model.UserCourse) error {
	return r.db.WithContext(ctx).Omit("Course").Create(uc).Error
}

func (r *userCourseRepo) GetForUser(ctx context.Context, id, userID string) (*model.UserCourse, error) {
	var uc model.UserCourse
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("user_course_id = ? AND user_id = ?", id, userID).
		First(&uc).Error
	if err != nil {
		return nil, err
	}
	return &uc, nil
}

func (r *userCourseRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.UserCourse, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.UserCourse{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.UserCourse
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (r *userCourseRepo) UpdateProgress(ctx context.Context, uc *model.UserCourse) error {
	oldVersion := uc.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.UserCourse{}).
		Where("user_course_id = ? AND version = ?", uc.UserCourseID, oldVersion).
		Updates(map[string]interface{}{
			"progress_percent": uc.ProgressPercent,
			"days_completed":   uc.DaysCompleted,
			"total_days":       uc.TotalDays,
			"status":           uc.Status,
			"updated_at":       now,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	uc.Version = oldVersion + 1
	uc.UpdatedAt = now
	return nil
}
