package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmeeeeedddddd/Studify/internal/model"
)

// DailyPlanRepository 每日计划数据访问接口
type DailyPlanRepository interface {
	Create(ctx context.Context, plan *model.DailyPlan) error
	// ListByUserCourse 按天数升序，附带测验头（不含题目）
	ListByUserCourse(ctx context.Context, userCourseID string) ([]model.DailyPlan, error)
	GetByDay(ctx context.Context, userCourseID string, day int) (*model.DailyPlan, error)
	// GetForUser 校验归属：计划所属用户课程必须属于 userID
	GetForUser(ctx context.Context, id, userID string) (*model.DailyPlan, error)
	SetCompleted(ctx context.Context, id string, completed bool, at *time.Time) error
	// CountProgress 返回总天数与已完成天数
	CountProgress(ctx context.Context, userCourseID string) (total, completed int64, err error)
}

type dailyPlanRepo struct {
	db *gorm.DB
}

func NewDailyPlanRepo(db *gorm.DB) DailyPlanRepository {
	return &dailyPlanRepo{db: db}
}

func (r *dailyPlanRepo) Create(ctx context.Context, plan *model.DailyPlan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(plan).Error
}

func (r *dailyPlanRepo) ListByUserCourse(ctx context.Context, userCourseID string) ([]model.DailyPlan, error) {
	var plans []model.DailyPlan
	err := r.db.WithContext(ctx).
		Preload("Quiz").
		Where("user_course_id = ?", userCourseID).
		Order("day_number ASC").
		Find(&plans).Error
	return plans, err
}

func (r *dailyPlanRepo) GetByDay(ctx context.Context, userCourseID string, day int) (*model.DailyPlan, error) {
	var plan model.DailyPlan
	err := r.db.WithContext(ctx).
		Where("user_course_id = ? AND day_number = ?", userCourseID, day).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *dailyPlanRepo) GetForUser(ctx context.Context, id, userID string) (*model.DailyPlan, error) {
	var plan model.DailyPlan
	err := r.db.WithContext(ctx).
		Joins("JOIN user_courses uc ON uc.user_course_id = daily_plans.user_course_id").
		Where("daily_plans.daily_plan_id = ? AND uc.user_id = ?", id, userID).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *dailyPlanRepo) SetCompleted(ctx context.Context, id string, completed bool, at *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.DailyPlan{}).
		Where("daily_plan_id = ?", id).
		Updates(map[string]interface{}{
			"is_completed": completed,
			"completed_at": at,
		}).Error
}

func (r *dailyPlanRepo) CountProgress(ctx context.Context, userCourseID string) (int64, int64, error) {
	var row struct {
		Total     int64
		Completed int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.DailyPlan{}).
		Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE is_completed) AS completed").
		Where("user_course_id = ?", userCourseID).
		Scan(&row).Error
	return row.Total, row.Completed, err
}
