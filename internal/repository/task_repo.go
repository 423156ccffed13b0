package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ahmeeeeedddddd/Studify/internal/model"
)

// TaskRepository 任务数据访问接口
type TaskRepository interface {
	BatchCreate(ctx context.Context, tasks []model.Task) error
	// ListByPlans 批量查询多个计划的任务，按计划内顺序排列
	ListByPlans(ctx context.Context, planIDs []string) ([]model.Task, error)
	GetForUser(ctx context.Context, id, userID string) (*model.Task, error)
	SetCompleted(ctx context.Context, id string, completed bool, at *time.Time) error
}

type taskRepo struct {
	db *gorm.DB
}

func NewTaskRepo(db *gorm.DB) TaskRepository {
	return &taskRepo{db: db}
}

func (r *taskRepo) BatchCreate(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&tasks).Error
}

func (r *taskRepo) ListByPlans(ctx context.Context, planIDs []string) ([]model.Task, error) {
	if len(planIDs) == 0 {
		return nil, nil
	}
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("daily_plan_id IN ?", planIDs).
		Order("daily_plan_id, task_order ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepo) GetForUser(ctx context.Context, id, userID string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Joins("JOIN daily_plans dp ON dp.daily_plan_id = tasks.daily_plan_id").
		Joins("JOIN user_courses uc ON uc.user_course_id = dp.user_course_id").
		Where("tasks.task_id = ? AND uc.user_id = ?", id, userID).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepo) SetCompleted(ctx context.Context, id string, completed bool, at *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("task_id = ?", id).
		Updates(map[string]interface{}{
			"is_completed": completed,
			"completed_at": at,
		}).Error
}
