package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ahmeeeeedddddd/Studify/internal/dto"
	"github.com/ahmeeeeedddddd/Studify/internal/model"
	"github.com/ahmeeeeedddddd/Studify/internal/repository"
	pkgerrors "github.com/ahmeeeeedddddd/Studify/pkg/errors"
)

// ── 学习进度模块业务错误 ──

var (
	ErrTaskNotFound     = errors.New("任务不存在")
	ErrDayNotFound      = errors.New("每日计划不存在")
	ErrProgressConflict = errors.New("学习进度已被其他操作修改，请刷新后重试")
)

// ProgressService 完成状态与学习进度业务接口
type ProgressService interface {
	ToggleTask(ctx context.Context, userID, taskID string, completed bool) (*dto.TaskCompletionResponse, error)
	// ToggleDay 切换每日计划完成状态，并在同一事务内重算用户课程进度
	ToggleDay(ctx context.Context, userID, dailyPlanID string, completed bool) (*dto.DayCompletionResponse, error)
	GetProgress(ctx context.Context, userID, userCourseID string) (*dto.ProgressResponse, error)
	// SyncProgress 客户端手动同步进度百分比
	SyncProgress(ctx context.Context, userID, userCourseID string, percent int) (*dto.ProgressResponse, error)
}

type progressService struct {
	repo   *repository.Repository
	cache  ViewCache
	logger *zap.Logger
	now    func() time.Time
}

// NewProgressService 创建 ProgressService 实例；cache 可为 nil
func NewProgressService(repo *repository.Repository, cache ViewCache, logger *zap.Logger) ProgressService {
	return &progressService{repo: repo, cache: cache, logger: logger, now: time.Now}
}

func (s *progressService) ToggleTask(ctx context.Context, userID, taskID string, completed bool) (*dto.TaskCompletionResponse, error) {
	task, err := s.repo.Task.GetForUser(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("查询任务失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}

	at := s.completedAt(completed)
	if err := s.repo.Task.SetCompleted(ctx, taskID, completed, at); err != nil {
		s.logger.Error("更新任务状态失败", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}

	if plan, err := s.repo.DailyPlan.GetForUser(ctx, task.DailyPlanID, userID); err == nil {
		s.invalidate(ctx, plan.UserCourseID)
	}

	return &dto.TaskCompletionResponse{
		ID:          task.TaskID,
		Title:       task.Title,
		IsCompleted: completed,
		CompletedAt: formatTimePtr(at),
	}, nil
}

// ════════════════════════════════════════════════════════════
// ToggleDay — 切换每日计划完成状态
// ════════════════════════════════════════════════════════════
//
// 进度规则：
//   - progress_percent = round(已完成天数 × 100 / 总天数)
//   - 全部完成 → completed；否则 in_progress（paused 保持不变）

func (s *progressService) ToggleDay(ctx context.Context, userID, dailyPlanID string, completed bool) (*dto.DayCompletionResponse, error) {
	plan, err := s.repo.DailyPlan.GetForUser(ctx, dailyPlanID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDayNotFound
		}
		s.logger.Error("查询每日计划失败", zap.String("daily_plan_id", dailyPlanID), zap.Error(err))
		return nil, err
	}
	uc, err := s.repo.UserCourse.GetForUser(ctx, plan.UserCourseID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoadmapNotFound
		}
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()
	txRepo := s.repo.WithTx(tx)

	at := s.completedAt(completed)
	if err := txRepo.DailyPlan.SetCompleted(ctx, dailyPlanID, completed, at); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新每日计划状态失败", zap.String("daily_plan_id", dailyPlanID), zap.Error(err))
		return nil, err
	}

	total, done, err := txRepo.DailyPlan.CountProgress(ctx, uc.UserCourseID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("统计学习进度失败", zap.String("user_course_id", uc.UserCourseID), zap.Error(err))
		return nil, err
	}
	applyProgress(uc, int(total), int(done))

	if err := txRepo.UserCourse.UpdateProgress(ctx, uc); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrProgressConflict
		}
		s.logger.Error("更新学习进度失败", zap.String("user_course_id", uc.UserCourseID), zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}
	s.invalidate(ctx, uc.UserCourseID)

	s.logger.Info("每日计划状态已更新",
		zap.String("user_course_id", uc.UserCourseID),
		zap.Int("day", plan.DayNumber),
		zap.Bool("completed", completed),
		zap.Int("progress", uc.ProgressPercent),
	)

	return &dto.DayCompletionResponse{
		ID:          plan.DailyPlanID,
		DayNumber:   plan.DayNumber,
		IsCompleted: completed,
		CompletedAt: formatTimePtr(at),
		Progress: dto.ProgressResponse{
			UserCourseID:        uc.UserCourseID,
			ProgressPercent:     uc.ProgressPercent,
			DaysCompleted:       uc.DaysCompleted,
			TotalDays:           uc.TotalDays,
			ActualTotalDays:     int(total),
			ActualCompletedDays: int(done),
			Status:              uc.Status,
		},
	}, nil
}

func (s *progressService) GetProgress(ctx context.Context, userID, userCourseID string) (*dto.ProgressResponse, error) {
	uc, err := s.getOwned(ctx, userID, userCourseID)
	if err != nil {
		return nil, err
	}

	plans, err := s.repo.DailyPlan.ListByUserCourse(ctx, userCourseID)
	if err != nil {
		s.logger.Error("查询每日计划失败", zap.String("user_course_id", userCourseID), zap.Error(err))
		return nil, err
	}

	resp := &dto.ProgressResponse{
		UserCourseID:    uc.UserCourseID,
		ProgressPercent: uc.ProgressPercent,
		DaysCompleted:   uc.DaysCompleted,
		TotalDays:       uc.TotalDays,
		ActualTotalDays: len(plans),
		Status:          uc.Status,
	}
	for _, p := range plans {
		if p.IsCompleted {
			resp.ActualCompletedDays++
		}
		if p.Quiz != nil {
			resp.TotalQuizzes++
		}
	}
	return resp, nil
}

func (s *progressService) SyncProgress(ctx context.Context, userID, userCourseID string, percent int) (*dto.ProgressResponse, error) {
	uc, err := s.getOwned(ctx, userID, userCourseID)
	if err != nil {
		return nil, err
	}

	uc.ProgressPercent = percent
	if percent >= 100 {
		uc.Status = model.UserCourseCompleted
	} else if uc.Status == model.UserCourseCompleted {
		uc.Status = model.UserCourseInProgress
	}

	if err := s.repo.UserCourse.UpdateProgress(ctx, uc); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrProgressConflict
		}
		s.logger.Error("同步学习进度失败", zap.String("user_course_id", userCourseID), zap.Error(err))
		return nil, err
	}
	s.invalidate(ctx, userCourseID)

	return &dto.ProgressResponse{
		UserCourseID:    uc.UserCourseID,
		ProgressPercent: uc.ProgressPercent,
		DaysCompleted:   uc.DaysCompleted,
		TotalDays:       uc.TotalDays,
		Status:          uc.Status,
	}, nil
}

// ── 内部方法 ──

func (s *progressService) getOwned(ctx context.Context, userID, userCourseID string) (*model.UserCourse, error) {
	uc, err := s.repo.UserCourse.GetForUser(ctx, userCourseID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoadmapNotFound
		}
		s.logger.Error("查询学习路线失败", zap.String("user_course_id", userCourseID), zap.Error(err))
		return nil, err
	}
	return uc, nil
}

func (s *progressService) completedAt(completed bool) *time.Time {
	if !completed {
		return nil
	}
	t := s.now().UTC()
	return &t
}

// invalidate 缓存失效失败只记录日志
func (s *progressService) invalidate(ctx context.Context, userCourseID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, roadmapCacheKey(userCourseID)); err != nil {
		s.logger.Warn("清除学习路线缓存失败", zap.String("user_course_id", userCourseID), zap.Error(err))
	}
}

// applyProgress 按完成天数重算进度与状态
func applyProgress(uc *model.UserCourse, total, done int) {
	uc.DaysCompleted = done
	if total > 0 {
		uc.TotalDays = total
		uc.ProgressPercent = int(math.Round(float64(done) * 100 / float64(total)))
	} else {
		uc.ProgressPercent = 0
	}

	switch {
	case total > 0 && done >= total:
		uc.Status = model.UserCourseCompleted
	case uc.Status == model.UserCourseCompleted:
		uc.Status = model.UserCourseInProgress
	}
}
