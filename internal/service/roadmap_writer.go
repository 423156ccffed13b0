package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/ahmeeeeedddddd/Studify/internal/ingest"
	"github.com/ahmeeeeedddddd/Studify/internal/model"
	"github.com/ahmeeeeedddddd/Studify/internal/repository"
	"github.com/ahmeeeeedddddd/Studify/pkg/metrics"
)

// roadmapDraft 一次生成请求待落库的全部内容
type roadmapDraft struct {
	UserID          string
	CourseTitle     string
	CustomDays      *int
	RecommendedDays int
	Plans           []ingest.DailyPlan
	Source          ingest.Source
	// RawOutput 生成服务的原始响应体，写入审计日志
	RawOutput []byte
}

// roadmapWriter 将规范计划在单个事务内写入：
// 课程 upsert → 用户课程 → 逐日（计划、任务、测验题目选项、资源）→ 审计日志。
// 任一写入失败则整体回滚。
type roadmapWriter struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func newRoadmapWriter(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) *roadmapWriter {
	return &roadmapWriter{repo: repo, metrics: m, logger: logger, now: time.Now}
}

// Write 返回新建的用户课程；失败时返回包装 ErrPersistenceFailure 的错误
func (w *roadmapWriter) Write(ctx context.Context, d *roadmapDraft) (*model.UserCourse, error) {
	start := w.now()

	tx, err := w.repo.BeginTx(ctx)
	if err != nil {
		w.logger.Error("开启事务失败", zap.Error(err))
		return nil, fmt.Errorf("%w: 开启事务: %w", ErrPersistenceFailure, err)
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := w.repo.WithTx(tx)
	fail := func(day int, stage string, cause error) error {
		if tx != nil {
			tx.Rollback()
		}
		w.logger.Error("学习路线写入失败，已回滚",
			zap.String("course", d.CourseTitle),
			zap.Int("day", day),
			zap.String("stage", stage),
			zap.Error(cause),
		)
		if day > 0 {
			return fmt.Errorf("%w: 第 %d 天 %s: %w", ErrPersistenceFailure, day, stage, cause)
		}
		return fmt.Errorf("%w: %s: %w", ErrPersistenceFailure, stage, cause)
	}

	course := &model.Course{
		Title:                   d.CourseTitle,
		Description:             "AI-generated course for " + d.CourseTitle,
		RecommendedDurationDays: d.RecommendedDays,
		CreatedByAI:             true,
	}
	if err := txRepo.Course.Upsert(ctx, course); err != nil {
		return nil, fail(0, "course", err)
	}

	uc := &model.UserCourse{
		UserID:             d.UserID,
		CourseID:           course.CourseID,
		CustomDurationDays: d.CustomDays,
		StartDate:          truncateToDate(start),
		Status:             model.UserCourseInProgress,
		PlanSource:         string(d.Source),
		TotalDays:          len(d.Plans),
	}
	if err := txRepo.UserCourse.Create(ctx, uc); err != nil {
		return nil, fail(0, "user_course", err)
	}

	for i := range d.Plans {
		p := &d.Plans[i]
		if stage, err := w.writeDay(ctx, txRepo, uc.UserCourseID, p); err != nil {
			return nil, fail(p.DayNumber, stage, err)
		}
	}

	log := &model.AIRecommendationLog{
		UserID:            d.UserID,
		UserCourseID:      &uc.UserCourseID,
		CourseTitle:       d.CourseTitle,
		UserInputDuration: d.CustomDays,
		PlanSource:        string(d.Source),
		AIOutput:          auditJSON(d.RawOutput),
	}
	if err := txRepo.AILog.Create(ctx, log); err != nil {
		return nil, fail(0, "ai_log", err)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			w.logger.Error("提交事务失败", zap.Error(err))
			return nil, fmt.Errorf("%w: 提交事务: %w", ErrPersistenceFailure, err)
		}
	}

	if w.metrics != nil {
		w.metrics.PersistDuration.Observe(time.Since(start).Seconds())
		w.metrics.PlanDays.Observe(float64(len(d.Plans)))
	}
	uc.Course = course
	return uc, nil
}

// writeDay 写入单日的计划与扇出记录，失败时返回所处阶段
func (w *roadmapWriter) writeDay(ctx context.Context, repo *repository.Repository, userCourseID string, p *ingest.DailyPlan) (string, error) {
	plan := &model.DailyPlan{
		UserCourseID: userCourseID,
		DayNumber:    p.DayNumber,
		Title:        p.Title,
		Description:  p.Description,
		StudyHours:   p.StudyHours,
		PlanType:     string(p.PlanType),
	}
	if err := repo.DailyPlan.Create(ctx, plan); err != nil {
		return "daily_plan", err
	}

	if len(p.Tasks) > 0 {
		tasks := make([]model.Task, 0, len(p.Tasks))
		for i, t := range p.Tasks {
			tasks = append(tasks, model.Task{
				DailyPlanID:      plan.DailyPlanID,
				Title:            t.Title,
				EstimatedMinutes: t.EstimatedMinutes,
				TaskOrder:        i + 1,
			})
		}
		if err := repo.Task.BatchCreate(ctx, tasks); err != nil {
			return "tasks", err
		}
	}

	if p.Quiz != nil {
		if err := writeQuiz(ctx, repo, plan.DailyPlanID, p.Quiz); err != nil {
			return "quiz", err
		}
	}

	if len(p.Resources) > 0 {
		resources := make([]model.Resource, 0, len(p.Resources))
		for _, r := range p.Resources {
			resources = append(resources, model.Resource{
				DailyPlanID:  plan.DailyPlanID,
				Name:         r.Name,
				URL:          r.URL,
				ResourceType: r.Type,
			})
		}
		if err := repo.Resource.BatchCreate(ctx, resources); err != nil {
			return "resources", err
		}
	}
	return "", nil
}

func writeQuiz(ctx context.Context, repo *repository.Repository, planID string, q *ingest.Quiz) error {
	quiz := &model.Quiz{
		DailyPlanID:     planID,
		Title:           q.Title,
		CoversDaysStart: q.CoversDaysStart,
		CoversDaysEnd:   q.CoversDaysEnd,
	}
	if err := repo.Quiz.Create(ctx, quiz); err != nil {
		return err
	}

	for i, question := range q.Questions {
		row := &model.QuizQuestion{
			QuizID:        quiz.QuizID,
			QuestionText:  question.Text,
			QuestionOrder: i + 1,
			Explanation:   question.Explanation,
		}
		if err := repo.Quiz.CreateQuestion(ctx, row); err != nil {
			return err
		}

		options := make([]model.QuizOption, 0, len(question.Options))
		for j, o := range question.Options {
			options = append(options, model.QuizOption{
				QuestionID:  row.QuestionID,
				OptionText:  o.Text,
				OptionOrder: j + 1,
				IsCorrect:   o.IsCorrect,
			})
		}
		if err := repo.Quiz.BatchCreateOptions(ctx, options); err != nil {
			return err
		}
	}
	return nil
}

// auditJSON 合法 JSON 原样保存，其余文本保存为 JSON 字符串。
// JSONB 拒绝 \u0000 转义与非法 UTF-8，含二者的输出先清理再按字符串保存
func auditJSON(raw []byte) datatypes.JSON {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && utf8.Valid(trimmed) && !bytes.Contains(trimmed, []byte(`\u0000`)) && json.Valid(trimmed) {
		return datatypes.JSON(trimmed)
	}
	encoded, err := json.Marshal(ingest.SanitizeText(string(raw)))
	if err != nil {
		return datatypes.JSON(`null`)
	}
	return datatypes.JSON(encoded)
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
