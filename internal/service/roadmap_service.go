package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ahmeeeeedddddd/Studify/config"
	"github.com/ahmeeeeedddddd/Studify/internal/dto"
	"github.com/ahmeeeeedddddd/Studify/internal/ingest"
	"github.com/ahmeeeeedddddd/Studify/internal/model"
	"github.com/ahmeeeeedddddd/Studify/internal/repository"
	"github.com/ahmeeeeedddddd/Studify/pkg/aigen"
	"github.com/ahmeeeeedddddd/Studify/pkg/metrics"
)

// ── 学习路线模块业务错误 ──

var (
	ErrRoadmapNotFound    = errors.New("学习路线不存在")
	ErrQuizNotFound       = errors.New("该天没有测验")
	ErrInvalidDuration    = errors.New("自定义时长必须为正整数天数")
	ErrCourseRequired     = errors.New("课程名称不能为空")
	ErrPersistenceFailure = errors.New("学习路线保存失败")
)

// timeLayout 对外时间一律转为 UTC 后输出
const timeLayout = time.RFC3339

// RoadmapService 学习路线业务接口
type RoadmapService interface {
	// Generate 调用生成服务并落库；生成服务失败时不写入任何数据
	Generate(ctx context.Context, userID string, req *dto.GenerateRoadmapRequest) (*dto.GenerateRoadmapResponse, error)
	ListMine(ctx context.Context, userID string, page *dto.PaginationRequest) (*dto.RoadmapListResponse, error)
	Get(ctx context.Context, userID, userCourseID string) (*dto.RoadmapDetailResponse, error)
	GetQuiz(ctx context.Context, userID, userCourseID string, day int) (*dto.QuizResponse, error)
	// Probe 检查生成服务连通性
	Probe(ctx context.Context) (*dto.ProbeResponse, error)
}

type roadmapService struct {
	repo      *repository.Repository
	generator aigen.Generator
	pipeline  *ingest.Pipeline
	writer    *roadmapWriter
	cache     ViewCache
	cfg       *config.RoadmapConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewRoadmapService 创建 RoadmapService 实例；cache 可为 nil
func NewRoadmapService(
	cfg *config.RoadmapConfig,
	repo *repository.Repository,
	generator aigen.Generator,
	pipeline *ingest.Pipeline,
	cache ViewCache,
	m *metrics.Metrics,
	logger *zap.Logger,
) RoadmapService {
	return &roadmapService{
		repo:      repo,
		generator: generator,
		pipeline:  pipeline,
		writer:    newRoadmapWriter(repo, m, logger),
		cache:     cache,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
	}
}

// ════════════════════════════════════════════════════════════
// Generate — 生成并保存学习路线
// ════════════════════════════════════════════════════════════
//
// 流程：
//  1. 调用生成服务（超时 / 不可达直接返回，不落库）
//  2. 原始响应体经 ingest 流水线转换为规范计划（内容问题一律回退到占位计划）
//  3. 单事务写入全部记录

func (s *roadmapService) Generate(ctx context.Context, userID string, req *dto.GenerateRoadmapRequest) (*dto.GenerateRoadmapResponse, error) {
	start := time.Now()

	course := strings.TrimSpace(ingest.SanitizeText(req.Course))
	if course == "" {
		return nil, ErrCourseRequired
	}
	durationType := aigen.DurationType(req.DurationType)
	if durationType == aigen.DurationCustom && (req.CustomDays == nil || *req.CustomDays <= 0) {
		return nil, ErrInvalidDuration
	}

	resp, err := s.generator.Generate(ctx, &aigen.Request{
		Course:       course,
		DurationType: durationType,
		CustomDays:   req.CustomDays,
	})
	if err != nil {
		outcome := "unavailable"
		if errors.Is(err, aigen.ErrTimeout) {
			outcome = "timeout"
		}
		s.countGeneration(outcome)
		s.logger.Error("调用生成服务失败",
			zap.String("user_id", userID),
			zap.String("course", course),
			zap.Error(err),
		)
		return nil, err
	}

	fallbackDays := s.fallbackDays(durationType, req.CustomDays)
	outcome := s.pipeline.Run(resp.Body, fallbackDays)
	if outcome.Source == ingest.SourceFallback {
		s.logger.Warn("使用占位计划",
			zap.String("course", course),
			zap.String("reason", ingest.FallbackReason(outcome.Reason)),
			zap.Int("days", len(outcome.Plans)),
		)
	}

	uc, err := s.writer.Write(ctx, &roadmapDraft{
		UserID:          userID,
		CourseTitle:     course,
		CustomDays:      req.CustomDays,
		RecommendedDays: fallbackDays,
		Plans:           outcome.Plans,
		Source:          outcome.Source,
		RawOutput:       resp.Body,
	})
	if err != nil {
		s.countGeneration("persistence_failure")
		return nil, err
	}
	s.countGeneration("success")

	elapsed := time.Since(start)
	s.logger.Info("学习路线已保存",
		zap.String("user_course_id", uc.UserCourseID),
		zap.String("course", course),
		zap.String("source", string(outcome.Source)),
		zap.String("envelope", outcome.Envelope.String()),
		zap.Int("days", len(outcome.Plans)),
		zap.Duration("elapsed", elapsed),
	)

	return &dto.GenerateRoadmapResponse{
		UserCourseID:          uc.UserCourseID,
		CourseTitle:           course,
		ProcessingTimeSeconds: math.Round(elapsed.Seconds()*100) / 100,
		PlanSource:            string(outcome.Source),
		TotalDays:             len(outcome.Plans),
	}, nil
}

// fallbackDays 自定义时长优先，否则使用配置的默认天数
func (s *roadmapService) fallbackDays(durationType aigen.DurationType, customDays *int) int {
	if durationType == aigen.DurationCustom && customDays != nil && *customDays > 0 {
		return *customDays
	}
	if s.cfg != nil && s.cfg.DefaultDays > 0 {
		return s.cfg.DefaultDays
	}
	return ingest.DefaultFallbackDays
}

func (s *roadmapService) countGeneration(outcome string) {
	if s.metrics != nil {
		s.metrics.Generations.WithLabelValues(outcome).Inc()
	}
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *roadmapService) ListMine(ctx context.Context, userID string, page *dto.PaginationRequest) (*dto.RoadmapListResponse, error) {
	list, total, err := s.repo.UserCourse.ListByUser(ctx, userID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询学习路线列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	items := make([]dto.RoadmapSummary, 0, len(list))
	for i := range list {
		items = append(items, toRoadmapSummary(&list[i]))
	}
	return &dto.RoadmapListResponse{
		Items:    items,
		Total:    total,
		Page:     page.GetPage(),
		PageSize: page.GetPageSize(),
	}, nil
}

func (s *roadmapService) Get(ctx context.Context, userID, userCourseID string) (*dto.RoadmapDetailResponse, error) {
	uc, err := s.getOwned(ctx, userID, userCourseID)
	if err != nil {
		return nil, err
	}

	key := roadmapCacheKey(userCourseID)
	if s.cache != nil {
		var cached dto.RoadmapDetailResponse
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	plans, err := s.repo.DailyPlan.ListByUserCourse(ctx, userCourseID)
	if err != nil {
		s.logger.Error("查询每日计划失败", zap.String("user_course_id", userCourseID), zap.Error(err))
		return nil, err
	}

	planIDs := make([]string, 0, len(plans))
	for _, p := range plans {
		planIDs = append(planIDs, p.DailyPlanID)
	}

	var (
		tasks     []model.Task
		resources []model.Resource
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.repo.Task.ListByPlans(gctx, planIDs)
		return err
	})
	g.Go(func() error {
		var err error
		resources, err = s.repo.Resource.ListByPlans(gctx, planIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("查询任务与资源失败", zap.String("user_course_id", userCourseID), zap.Error(err))
		return nil, err
	}

	tasksByPlan := make(map[string][]dto.TaskResponse, len(plans))
	for _, t := range tasks {
		tasksByPlan[t.DailyPlanID] = append(tasksByPlan[t.DailyPlanID], dto.TaskResponse{
			ID:               t.TaskID,
			Title:            t.Title,
			EstimatedMinutes: t.EstimatedMinutes,
			IsCompleted:      t.IsCompleted,
			CompletedAt:      formatTimePtr(t.CompletedAt),
		})
	}
	resourcesByPlan := make(map[string][]dto.ResourceResponse, len(plans))
	for _, r := range resources {
		resourcesByPlan[r.DailyPlanID] = append(resourcesByPlan[r.DailyPlanID], dto.ResourceResponse{
			ID:   r.ResourceID,
			Name: r.Name,
			URL:  r.URL,
			Type: r.ResourceType,
		})
	}

	detail := &dto.RoadmapDetailResponse{
		Roadmap:    toRoadmapSummary(uc),
		DailyPlans: make([]dto.DailyPlanResponse, 0, len(plans)),
	}
	for _, p := range plans {
		item := dto.DailyPlanResponse{
			ID:          p.DailyPlanID,
			DayNumber:   p.DayNumber,
			Title:       p.Title,
			Description: p.Description,
			StudyHours:  p.StudyHours,
			PlanType:    p.PlanType,
			IsCompleted: p.IsCompleted,
			CompletedAt: formatTimePtr(p.CompletedAt),
			Tasks:       tasksByPlan[p.DailyPlanID],
			Resources:   resourcesByPlan[p.DailyPlanID],
		}
		if item.Tasks == nil {
			item.Tasks = []dto.TaskResponse{}
		}
		if item.Resources == nil {
			item.Resources = []dto.ResourceResponse{}
		}
		if p.Quiz != nil {
			item.Quiz = &dto.QuizBrief{
				ID:              p.Quiz.QuizID,
				Title:           p.Quiz.Title,
				CoversDaysStart: p.Quiz.CoversDaysStart,
				CoversDaysEnd:   p.Quiz.CoversDaysEnd,
			}
		}
		detail.DailyPlans = append(detail.DailyPlans, item)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, detail, s.cacheTTL()); err != nil {
			s.logger.Warn("写入学习路线缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return detail, nil
}

func (s *roadmapService) GetQuiz(ctx context.Context, userID, userCourseID string, day int) (*dto.QuizResponse, error) {
	uc, err := s.getOwned(ctx, userID, userCourseID)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.DailyPlan.GetByDay(ctx, userCourseID, day)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		s.logger.Error("查询每日计划失败", zap.Int("day", day), zap.Error(err))
		return nil, err
	}

	quiz, err := s.repo.Quiz.GetByPlan(ctx, plan.DailyPlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		s.logger.Error("查询测验失败", zap.String("daily_plan_id", plan.DailyPlanID), zap.Error(err))
		return nil, err
	}

	resp := &dto.QuizResponse{
		Title:     quiz.Title,
		DayNumber: plan.DayNumber,
		DayRange:  fmt.Sprintf("Days %d-%d", quiz.CoversDaysStart, quiz.CoversDaysEnd),
		Questions: make([]dto.QuizQuestionResponse, 0, len(quiz.Questions)),
	}
	if uc.Course != nil {
		resp.CourseTitle = uc.Course.Title
	}
	for _, q := range quiz.Questions {
		item := dto.QuizQuestionResponse{
			Question:      q.QuestionText,
			Options:       make([]string, 0, len(q.Options)),
			CorrectAnswer: -1,
			Explanation:   q.Explanation,
		}
		for i, o := range q.Options {
			item.Options = append(item.Options, o.OptionText)
			if o.IsCorrect && item.CorrectAnswer < 0 {
				item.CorrectAnswer = i
			}
		}
		resp.Questions = append(resp.Questions, item)
	}
	return resp, nil
}

func (s *roadmapService) Probe(ctx context.Context) (*dto.ProbeResponse, error) {
	result, err := s.generator.Probe(ctx)
	if result == nil {
		return nil, err
	}
	return &dto.ProbeResponse{
		Reachable:   result.Reachable,
		StatusCode:  result.StatusCode,
		ElapsedMS:   result.Elapsed.Milliseconds(),
		BodyPreview: result.BodyPreview,
	}, err
}

// ── 内部方法 ──

func (s *roadmapService) getOwned(ctx context.Context, userID, userCourseID string) (*model.UserCourse, error) {
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

func (s *roadmapService) cacheTTL() time.Duration {
	if s.cfg != nil && s.cfg.CacheTTL > 0 {
		return s.cfg.CacheTTL
	}
	return 10 * time.Minute
}

func toRoadmapSummary(uc *model.UserCourse) dto.RoadmapSummary {
	summary := dto.RoadmapSummary{
		UserCourseID:       uc.UserCourseID,
		CustomDurationDays: uc.CustomDurationDays,
		StartDate:          uc.StartDate.Format("2006-01-02"),
		ProgressPercent:    uc.ProgressPercent,
		Status:             uc.Status,
		PlanSource:         uc.PlanSource,
		TotalDays:          uc.TotalDays,
		CompletedDays:      uc.DaysCompleted,
		CreatedAt:          formatTime(uc.CreatedAt),
	}
	if uc.Course != nil {
		summary.CourseTitle = uc.Course.Title
		summary.Description = uc.Course.Description
	}
	return summary
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
