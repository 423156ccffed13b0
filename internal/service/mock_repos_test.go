package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/ahmeeeeedddddd/Studify/internal/model"
	"github.com/ahmeeeeedddddd/Studify/internal/repository"
	"github.com/ahmeeeeedddddd/Studify/pkg/aigen"
	pkgerrors "github.com/ahmeeeeedddddd/Studify/pkg/errors"
)

var errInjected = errors.New("injected failure")

// ── 内存存储 ──
// 各 mock 仓库共享同一份存储，以便按归属关联查询

type memStore struct {
	seq int

	courses     map[string]*model.Course
	userCourses map[string]*model.UserCourse
	plans       map[string]*model.DailyPlan
	tasks       map[string]*model.Task
	quizzes     map[string]*model.Quiz
	questions   map[string]*model.QuizQuestion
	options     []model.QuizOption
	resources   []model.Resource
	logs        []model.AIRecommendationLog

	// failPlanDay 写入该天的每日计划时返回 errInjected
	failPlanDay int
	// lockConflict UpdateProgress 总是返回乐观锁冲突
	lockConflict bool
}

func newMemStore() *memStore {
	return &memStore{
		courses:     make(map[string]*model.Course),
		userCourses: make(map[string]*model.UserCourse),
		plans:       make(map[string]*model.DailyPlan),
		tasks:       make(map[string]*model.Task),
		quizzes:     make(map[string]*model.Quiz),
		questions:   make(map[string]*model.QuizQuestion),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// rowCount 所有表的记录总数
func (s *memStore) rowCount() int {
	return len(s.courses) + len(s.userCourses) + len(s.plans) + len(s.tasks) +
		len(s.quizzes) + len(s.questions) + len(s.options) + len(s.resources) + len(s.logs)
}

func (s *memStore) ownsCourse(userCourseID, userID string) bool {
	uc, ok := s.userCourses[userCourseID]
	return ok && uc.UserID == userID
}

// newMockRepository 组装基于内存存储的 Repository 聚合（未绑定数据库，事务为空操作）
func newMockRepository() (*repository.Repository, *memStore) {
	store := newMemStore()
	return &repository.Repository{
		Course:     &mockCourseRepo{store},
		UserCourse: &mockUserCourseRepo{store},
		DailyPlan:  &mockDailyPlanRepo{store},
		Task:       &mockTaskRepo{store},
		Quiz:       &mockQuizRepo{store},
		Resource:   &mockResourceRepo{store},
		AILog:      &mockAILogRepo{store},
	}, store
}

// ── Mock CourseRepository ──

type mockCourseRepo struct{ s *memStore }

func (m *mockCourseRepo) Upsert(_ context.Context, course *model.Course) error {
	for _, c := range m.s.courses {
		if c.Title == course.Title {
			course.CourseID = c.CourseID
			return nil
		}
	}
	course.CourseID = m.s.nextID("course")
	cp := *course
	m.s.courses[cp.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.s.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock UserCourseRepository ──

type mockUserCourseRepo struct{ s *memStore }

func (m *mockUserCourseRepo) Create(_ context.Context, uc *model.UserCourse) error {
	uc.UserCourseID = m.s.nextID("uc")
	uc.CreatedAt = time.Unix(int64(m.s.seq), 0).UTC()
	uc.UpdatedAt = uc.CreatedAt
	uc.Version = 1
	cp := *uc
	cp.Course = nil
	m.s.userCourses[cp.UserCourseID] = &cp
	return nil
}

func (m *mockUserCourseRepo) GetForUser(_ context.Context, id, userID string) (*model.UserCourse, error) {
	uc, ok := m.s.userCourses[id]
	if !ok || uc.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withCourse(uc), nil
}

func (m *mockUserCourseRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.UserCourse, int64, error) {
	var all []model.UserCourse
	for _, uc := range m.s.userCourses {
		if uc.UserID == userID {
			all = append(all, *m.withCourse(uc))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.UserCourse{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserCourseRepo) UpdateProgress(_ context.Context, uc *model.UserCourse) error {
	stored, ok := m.s.userCourses[uc.UserCourseID]
	if !ok || m.s.lockConflict || stored.Version != uc.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.ProgressPercent = uc.ProgressPercent
	stored.DaysCompleted = uc.DaysCompleted
	stored.TotalDays = uc.TotalDays
	stored.Status = uc.Status
	stored.Version++
	uc.Version = stored.Version
	return nil
}

func (m *mockUserCourseRepo) withCourse(uc *model.UserCourse) *model.UserCourse {
	cp := *uc
	if c, ok := m.s.courses[uc.CourseID]; ok {
		course := *c
		cp.Course = &course
	}
	return &cp
}

// ── Mock DailyPlanRepository ──

type mockDailyPlanRepo struct{ s *memStore }

func (m *mockDailyPlanRepo) Create(_ context.Context, plan *model.DailyPlan) error {
	if m.s.failPlanDay > 0 && plan.DayNumber == m.s.failPlanDay {
		return errInjected
	}
	plan.DailyPlanID = m.s.nextID("plan")
	cp := *plan
	m.s.plans[cp.DailyPlanID] = &cp
	return nil
}

func (m *mockDailyPlanRepo) ListByUserCourse(_ context.Context, userCourseID string) ([]model.DailyPlan, error) {
	var result []model.DailyPlan
	for _, p := range m.s.plans {
		if p.UserCourseID != userCourseID {
			continue
		}
		cp := *p
		for _, q := range m.s.quizzes {
			if q.DailyPlanID == p.DailyPlanID {
				quiz := *q
				quiz.Questions = nil
				cp.Quiz = &quiz
			}
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DayNumber < result[j].DayNumber })
	return result, nil
}

func (m *mockDailyPlanRepo) GetByDay(_ context.Context, userCourseID string, day int) (*model.DailyPlan, error) {
	for _, p := range m.s.plans {
		if p.UserCourseID == userCourseID && p.DayNumber == day {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDailyPlanRepo) GetForUser(_ context.Context, id, userID string) (*model.DailyPlan, error) {
	p, ok := m.s.plans[id]
	if !ok || !m.s.ownsCourse(p.UserCourseID, userID) {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockDailyPlanRepo) SetCompleted(_ context.Context, id string, completed bool, at *time.Time) error {
	p, ok := m.s.plans[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.IsCompleted = completed
	p.CompletedAt = at
	return nil
}

func (m *mockDailyPlanRepo) CountProgress(_ context.Context, userCourseID string) (int64, int64, error) {
	var total, done int64
	for _, p := range m.s.plans {
		if p.UserCourseID != userCourseID {
			continue
		}
		total++
		if p.IsCompleted {
			done++
		}
	}
	return total, done, nil
}

// ── Mock TaskRepository ──

type mockTaskRepo struct{ s *memStore }

func (m *mockTaskRepo) BatchCreate(_ context.Context, tasks []model.Task) error {
	for i := range tasks {
		tasks[i].TaskID = m.s.nextID("task")
		cp := tasks[i]
		m.s.tasks[cp.TaskID] = &cp
	}
	return nil
}

func (m *mockTaskRepo) ListByPlans(_ context.Context, planIDs []string) ([]model.Task, error) {
	var result []model.Task
	for _, id := range planIDs {
		var byPlan []model.Task
		for _, t := range m.s.tasks {
			if t.DailyPlanID == id {
				byPlan = append(byPlan, *t)
			}
		}
		sort.Slice(byPlan, func(i, j int) bool { return byPlan[i].TaskOrder < byPlan[j].TaskOrder })
		result = append(result, byPlan...)
	}
	return result, nil
}

func (m *mockTaskRepo) GetForUser(_ context.Context, id, userID string) (*model.Task, error) {
	t, ok := m.s.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p, ok := m.s.plans[t.DailyPlanID]
	if !ok || !m.s.ownsCourse(p.UserCourseID, userID) {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockTaskRepo) SetCompleted(_ context.Context, id string, completed bool, at *time.Time) error {
	t, ok := m.s.tasks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.IsCompleted = completed
	t.CompletedAt = at
	return nil
}

// ── Mock QuizRepository ──

type mockQuizRepo struct{ s *memStore }

func (m *mockQuizRepo) Create(_ context.Context, quiz *model.Quiz) error {
	quiz.QuizID = m.s.nextID("quiz")
	cp := *quiz
	m.s.quizzes[cp.QuizID] = &cp
	return nil
}

func (m *mockQuizRepo) CreateQuestion(_ context.Context, question *model.QuizQuestion) error {
	question.QuestionID = m.s.nextID("question")
	cp := *question
	m.s.questions[cp.QuestionID] = &cp
	return nil
}

func (m *mockQuizRepo) BatchCreateOptions(_ context.Context, options []model.QuizOption) error {
	for i := range options {
		options[i].OptionID = m.s.nextID("option")
		m.s.options = append(m.s.options, options[i])
	}
	return nil
}

func (m *mockQuizRepo) GetByPlan(_ context.Context, planID string) (*model.Quiz, error) {
	for _, q := range m.s.quizzes {
		if q.DailyPlanID != planID {
			continue
		}
		quiz := *q
		quiz.Questions = nil
		for _, question := range m.s.questions {
			if question.QuizID != q.QuizID {
				continue
			}
			qq := *question
			for _, o := range m.s.options {
				if o.QuestionID == qq.QuestionID {
					qq.Options = append(qq.Options, o)
				}
			}
			sort.Slice(qq.Options, func(i, j int) bool { return qq.Options[i].OptionOrder < qq.Options[j].OptionOrder })
			quiz.Questions = append(quiz.Questions, qq)
		}
		sort.Slice(quiz.Questions, func(i, j int) bool {
			return quiz.Questions[i].QuestionOrder < quiz.Questions[j].QuestionOrder
		})
		return &quiz, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ResourceRepository ──

type mockResourceRepo struct{ s *memStore }

func (m *mockResourceRepo) BatchCreate(_ context.Context, resources []model.Resource) error {
	for i := range resources {
		resources[i].ResourceID = m.s.nextID("resource")
		m.s.resources = append(m.s.resources, resources[i])
	}
	return nil
}

func (m *mockResourceRepo) ListByPlans(_ context.Context, planIDs []string) ([]model.Resource, error) {
	var result []model.Resource
	for _, id := range planIDs {
		for _, r := range m.s.resources {
			if r.DailyPlanID == id {
				result = append(result, r)
			}
		}
	}
	return result, nil
}

// ── Mock AILogRepository ──

type mockAILogRepo struct{ s *memStore }

func (m *mockAILogRepo) Create(_ context.Context, log *model.AIRecommendationLog) error {
	log.LogID = m.s.nextID("log")
	m.s.logs = append(m.s.logs, *log)
	return nil
}

func (m *mockAILogRepo) ListByUserCourse(_ context.Context, userCourseID string) ([]model.AIRecommendationLog, error) {
	var result []model.AIRecommendationLog
	for _, l := range m.s.logs {
		if l.UserCourseID != nil && *l.UserCourseID == userCourseID {
			result = append(result, l)
		}
	}
	return result, nil
}

// ── Mock Generator ──

type mockGenerator struct {
	body  []byte
	err   error
	calls int
	last  *aigen.Request

	probe    *aigen.ProbeResult
	probeErr error
}

func (g *mockGenerator) Generate(_ context.Context, req *aigen.Request) (*aigen.Response, error) {
	g.calls++
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return &aigen.Response{Body: g.body, StatusCode: 200, Elapsed: 10 * time.Millisecond}, nil
}

func (g *mockGenerator) Probe(_ context.Context) (*aigen.ProbeResult, error) {
	return g.probe, g.probeErr
}

// ── Mock ViewCache ──

type mockCache struct {
	items   map[string][]byte
	hits    int
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{items: make(map[string][]byte)}
}

func (c *mockCache) GetJSON(_ context.Context, key string, dst interface{}) error {
	raw, ok := c.items[key]
	if !ok {
		return errors.New("cache miss")
	}
	c.hits++
	return json.Unmarshal(raw, dst)
}

func (c *mockCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func (c *mockCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if _, ok := c.items[k]; ok {
			c.deletes++
		}
		delete(c.items, k)
	}
	return nil
}
