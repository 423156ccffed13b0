package ingest

import (
	"strings"
	"unicode/utf8"
)

// 与 daily_plans / quizzes / resources 的列宽一致
const (
	MaxTitleRunes        = 255
	MaxResourceTypeRunes = 32
	// MaxDayNumber 超出的天数视为缺失，按顺延规则重新编号
	MaxDayNumber = 3650
	// MaxStudyHours 单日学习时长上限
	MaxStudyHours = 24
)

// SanitizeText 去除 NUL 并替换非法 UTF-8，PostgreSQL 文本列均不接受二者
func SanitizeText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return strings.ReplaceAll(s, "\x00", "")
}

// truncateRunes 按字符截断并去除首尾空白
func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

func boundTitle(s string) string {
	return truncateRunes(SanitizeText(s), MaxTitleRunes)
}

func boundResourceType(s string) string {
	s = truncateRunes(strings.ToLower(SanitizeText(s)), MaxResourceTypeRunes)
	if s == "" {
		return defaultResourceType
	}
	return s
}

// sanitizePlan 收敛单日计划中所有将写入文本列的字段
func sanitizePlan(p *DailyPlan) {
	p.Title = boundTitle(p.Title)
	p.Description = SanitizeText(p.Description)

	tasks := make([]Task, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		t.Title = strings.TrimSpace(SanitizeText(t.Title))
		if t.Title == "" {
			continue
		}
		tasks = append(tasks, t)
	}
	p.Tasks = tasks

	resources := make([]Resource, 0, len(p.Resources))
	for _, r := range p.Resources {
		r.Name = boundTitle(r.Name)
		r.URL = strings.TrimSpace(SanitizeText(r.URL))
		if r.Name == "" {
			r.Name = truncateRunes(r.URL, MaxTitleRunes)
		}
		if r.Name == "" {
			continue
		}
		r.Type = boundResourceType(r.Type)
		resources = append(resources, r)
	}
	p.Resources = resources

	if p.Quiz == nil {
		return
	}
	quiz := *p.Quiz
	quiz.Title = boundTitle(quiz.Title)
	questions := make([]Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		q.Text = SanitizeText(q.Text)
		q.Explanation = SanitizeText(q.Explanation)
		options := make([]Option, len(q.Options))
		for i, o := range q.Options {
			options[i] = Option{Text: SanitizeText(o.Text), IsCorrect: o.IsCorrect}
		}
		q.Options = options
		questions = append(questions, q)
	}
	if quiz.Questions != nil {
		quiz.Questions = questions
	}
	p.Quiz = &quiz
}
