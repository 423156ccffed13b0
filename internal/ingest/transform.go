package ingest

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultTaskMinutes 每个主题生成的任务预计时长
	DefaultTaskMinutes   = 60
	defaultResourceType  = "link"
	maxDerivedTitleRunes = 100
)

// Transform 将通过校验的条目逐个宽松映射为规范计划，再统一修正跨条目约束。
// 输出条目数与输入一致。
func Transform(entries []DayEntry) []DailyPlan {
	plans := make([]DailyPlan, 0, len(entries))
	for _, e := range entries {
		plans = append(plans, ToDailyPlan(e))
	}
	return Canonicalize(plans)
}

// ToDailyPlan 单条目的纯映射；缺失的天数保留为 0，由 Canonicalize 分配
func ToDailyPlan(e DayEntry) DailyPlan {
	p := DailyPlan{
		StudyHours: ParseStudyHours(e.EstimatedTime),
		PlanType:   ParsePlanType(e.PlanType),
		Tasks:      tasksFromTopics(e.Topics),
		Resources:  mapResources(e.Resources),
	}
	if e.Day != nil && *e.Day > 0 {
		p.DayNumber = *e.Day
	}
	if e.Description != nil {
		p.Description = strings.TrimSpace(*e.Description)
	}
	if e.Title != nil {
		p.Title = strings.TrimSpace(*e.Title)
	}
	if p.Title == "" {
		p.Title = titleFromText(p.Description)
	}
	if e.Quiz != nil {
		p.Quiz = mapQuiz(e.Quiz, p.Title)
		if p.PlanType == PlanRegular {
			p.PlanType = PlanQuiz
		}
	}
	return p
}

// ParsePlanType 识别计划类型标签，未知或缺失时为 regular
func ParsePlanType(raw *string) PlanType {
	if raw == nil {
		return PlanRegular
	}
	s := strings.ToLower(strings.TrimSpace(*raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	switch {
	case s == "final_exam" || s == "finalexam" || s == "final" || s == "exam" || s == "final_examination":
		return PlanFinalExam
	case strings.Contains(s, "quiz") || strings.Contains(s, "test") || strings.Contains(s, "exam"):
		return PlanQuiz
	default:
		return PlanRegular
	}
}

func tasksFromTopics(topics []string) []Task {
	tasks := make([]Task, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tasks = append(tasks, Task{Title: t, EstimatedMinutes: DefaultTaskMinutes})
	}
	return tasks
}

func mapResources(entries []ResourceEntry) []Resource {
	out := make([]Resource, 0, len(entries))
	for _, r := range entries {
		var res Resource
		if r.Name != nil {
			res.Name = *r.Name
		}
		if r.URL != nil {
			res.URL = *r.URL
		}
		if res.Name == "" && res.URL == "" {
			continue
		}
		if res.Name == "" {
			res.Name = res.URL
		}
		res.Type = defaultResourceType
		if r.Type != nil {
			res.Type = boundResourceType(*r.Type)
		}
		out = append(out, res)
	}
	return out
}

func mapQuiz(q *QuizBlock, planTitle string) *Quiz {
	quiz := &Quiz{Title: planTitle, Questions: []Question{}}
	if q.Title != nil {
		quiz.Title = *q.Title
	}
	if q.CoversStart != nil {
		quiz.CoversDaysStart = *q.CoversStart
	}
	if q.CoversEnd != nil {
		quiz.CoversDaysEnd = *q.CoversEnd
	}
	for _, qe := range q.Questions {
		if question, ok := mapQuestion(qe); ok {
			quiz.Questions = append(quiz.Questions, question)
		}
	}
	return quiz
}

// mapQuestion 无题干或无选项的题目被丢弃。
// 显式的选项标记优先；否则按 correct_answer 解析（下标、字母或选项文本）。
// 给出了正确性信息却定位不到唯一正确选项的题目同样丢弃；完全没有正确性信息的题目保留且无正确选项。
func mapQuestion(qe QuestionEntry) (Question, bool) {
	if qe.Text == nil || len(qe.Options) == 0 {
		return Question{}, false
	}
	q := Question{Text: *qe.Text, Options: make([]Option, 0, len(qe.Options))}
	if qe.Explanation != nil {
		q.Explanation = *qe.Explanation
	}

	correct := -1
	flagged := false
	for i, o := range qe.Options {
		if o.IsCorrect == nil {
			continue
		}
		flagged = true
		if *o.IsCorrect {
			correct = i
			break
		}
	}
	answered := qe.CorrectAnswer != nil && strings.TrimSpace(*qe.CorrectAnswer) != ""
	if correct < 0 && answered {
		correct = resolveCorrectAnswer(*qe.CorrectAnswer, qe.Options)
	}
	if correct < 0 && (flagged || answered) {
		return Question{}, false
	}

	for i, o := range qe.Options {
		q.Options = append(q.Options, Option{Text: o.Text, IsCorrect: i == correct})
	}
	return q, true
}

func resolveCorrectAnswer(answer string, options []OptionEntry) int {
	answer = strings.TrimSpace(answer)
	if n, err := strconv.Atoi(answer); err == nil && n >= 0 && n < len(options) {
		return n
	}
	if len(answer) == 1 {
		ch := answer[0] | 0x20
		if ch >= 'a' && ch <= 'z' && int(ch-'a') < len(options) {
			return int(ch - 'a')
		}
	}
	for i, o := range options {
		if strings.EqualFold(strings.TrimSpace(o.Text), answer) {
			return i
		}
	}
	return -1
}

// titleFromText 取首行作为标题：非空、非列表项、不超过 100 字符
func titleFromText(text string) string {
	line := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	if line == "" || bulletRe.MatchString(line) || utf8.RuneCountInString(line) >= maxDerivedTitleRunes {
		return ""
	}
	return line
}

// Canonicalize 修正跨条目约束：
//   - 缺失、重复或超出 MaxDayNumber 的天数依次追加到当前最大天数之后
//   - 按天数升序
//   - 文本字段按列宽截断并去除非法字符，空标题补为 "Day N"
//   - 学习时长限定在 [1, MaxStudyHours]
//   - final_exam 只允许出现在最后一天，其余降级为 quiz
//   - 测验日或带测验的日补齐测验头，覆盖范围限定在 [1, 当天]
func Canonicalize(plans []DailyPlan) []DailyPlan {
	out := make([]DailyPlan, len(plans))
	copy(out, plans)

	seen := make(map[int]bool, len(out))
	var pending []int
	max := 0
	for i := range out {
		d := out[i].DayNumber
		if d <= 0 || d > MaxDayNumber || seen[d] {
			pending = append(pending, i)
			continue
		}
		seen[d] = true
		if d > max {
			max = d
		}
	}
	for _, i := range pending {
		max++
		out[i].DayNumber = max
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DayNumber < out[j].DayNumber })

	last := MaxDay(out)
	for i := range out {
		p := &out[i]
		sanitizePlan(p)
		if p.Title == "" {
			p.Title = "Day " + strconv.Itoa(p.DayNumber)
		}
		if p.StudyHours < 1 {
			p.StudyHours = 1
		}
		if p.StudyHours > MaxStudyHours {
			p.StudyHours = MaxStudyHours
		}
		if p.PlanType == PlanFinalExam && p.DayNumber != last {
			p.PlanType = PlanQuiz
		}
		if p.Tasks == nil {
			p.Tasks = []Task{}
		}
		if p.Resources == nil {
			p.Resources = []Resource{}
		}
		if p.PlanType != PlanRegular || p.Quiz != nil {
			normalizeQuiz(p)
		}
	}
	return out
}

func normalizeQuiz(p *DailyPlan) {
	if p.Quiz == nil {
		p.Quiz = &Quiz{Title: p.Title, Questions: []Question{}}
	} else {
		quiz := *p.Quiz
		p.Quiz = &quiz
	}
	q := p.Quiz
	if strings.TrimSpace(q.Title) == "" {
		q.Title = p.Title
	}
	if q.CoversDaysEnd <= 0 || q.CoversDaysEnd > p.DayNumber {
		q.CoversDaysEnd = p.DayNumber
	}
	if q.CoversDaysStart <= 0 {
		if p.PlanType == PlanFinalExam {
			q.CoversDaysStart = 1
		} else {
			q.CoversDaysStart = q.CoversDaysEnd - quizInterval + 1
		}
	}
	if q.CoversDaysStart < 1 {
		q.CoversDaysStart = 1
	}
	if q.CoversDaysStart > q.CoversDaysEnd {
		q.CoversDaysStart = q.CoversDaysEnd
	}
	if q.Questions == nil {
		q.Questions = []Question{}
	}
}
