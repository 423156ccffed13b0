// Package ingest 将 AI 生成服务的原始输出转换为规范化的学习计划。
//
// 流水线：信封解包 → 文本清洗 → 截断修复 → JSON 解析 → 结构校验 → 规范化转换，
// 任一可恢复失败（修复失败、解析失败、校验拒绝）均回退到确定性的占位计划。
// 包内函数均为纯函数，不做 I/O。
package ingest

// PlanType 每日计划类型
type PlanType string

const (
	PlanRegular   PlanType = "regular"
	PlanQuiz      PlanType = "quiz"
	PlanFinalExam PlanType = "final_exam"
)

// ── 规范化前的宽松结构 ──

// CandidateSchedule 已解包、未校验的计划
type CandidateSchedule struct {
	// Present 为 false 表示负载中不存在 daily_plan 字段
	Present   bool
	DailyPlan []DayEntry
}

// DayEntry 单日原始条目，所有字段均可能缺失
type DayEntry struct {
	Day           *int
	Title         *string
	Description   *string
	Topics        []string
	EstimatedTime *string
	PlanType      *string
	Quiz          *QuizBlock
	Resources     []ResourceEntry
}

// QuizBlock 原始测验块
type QuizBlock struct {
	Title       *string
	CoversStart *int
	CoversEnd   *int
	Questions   []QuestionEntry
}

// QuestionEntry 原始测验题
type QuestionEntry struct {
	Text          *string
	Options       []OptionEntry
	CorrectAnswer *string
	Explanation   *string
}

// OptionEntry 原始选项
type OptionEntry struct {
	Text      string
	IsCorrect *bool
}

// ResourceEntry 原始学习资源
type ResourceEntry struct {
	Name *string
	URL  *string
	Type *string
}

// ── 规范化输出 ──

// DailyPlan 规范化的单日计划
type DailyPlan struct {
	DayNumber   int        `json:"day_number"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StudyHours  int        `json:"study_hours"`
	PlanType    PlanType   `json:"plan_type"`
	Tasks       []Task     `json:"tasks"`
	Quiz        *Quiz      `json:"quiz,omitempty"`
	Resources   []Resource `json:"resources"`
}

// Task 单日任务
type Task struct {
	Title            string `json:"title"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// Quiz 测验
type Quiz struct {
	Title           string     `json:"title"`
	CoversDaysStart int        `json:"covers_days_start"`
	CoversDaysEnd   int        `json:"covers_days_end"`
	Questions       []Question `json:"questions"`
}

// Question 测验题
type Question struct {
	Text        string   `json:"text"`
	Options     []Option `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
}

// Option 选项
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Resource 学习资源
type Resource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// MaxDay 返回计划中的最大天数
func MaxDay(plans []DailyPlan) int {
	max := 0
	for _, p := range plans {
		if p.DayNumber > max {
			max = p.DayNumber
		}
	}
	return max
}

func ptr[T any](v T) *T { return &v }
