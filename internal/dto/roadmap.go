package dto

// ── 学习路线模块 DTO ──

// GenerateRoadmapRequest 生成学习路线请求
type GenerateRoadmapRequest struct {
	Course       string `json:"course"       binding:"required,min=1,max=255"`
	DurationType string `json:"durationType" binding:"required,oneof=recommended custom"`
	CustomDays   *int   `json:"customDays"   binding:"omitempty,min=1,max=365"`
}

// ── 响应 ──

// GenerateRoadmapResponse 生成成功描述
type GenerateRoadmapResponse struct {
	UserCourseID          string  `json:"user_course_id"`
	CourseTitle           string  `json:"course_title"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	PlanSource            string  `json:"plan_source"` // ai | repaired | text | fallback
	TotalDays             int     `json:"total_days"`
}

// RoadmapSummary 学习路线摘要（我的路线列表 / 详情头部）
type RoadmapSummary struct {
	UserCourseID       string `json:"user_course_id"`
	CourseTitle        string `json:"course_title"`
	Description        string `json:"description,omitempty"`
	CustomDurationDays *int   `json:"custom_duration_days,omitempty"`
	StartDate          string `json:"start_date"`
	ProgressPercent    int    `json:"progress_percent"`
	Status             string `json:"status"`
	PlanSource         string `json:"plan_source"`
	TotalDays          int    `json:"total_days"`
	CompletedDays      int    `json:"completed_days"`
	CreatedAt          string `json:"created_at"`
}

// RoadmapDetailResponse 学习路线详情
type RoadmapDetailResponse struct {
	Roadmap    RoadmapSummary      `json:"roadmap"`
	DailyPlans []DailyPlanResponse `json:"daily_plans"`
}

// DailyPlanResponse 每日计划
type DailyPlanResponse struct {
	ID          string             `json:"id"`
	DayNumber   int                `json:"day_number"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	StudyHours  int                `json:"study_hours"`
	PlanType    string             `json:"plan_type"`
	IsCompleted bool               `json:"is_completed"`
	CompletedAt *string            `json:"completed_at,omitempty"`
	Quiz        *QuizBrief         `json:"quiz,omitempty"`
	Tasks       []TaskResponse     `json:"tasks"`
	Resources   []ResourceResponse `json:"resources"`
}

// QuizBrief 测验头
type QuizBrief struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	CoversDaysStart int    `json:"covers_days_start"`
	CoversDaysEnd   int    `json:"covers_days_end"`
}

// TaskResponse 任务
type TaskResponse struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	EstimatedMinutes int     `json:"estimated_minutes"`
	IsCompleted      bool    `json:"is_completed"`
	CompletedAt      *string `json:"completed_at,omitempty"`
}

// ResourceResponse 学习资源
type ResourceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Type string `json:"type"`
}

// QuizResponse 某天的测验（含题目）
type QuizResponse struct {
	Title       string                 `json:"title"`
	DayNumber   int                    `json:"day_number"`
	DayRange    string                 `json:"day_range"`
	CourseTitle string                 `json:"course_title"`
	Questions   []QuizQuestionResponse `json:"questions"`
}

// QuizQuestionResponse 测验题；CorrectAnswer 为正确选项下标，-1 表示未标注
type QuizQuestionResponse struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// ProbeResponse 生成服务连通性探测结果
type ProbeResponse struct {
	Reachable   bool   `json:"reachable"`
	StatusCode  int    `json:"status_code,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	BodyPreview string `json:"body_preview,omitempty"`
}
