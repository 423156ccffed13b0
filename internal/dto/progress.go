package dto

// ── 学习进度模块 DTO ──

// ToggleCompletionRequest 任务 / 每日计划完成状态切换
type ToggleCompletionRequest struct {
	IsCompleted *bool `json:"is_completed" binding:"required"`
}

// SyncProgressRequest 手动同步进度
type SyncProgressRequest struct {
	ProgressPercent *int `json:"progress_percent" binding:"required,min=0,max=100"`
}

// ── 响应 ──

// ProgressResponse 学习进度
type ProgressResponse struct {
	UserCourseID        string `json:"user_course_id"`
	ProgressPercent     int    `json:"progress_percent"`
	DaysCompleted       int    `json:"days_completed"`
	TotalDays           int    `json:"total_days"`
	ActualTotalDays     int    `json:"actual_total_days"`
	ActualCompletedDays int    `json:"actual_completed_days"`
	TotalQuizzes        int    `json:"total_quizzes"`
	Status              string `json:"status"`
}

// TaskCompletionResponse 任务完成状态
type TaskCompletionResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	IsCompleted bool    `json:"is_completed"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// DayCompletionResponse 每日计划完成状态及重算后的进度
type DayCompletionResponse struct {
	ID          string           `json:"id"`
	DayNumber   int              `json:"day_number"`
	IsCompleted bool             `json:"is_completed"`
	CompletedAt *string          `json:"completed_at,omitempty"`
	Progress    ProgressResponse `json:"progress"`
}
