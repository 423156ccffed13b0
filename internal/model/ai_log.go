package model

import (
	"time"

	"gorm.io/datatypes"
)

// AIRecommendationLog AI 生成审计日志 — 对应 ai_recommendation_logs（只追加）
type AIRecommendationLog struct {
	LogID             string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	UserID            string         `gorm:"type:varchar(64);not null"                      json:"user_id"`
	UserCourseID      *string        `gorm:"type:uuid"                                      json:"user_course_id,omitempty"`
	CourseTitle       string         `gorm:"type:varchar(255);not null"                     json:"course_title"`
	UserInputDuration *int           `json:"user_input_duration,omitempty"`
	PlanSource        string         `gorm:"type:varchar(20);not null"                      json:"plan_source"`
	AIOutput          datatypes.JSON `gorm:"column:ai_output;type:jsonb"                    json:"ai_output,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AIRecommendationLog) TableName() string { return "ai_recommendation_logs" }
