package model

import "time"

// 用户课程状态
const (
	UserCourseInProgress = "in_progress"
	UserCourseCompleted  = "completed"
	UserCoursePaused     = "paused"
)

// UserCourse 用户课程实例表 — 对应 user_courses
type UserCourse struct {
	UserCourseID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_course_id"`
	UserID             string    `gorm:"type:varchar(64);not null;index"                json:"user_id"`
	CourseID           string    `gorm:"type:uuid;not null"                             json:"course_id"`
	CustomDurationDays *int      `json:"custom_duration_days,omitempty"`
	StartDate          time.Time `gorm:"type:date;not null"                             json:"start_date"`
	Status             string    `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"` // in_progress | completed | paused
	PlanSource         string    `gorm:"type:varchar(20);not null;default:'ai'"         json:"plan_source"` // ai | repaired | text | fallback
	ProgressPercent    int       `gorm:"not null;default:0"                             json:"progress_percent"`
	DaysCompleted      int       `gorm:"not null;default:0"                             json:"days_completed"`
	TotalDays          int       `gorm:"not null;default:0"                             json:"total_days"`
	VersionedTimestamps

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (UserCourse) TableName() string { return "user_courses" }
