package model

// Course 课程表 — 对应 courses（标题唯一，生成时按标题 upsert）
type Course struct {
	CourseID                string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Title                   string `gorm:"type:varchar(255);not null;uniqueIndex:uq_courses_title" json:"title"`
	Description             string `gorm:"type:text"                                      json:"description,omitempty"`
	RecommendedDurationDays int    `gorm:"not null;default:30"                            json:"recommended_duration_days"`
	CreatedByAI             bool   `gorm:"column:created_by_ai;not null;default:true"     json:"created_by_ai"`
	Timestamps
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
