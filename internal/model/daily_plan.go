package model

import "time"

// DailyPlan 每日计划表 — 对应 daily_plans（同一用户课程内 day_number 唯一）
type DailyPlan struct {
	DailyPlanID  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"daily_plan_id"`
	UserCourseID string     `gorm:"type:uuid;not null"                             json:"user_course_id"`
	DayNumber    int        `gorm:"not null"                                       json:"day_number"`
	Title        string     `gorm:"type:varchar(255);not null"                     json:"title"`
	Description  string     `gorm:"type:text"                                      json:"description,omitempty"`
	StudyHours   int        `gorm:"not null;default:2"                             json:"study_hours"`
	PlanType     string     `gorm:"type:varchar(20);not null;default:'regular'"    json:"plan_type"` // regular | quiz | final_exam
	IsCompleted  bool       `gorm:"not null;default:false"                         json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Tasks     []Task     `gorm:"foreignKey:DailyPlanID" json:"tasks,omitempty"`
	Resources []Resource `gorm:"foreignKey:DailyPlanID" json:"resources,omitempty"`
	Quiz      *Quiz      `gorm:"foreignKey:DailyPlanID" json:"quiz,omitempty"`
}

// TableName 指定表名
func (DailyPlan) TableName() string { return "daily_plans" }

// Task 每日任务表 — 对应 tasks
type Task struct {
	TaskID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"task_id"`
	DailyPlanID      string     `gorm:"type:uuid;not null;index"                       json:"daily_plan_id"`
	Title            string     `gorm:"type:text;not null"                             json:"title"`
	EstimatedMinutes int        `gorm:"not null;default:60"                            json:"estimated_minutes"`
	TaskOrder        int        `gorm:"not null;default:0"                             json:"task_order"`
	IsCompleted      bool       `gorm:"not null;default:false"                         json:"is_completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Task) TableName() string { return "tasks" }

// Resource 学习资源表 — 对应 resources
type Resource struct {
	ResourceID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"resource_id"`
	DailyPlanID  string `gorm:"type:uuid;not null;index"                       json:"daily_plan_id"`
	Name         string `gorm:"type:varchar(255);not null"                     json:"name"`
	URL          string `gorm:"column:url;type:text"                           json:"url,omitempty"`
	ResourceType string `gorm:"type:varchar(32);not null;default:'link'"       json:"resource_type"`
}

// TableName 指定表名
func (Resource) TableName() string { return "resources" }
