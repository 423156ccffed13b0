package model

import "time"

// Quiz 测验表 — 对应 quizzes（每个测验日至多一个）
type Quiz struct {
	QuizID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"quiz_id"`
	DailyPlanID     string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"daily_plan_id"`
	Title           string    `gorm:"type:varchar(255);not null"                     json:"title"`
	CoversDaysStart int       `gorm:"not null"                                       json:"covers_days_start"`
	CoversDaysEnd   int       `gorm:"not null"                                       json:"covers_days_end"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

// TableName 指定表名
func (Quiz) TableName() string { return "quizzes" }

// QuizQuestion 测验题表 — 对应 quiz_questions
type QuizQuestion struct {
	QuestionID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"question_id"`
	QuizID        string `gorm:"type:uuid;not null;index"                       json:"quiz_id"`
	QuestionText  string `gorm:"type:text;not null"                             json:"question_text"`
	QuestionOrder int    `gorm:"not null"                                       json:"question_order"`
	Explanation   string `gorm:"type:text"                                      json:"explanation,omitempty"`

	// 关联
	Options []QuizOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

// TableName 指定表名
func (QuizQuestion) TableName() string { return "quiz_questions" }

// QuizOption 选项表 — 对应 quiz_options
type QuizOption struct {
	OptionID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"option_id"`
	QuestionID  string `gorm:"type:uuid;not null;index"                       json:"question_id"`
	OptionText  string `gorm:"type:text;not null"                             json:"option_text"`
	OptionOrder int    `gorm:"not null"                                       json:"option_order"`
	IsCorrect   bool   `gorm:"not null;default:false"                         json:"is_correct"`
}

// TableName 指定表名
func (QuizOption) TableName() string { return "quiz_options" }
