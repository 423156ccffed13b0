package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmeeeeedddddd/Studify/internal/model"
)

// QuizRepository 测验数据访问接口
type QuizRepository interface {
	Create(ctx context.Context, quiz *model.Quiz) error
	CreateQuestion(ctx context.Context, question *model.QuizQuestion) error
	BatchCreateOptions(ctx context.Context, options []model.QuizOption) error
	// GetByPlan 返回测验及按顺序排列的题目与选项
	GetByPlan(ctx context.Context, planID string) (*model.Quiz, error)
}

type quizRepo struct {
	db *gorm.DB
}

func NewQuizRepo(db *gorm.DB) QuizRepository {
	return &quizRepo{db: db}
}

func (r *quizRepo) Create(ctx context.Context, quiz *model.Quiz) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(quiz).Error
}

func (r *quizRepo) CreateQuestion(ctx context.Context, question *model.QuizQuestion) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(question).Error
}

func (r *quizRepo) BatchCreateOptions(ctx context.Context, options []model.QuizOption) error {
	if len(options) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&options).Error
}

func (r *quizRepo) GetByPlan(ctx context.Context, planID string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("option_order ASC")
		}).
		Where("daily_plan_id = ?", planID).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}
