package repository

import (
	"edu_tutor_backend/internal/model"

	"gorm.io/gorm"
)

type QuizResultRepository struct {
	DB *gorm.DB
}

func NewQuizResultRepository(db *gorm.DB) *QuizResultRepository {
	return &QuizResultRepository{DB: db}
}

func (r *QuizResultRepository) Create(result *model.QuizResult) error {
	return r.DB.Create(result).Error
}

func (r *QuizResultRepository) FindByID(id uint) (*model.QuizResult, error) {
	var res model.QuizResult
	err := r.DB.First(&res, id).Error
	return &res, err
}

func (r *QuizResultRepository) ListByUser(userID uint, page, limit int) ([]model.QuizResult, int64, error) {
	var results []model.QuizResult
	var total int64

	query := r.DB.Model(&model.QuizResult{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&results).Error
	return results, total, err
}

func (r *QuizResultRepository) Delete(id uint) error {
	return r.DB.Delete(&model.QuizResult{}, id).Error
}

// SubjectStat 按科目聚合的历史成绩
type SubjectStat struct {
	Subject      string  `json:"subject"`
	Attempts     int64   `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
	BestScore    float64 `json:"bestScore"`
}

func (r *QuizResultRepository) StatsByUser(userID uint) ([]SubjectStat, error) {
	var stats []SubjectStat
	err := r.DB.Model(&model.QuizResult{}).
		Select("subject, COUNT(*) as attempts, AVG(score) as average_score, MAX(score) as best_score").
		Where("user_id = ?", userID).
		Group("subject").
		Order("subject asc").
		Scan(&stats).Error
	return stats, err
}

type OverallStat struct {
	Attempts     int64   `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
}

func (r *QuizResultRepository) OverallByUser(userID uint) (*OverallStat, error) {
	var stat OverallStat
	err := r.DB.Model(&model.QuizResult{}).
		Select("COUNT(*) as attempts, COALESCE(AVG(score), 0) as average_score").
		Where("user_id = ?", userID).
		Scan(&stat).Error
	return &stat, err
}
