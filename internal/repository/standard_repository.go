package repository

import (
	"edu_tutor_backend/internal/model"

	"gorm.io/gorm"
)

type StandardRepository struct {
	DB *gorm.DB
}

func NewStandardRepository(db *gorm.DB) *StandardRepository {
	return &StandardRepository{DB: db}
}

func (r *StandardRepository) FindByID(id uint) (*model.Standard, error) {
	var std model.Standard
	err := r.DB.First(&std, id).Error
	return &std, err
}

func (r *StandardRepository) List(subject, schoolLevel string, page, limit int) ([]model.Standard, int64, error) {
	var stds []model.Standard
	var total int64

	query := r.DB.Model(&model.Standard{})
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if schoolLevel != "" {
		query = query.Where("school_level = ?", schoolLevel)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("subject asc, code asc").Offset(offset).Limit(limit).Find(&stds).Error
	return stds, total, err
}

func (r *StandardRepository) ListSubjects() ([]string, error) {
	var subjects []string
	err := r.DB.Model(&model.Standard{}).Distinct("subject").
		Order("subject asc").Pluck("subject", &subjects).Error
	return subjects, err
}
