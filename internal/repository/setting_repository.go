package repository

import (
	"edu_tutor_backend/internal/model"
	"errors"

	"gorm.io/gorm"
)

type SettingRepository struct {
	DB *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{DB: db}
}

// FindByUser 没有记录时返回默认设置
func (r *SettingRepository) FindByUser(userID uint) (*model.UserSetting, error) {
	var setting model.UserSetting
	err := r.DB.Where("user_id = ?", userID).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.UserSetting{UserID: userID, Theme: model.ThemeSystem}, nil
	}
	return &setting, err
}

func (r *SettingRepository) Save(setting *model.UserSetting) error {
	var existing model.UserSetting
	err := r.DB.Where("user_id = ?", setting.UserID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.Create(setting).Error
	}
	if err != nil {
		return err
	}
	existing.Theme = setting.Theme
	return r.DB.Save(&existing).Error
}
