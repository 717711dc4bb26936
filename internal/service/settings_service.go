package service

import (
	"context"
	"edu_tutor_backend/internal/model"
	"edu_tutor_backend/internal/repository"
	"edu_tutor_backend/internal/util"
	"errors"
)

type SettingsService struct {
	settingRepo *repository.SettingRepository
	ai          AIClient
}

func NewSettingsService(settingRepo *repository.SettingRepository, ai AIClient) *SettingsService {
	return &SettingsService{settingRepo: settingRepo, ai: ai}
}

func (s *SettingsService) Get(userID uint) (*model.UserSetting, error) {
	return s.settingRepo.FindByUser(userID)
}

func (s *SettingsService) UpdateTheme(userID uint, theme string) (*model.UserSetting, error) {
	if !model.ValidTheme(theme) {
		return nil, util.ErrInvalidTheme
	}
	setting := &model.UserSetting{UserID: userID, Theme: theme}
	if err := s.settingRepo.Save(setting); err != nil {
		return nil, err
	}
	return s.settingRepo.FindByUser(userID)
}

// KeyStatus 密钥校验的三种用户可见结果
type KeyStatus struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ValidateAIKey 用真实调用确认密钥可用。
// 无效密钥与服务暂时不可用返回不同的结果。
func (s *SettingsService) ValidateAIKey(ctx context.Context, key string) (*KeyStatus, error) {
	err := s.ai.ValidateKey(ctx, key)
	if err == nil {
		return &KeyStatus{Valid: true}, nil
	}
	if errors.Is(err, util.ErrInvalidAPIKey) {
		return &KeyStatus{Valid: false, Message: "api key is invalid"}, nil
	}
	// 瞬时故障：无法判定密钥有效性
	return nil, err
}
