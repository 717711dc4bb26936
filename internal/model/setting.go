package model

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// UserSetting 用户界面偏好
type UserSetting struct {
	BaseModel
	UserID uint   `gorm:"uniqueIndex;not null" json:"userId"`
	Theme  string `gorm:"size:10;default:'system'" json:"theme"`
}

func (UserSetting) TableName() string {
	return "user_settings"
}

func ValidTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark || theme == ThemeSystem
}
