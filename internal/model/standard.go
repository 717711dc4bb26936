package model

// Standard 课程成就标准（学习目标），学生从中选择学习主题
// swagger:model Standard
type Standard struct {
	BaseModel
	Subject     string `gorm:"size:50;index;not null" json:"subject"`
	SchoolLevel string `gorm:"size:20" json:"schoolLevel"` // elementary, middle, high
	GradeBand   string `gorm:"size:20" json:"gradeBand"`   // 例如 "3-4", "5-6"
	Code        string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Description string `gorm:"type:text;not null" json:"description"`
}

func (Standard) TableName() string {
	return "standards"
}
