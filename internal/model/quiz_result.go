package model

import "encoding/json"

// QuizResult 测验完成时落库的不可变快照，只允许按ID删除
// swagger:model QuizResult
type QuizResult struct {
	BaseModel
	UserID       uint            `gorm:"index;not null" json:"userId"`
	Subject      string          `gorm:"size:50;index" json:"subject"`
	StandardCode string          `gorm:"size:50" json:"standardCode"`
	StandardDesc string          `gorm:"type:text" json:"standardDesc"`
	Score        float64         `gorm:"not null" json:"score"` // 0-100
	CorrectCount int             `gorm:"not null" json:"correctCount"`
	TotalCount   int             `gorm:"not null" json:"totalCount"`
	Questions    json.RawMessage `gorm:"type:json" json:"questions"`
	Answers      json.RawMessage `gorm:"type:json" json:"answers"`
	Correctness  json.RawMessage `gorm:"type:json" json:"correctness"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
