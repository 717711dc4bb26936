package model

import "time"

const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

// Evaluation AI对主观题作答的评价结果
type Evaluation struct {
	Grade    Grade  `json:"grade"`
	Feedback string `json:"feedback"`
}

// QuizSession 进行中的测验会话。Answers/Checked/Grades/Evaluations/Drafts
// 均与Questions等长且按相同下标对应，这一不变式由NewQuizSession保证，
// 所有状态迁移只通过service层的迁移函数进行。
type QuizSession struct {
	ID           string        `json:"id"`
	UserID       uint          `json:"userId"`
	StandardID   uint          `json:"standardId"`
	Subject      string        `json:"subject"`
	StandardCode string        `json:"standardCode"`
	StandardDesc string        `json:"standardDesc"`
	Questions    []Question    `json:"questions"`
	Answers      []*string     `json:"answers"`
	Drafts       []string      `json:"drafts"`
	Checked      []bool        `json:"checked"`
	Grades       []Grade       `json:"grades"`
	Evaluations  []*Evaluation `json:"evaluations"`
	CurrentIndex int           `json:"currentIndex"`
	State        string        `json:"state"`

	// 瞬态显示开关：脚本在翻页时复位，译文开关跨题保留
	ShowScript      bool `json:"showScript"`
	ShowTranslation bool `json:"showTranslation"`

	CreatedAt time.Time `json:"createdAt"`
}

func NewQuizSession(id string, userID uint, std *Standard, questions []Question) *QuizSession {
	n := len(questions)
	return &QuizSession{
		ID:           id,
		UserID:       userID,
		StandardID:   std.ID,
		Subject:      std.Subject,
		StandardCode: std.Code,
		StandardDesc: std.Description,
		Questions:    questions,
		Answers:      make([]*string, n),
		Drafts:       make([]string, n),
		Checked:      make([]bool, n),
		Grades:       make([]Grade, n),
		Evaluations:  make([]*Evaluation, n),
		CurrentIndex: 0,
		State:        SessionInProgress,
		CreatedAt:    time.Now(),
	}
}

func (s *QuizSession) Current() *Question {
	return &s.Questions[s.CurrentIndex]
}

func (s *QuizSession) OnLastQuestion() bool {
	return s.CurrentIndex == len(s.Questions)-1
}
