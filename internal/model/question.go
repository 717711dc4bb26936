package model

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	OpenEnded      QuestionType = "open_ended"
)

// Question 一道生成的测验题。客观题必须有选项和标准答案，
// 主观题没有选项，answer字段存放评分要点/示范答案。
// swagger:model Question
type Question struct {
	Type                   QuestionType `json:"type"`
	Prompt                 string       `json:"prompt"`
	PromptTranslation      string       `json:"promptTranslation,omitempty"`
	Passage                string       `json:"passage,omitempty"`
	PassageTranslation     string       `json:"passageTranslation,omitempty"`
	Options                []string     `json:"options,omitempty"`
	Answer                 string       `json:"answer"`
	Explanation            string       `json:"explanation"`
	ExplanationTranslation string       `json:"explanationTranslation,omitempty"`
	WantsIllustration      bool         `json:"wantsIllustration,omitempty"`
	IllustrationURL        string       `json:"illustrationUrl,omitempty"`
}

// IsObjective 客观题：选择题或判断题，按答案匹配计分
func (q Question) IsObjective() bool {
	return q.Type == MultipleChoice || q.Type == TrueFalse
}

// IsFreeText 主观题：简答或开放题，按评分等级计分
func (q Question) IsFreeText() bool {
	return q.Type == ShortAnswer || q.Type == OpenEnded
}
