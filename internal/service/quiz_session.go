package service

import (
	"edu_tutor_backend/internal/model"
	"edu_tutor_backend/internal/util"
	"strings"
)

// 会话状态迁移函数。全部以当前题为操作对象，迁移被拒绝时
// 返回哨兵错误且会话保持原状。调用方（QuizService）负责加载与回写。

// SelectOption 记录客观题的选项，仅在当前题未判卷时允许
func SelectOption(s *model.QuizSession, option string) error {
	if s.State == model.SessionCompleted {
		return util.ErrSessionCompleted
	}
	i := s.CurrentIndex
	if s.Checked[i] {
		return util.ErrQuestionChecked
	}
	if !s.Questions[i].IsObjective() {
		return util.ErrNotObjective
	}
	s.Answers[i] = &option
	return nil
}

// EditFreeText 更新主观题的作答草稿，判卷前可反复修改
func EditFreeText(s *model.QuizSession, text string) error {
	if s.State == model.SessionCompleted {
		return util.ErrSessionCompleted
	}
	i := s.CurrentIndex
	if s.Checked[i] {
		return util.ErrQuestionChecked
	}
	if !s.Questions[i].IsFreeText() {
		return util.ErrNotFreeText
	}
	s.Drafts[i] = text
	return nil
}

// CheckAnswer 判卷：把草稿提交为正式作答并标记已判卷。
// 有听力/阅读文本的题目判卷后自动展示原文。
func CheckAnswer(s *model.QuizSession) error {
	if s.State == model.SessionCompleted {
		return util.ErrSessionCompleted
	}
	i := s.CurrentIndex
	if s.Checked[i] {
		return util.ErrQuestionChecked
	}

	q := &s.Questions[i]
	if q.IsFreeText() {
		draft := strings.TrimSpace(s.Drafts[i])
		if draft == "" {
			return util.ErrAnswerMissing
		}
		s.Answers[i] = &draft
	} else if s.Answers[i] == nil {
		return util.ErrAnswerMissing
	}

	s.Checked[i] = true
	if q.Passage != "" {
		s.ShowScript = true
	}
	return nil
}

// ApplyEvaluation 写入AI评价结果，重复调用会覆盖之前的结果
func ApplyEvaluation(s *model.QuizSession, eval *model.Evaluation) error {
	if s.State == model.SessionCompleted {
		return util.ErrSessionCompleted
	}
	i := s.CurrentIndex
	if !s.Checked[i] {
		return util.ErrQuestionNotChecked
	}
	if !s.Questions[i].IsFreeText() {
		return util.ErrNotFreeText
	}
	s.Evaluations[i] = eval
	return nil
}

// SelectGrade 记录人工确认的评分等级，可覆盖
func SelectGrade(s *model.QuizSession, grade model.Grade) error {
	if s.State == model.SessionCompleted {
		return util.ErrSessionCompleted
	}
	if !grade.Valid() {
		return util.ErrInvalidGrade
	}
	i := s.CurrentIndex
	if !s.Checked[i] {
		return util.ErrQuestionNotChecked
	}
	if !s.Questions[i].IsFreeText() {
		return util.ErrNotFreeText
	}
	s.Grades[i] = grade
	return nil
}

// Advance 前进到下一题；在最后一题上结算并进入completed状态。
// 主观题必须先选定评分等级才能前进。翻页时复位脚本显示，译文开关保留。
func Advance(s *model.QuizSession) (*ScoreSummary, error) {
	if s.State == model.SessionCompleted {
		return nil, util.ErrSessionCompleted
	}
	i := s.CurrentIndex
	if !s.Checked[i] {
		return nil, util.ErrQuestionNotChecked
	}
	if s.Questions[i].IsFreeText() && s.Grades[i] == "" {
		return nil, util.ErrGradeRequired
	}

	if !s.OnLastQuestion() {
		s.CurrentIndex++
		s.ShowScript = false
		return nil, nil
	}

	summary := ScoreSession(s)
	s.State = model.SessionCompleted
	return summary, nil
}

// GoBack 回到上一题，不改动任何已记录的作答、判卷标记或评分
func GoBack(s *model.QuizSession) error {
	if s.State == model.SessionCompleted {
		return util.ErrSessionCompleted
	}
	if s.CurrentIndex == 0 {
		return util.ErrAlreadyFirst
	}
	s.CurrentIndex--
	return nil
}

// ToggleTranslation 译文显示开关，跨题保留
func ToggleTranslation(s *model.QuizSession) {
	s.ShowTranslation = !s.ShowTranslation
}

// ScoreSummary 结算结果，连同逐题作答与逐题正误一并交给持久化层
type ScoreSummary struct {
	Score        float64   `json:"score"`
	CorrectCount int       `json:"correctCount"`
	TotalCount   int       `json:"totalCount"`
	Answers      []*string `json:"answers"`
	Correctness  []bool    `json:"correctness"`
}

// ScoreSession 结算：每题只累计一遍，得分权重与正确计数同趟算出。
// 客观题按答案匹配得1.0/0.0并计入正确数；主观题按等级权重计分，
// 只有A/B计入正确数。
func ScoreSession(s *model.QuizSession) *ScoreSummary {
	n := len(s.Questions)
	correctness := make([]bool, n)

	var weightSum float64
	correctCount := 0

	for i, q := range s.Questions {
		var weight float64
		var correct bool

		if q.IsObjective() {
			if s.Answers[i] != nil {
				pos := OptionPosition(q.Options, *s.Answers[i])
				correct = MatchAnswer(*s.Answers[i], q.Answer, pos)
			}
			if correct {
				weight = 1.0
			}
		} else {
			weight = s.Grades[i].Weight()
			correct = s.Grades[i] != "" && s.Grades[i].CountsCorrect()
		}

		weightSum += weight
		if correct {
			correctCount++
		}
		correctness[i] = correct
	}

	score := 0.0
	if n > 0 {
		score = weightSum / float64(n) * 100
	}

	return &ScoreSummary{
		Score:        score,
		CorrectCount: correctCount,
		TotalCount:   n,
		Answers:      s.Answers,
		Correctness:  correctness,
	}
}
