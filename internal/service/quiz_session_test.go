package service

import (
	"edu_tutor_backend/internal/model"
	"edu_tutor_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStandard() *model.Standard {
	return &model.Standard{
		Subject:     "영어",
		SchoolLevel: "초등학교",
		GradeBand:   "3-4",
		Code:        "4영01-01",
		Description: "쉽고 친숙한 낱말을 듣고 의미를 이해한다.",
	}
}

func newTestSession(questions []model.Question) *model.QuizSession {
	std := testStandard()
	std.ID = 1
	return model.NewQuizSession("test-session", 7, std, questions)
}

func mcQuestion(options []string, answer string) model.Question {
	return model.Question{
		Type:        model.MultipleChoice,
		Prompt:      "다음 중 올바른 것은?",
		Options:     options,
		Answer:      answer,
		Explanation: "해설",
	}
}

func freeTextQuestion() model.Question {
	return model.Question{
		Type:        model.ShortAnswer,
		Prompt:      "자유롭게 서술하시오.",
		Answer:      "채점 기준",
		Explanation: "해설",
	}
}

func TestSelectOptionOnlyBeforeCheck(t *testing.T) {
	s := newTestSession([]model.Question{mcQuestion([]string{"a", "b"}, "a")})

	require.NoError(t, SelectOption(s, "b"))
	require.NoError(t, SelectOption(s, "a")) // 判卷前可改选
	require.NoError(t, CheckAnswer(s))

	err := SelectOption(s, "b")
	assert.ErrorIs(t, err, util.ErrQuestionChecked)
	assert.Equal(t, "a", *s.Answers[0])
}

func TestSelectOptionRejectsFreeText(t *testing.T) {
	s := newTestSession([]model.Question{freeTextQuestion()})
	assert.ErrorIs(t, SelectOption(s, "a"), util.ErrNotObjective)
}

func TestEditFreeTextRejectsObjective(t *testing.T) {
	s := newTestSession([]model.Question{mcQuestion([]string{"a"}, "a")})
	assert.ErrorIs(t, EditFreeText(s, "draft"), util.ErrNotFreeText)
}

func TestCheckAnswerRequiresAnswer(t *testing.T) {
	s := newTestSession([]model.Question{
		mcQuestion([]string{"a", "b"}, "a"),
		freeTextQuestion(),
	})

	assert.ErrorIs(t, CheckAnswer(s), util.ErrAnswerMissing)

	require.NoError(t, SelectOption(s, "a"))
	require.NoError(t, CheckAnswer(s))
	require.NoError(t, func() error { _, err := Advance(s); return err }())

	// 纯空白草稿不算作答
	require.NoError(t, EditFreeText(s, "   \n"))
	assert.ErrorIs(t, CheckAnswer(s), util.ErrAnswerMissing)

	require.NoError(t, EditFreeText(s, "  내 답안  "))
	require.NoError(t, CheckAnswer(s))
	// 判卷时草稿去首尾空白后固化
	assert.Equal(t, "내 답안", *s.Answers[1])
}

func TestCheckAnswerRevealsScript(t *testing.T) {
	q := mcQuestion([]string{"a"}, "a")
	q.Passage = "듣기 대본입니다."
	s := newTestSession([]model.Question{q, mcQuestion([]string{"a"}, "a")})

	require.NoError(t, SelectOption(s, "a"))
	assert.False(t, s.ShowScript)
	require.NoError(t, CheckAnswer(s))
	assert.True(t, s.ShowScript)

	// 翻页复位脚本显示
	_, err := Advance(s)
	require.NoError(t, err)
	assert.False(t, s.ShowScript)
}

func TestGradeBeforeAdvance(t *testing.T) {
	s := newTestSession([]model.Question{freeTextQuestion(), mcQuestion([]string{"a"}, "a")})

	require.NoError(t, EditFreeText(s, "답안"))

	// 判卷前不能评分
	assert.ErrorIs(t, SelectGrade(s, model.GradeA), util.ErrQuestionNotChecked)

	require.NoError(t, CheckAnswer(s))

	// 未评分不能前进
	_, err := Advance(s)
	assert.ErrorIs(t, err, util.ErrGradeRequired)

	assert.ErrorIs(t, SelectGrade(s, model.Grade("F")), util.ErrInvalidGrade)

	require.NoError(t, SelectGrade(s, model.GradeC))
	require.NoError(t, SelectGrade(s, model.GradeB)) // 可覆盖
	_, err = Advance(s)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentIndex)
}

func TestApplyEvaluationOverwrites(t *testing.T) {
	s := newTestSession([]model.Question{freeTextQuestion()})

	eval := &model.Evaluation{Grade: model.GradeC, Feedback: "보통"}
	assert.ErrorIs(t, ApplyEvaluation(s, eval), util.ErrQuestionNotChecked)

	require.NoError(t, EditFreeText(s, "답안"))
	require.NoError(t, CheckAnswer(s))
	require.NoError(t, ApplyEvaluation(s, eval))

	better := &model.Evaluation{Grade: model.GradeA, Feedback: "훌륭함"}
	require.NoError(t, ApplyEvaluation(s, better))
	assert.Equal(t, better, s.Evaluations[0])
}

func TestGoBackBounds(t *testing.T) {
	s := newTestSession([]model.Question{mcQuestion([]string{"a"}, "a"), mcQuestion([]string{"a"}, "a")})

	assert.ErrorIs(t, GoBack(s), util.ErrAlreadyFirst)

	require.NoError(t, SelectOption(s, "a"))
	require.NoError(t, CheckAnswer(s))
	_, err := Advance(s)
	require.NoError(t, err)

	require.NoError(t, GoBack(s))
	assert.Equal(t, 0, s.CurrentIndex)
	// 回看不改动已判卷状态
	assert.True(t, s.Checked[0])
	assert.Equal(t, "a", *s.Answers[0])
}

func TestToggleTranslationPersistsAcrossQuestions(t *testing.T) {
	s := newTestSession([]model.Question{mcQuestion([]string{"a"}, "a"), mcQuestion([]string{"a"}, "a")})

	ToggleTranslation(s)
	assert.True(t, s.ShowTranslation)

	require.NoError(t, SelectOption(s, "a"))
	require.NoError(t, CheckAnswer(s))
	_, err := Advance(s)
	require.NoError(t, err)

	assert.True(t, s.ShowTranslation)
	ToggleTranslation(s)
	assert.False(t, s.ShowTranslation)
}

func TestCompletedSessionRejectsMutations(t *testing.T) {
	s := newTestSession([]model.Question{mcQuestion([]string{"a", "b"}, "a")})

	require.NoError(t, SelectOption(s, "a"))
	require.NoError(t, CheckAnswer(s))
	summary, err := Advance(s)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, model.SessionCompleted, s.State)

	assert.ErrorIs(t, SelectOption(s, "b"), util.ErrSessionCompleted)
	assert.ErrorIs(t, EditFreeText(s, "x"), util.ErrSessionCompleted)
	assert.ErrorIs(t, CheckAnswer(s), util.ErrSessionCompleted)
	assert.ErrorIs(t, SelectGrade(s, model.GradeA), util.ErrSessionCompleted)
	assert.ErrorIs(t, GoBack(s), util.ErrSessionCompleted)
	_, err = Advance(s)
	assert.ErrorIs(t, err, util.ErrSessionCompleted)
}

func answerFreeText(t *testing.T, s *model.QuizSession, text string, grade model.Grade) {
	t.Helper()
	require.NoError(t, EditFreeText(s, text))
	require.NoError(t, CheckAnswer(s))
	require.NoError(t, SelectGrade(s, grade))
}

func TestScoreSessionMixedQuiz(t *testing.T) {
	s := newTestSession([]model.Question{
		mcQuestion([]string{"사과", "바나나", "포도"}, "①"),
		mcQuestion([]string{"참", "거짓"}, "2"),
		freeTextQuestion(),
		freeTextQuestion(),
	})

	// 第1题：选项与带圈数字答案命中
	require.NoError(t, SelectOption(s, "사과"))
	require.NoError(t, CheckAnswer(s))
	_, err := Advance(s)
	require.NoError(t, err)

	// 第2题：1-based序号命中
	require.NoError(t, SelectOption(s, "거짓"))
	require.NoError(t, CheckAnswer(s))
	_, err = Advance(s)
	require.NoError(t, err)

	// 第3题：评B，计入正确
	answerFreeText(t, s, "꽤 괜찮은 답안", model.GradeB)
	_, err = Advance(s)
	require.NoError(t, err)

	// 第4题：评E，零分
	answerFreeText(t, s, "빈약한 답안", model.GradeE)
	summary, err := Advance(s)
	require.NoError(t, err)
	require.NotNil(t, summary)

	// (1.0 + 1.0 + 0.75 + 0.0) / 4 * 100
	assert.InDelta(t, 68.75, summary.Score, 1e-9)
	assert.Equal(t, 3, summary.CorrectCount)
	assert.Equal(t, 4, summary.TotalCount)
	assert.Equal(t, []bool{true, true, true, false}, summary.Correctness)
	assert.Equal(t, model.SessionCompleted, s.State)
}

func TestScoreSessionGradeDDivergence(t *testing.T) {
	// D有0.25权重但不计入正确题数
	s := newTestSession([]model.Question{freeTextQuestion()})

	answerFreeText(t, s, "부분 점수 답안", model.GradeD)
	summary, err := Advance(s)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.InDelta(t, 25.0, summary.Score, 1e-9)
	assert.Equal(t, 0, summary.CorrectCount)
	assert.Equal(t, []bool{false}, summary.Correctness)
}

func TestScoreSessionWrongObjectiveAnswer(t *testing.T) {
	s := newTestSession([]model.Question{mcQuestion([]string{"사과", "바나나"}, "①")})

	require.NoError(t, SelectOption(s, "바나나"))
	require.NoError(t, CheckAnswer(s))
	summary, err := Advance(s)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 0.0, summary.Score)
	assert.Equal(t, 0, summary.CorrectCount)
}
