package service

import (
	"context"
	"edu_tutor_backend/internal/model"
	"edu_tutor_backend/internal/util"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAIClient 按预置的响应回答，记录调用以便断言
type fakeAIClient struct {
	jsonPayload  string
	jsonErr      error
	imageData    []byte
	imageErr     error
	imageCalls   int
	chatResponse string
	chatErr      error
}

func (f *fakeAIClient) Chat(ctx context.Context, system, prompt string) (string, error) {
	return f.chatResponse, f.chatErr
}

func (f *fakeAIClient) ChatStream(ctx context.Context, system, prompt string, history []AIChatMessage) (<-chan string, <-chan error) {
	out := make(chan string)
	errChan := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errChan)
		if f.chatErr != nil {
			errChan <- f.chatErr
			return
		}
		out <- f.chatResponse
	}()
	return out, errChan
}

func (f *fakeAIClient) GenerateJSON(ctx context.Context, system, prompt, schemaName string, schema map[string]interface{}, out interface{}) error {
	if f.jsonErr != nil {
		return f.jsonErr
	}
	return json.Unmarshal([]byte(f.jsonPayload), out)
}

func (f *fakeAIClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	f.imageCalls++
	return f.imageData, f.imageErr
}

func (f *fakeAIClient) SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAIClient) ValidateKey(ctx context.Context, key string) error {
	return nil
}

type fakeStorage struct {
	uploads   int
	uploadErr error
}

func (f *fakeStorage) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeStorage) UploadBytes(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	return "/uploads/" + filename, nil
}

func (f *fakeStorage) Delete(ctx context.Context, filename string) error { return nil }
func (f *fakeStorage) GetURL(filename string) string                     { return "/uploads/" + filename }

type fakeSessionStore struct {
	sessions map[string]*model.QuizSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.QuizSession)}
}

func (f *fakeSessionStore) Get(ctx context.Context, id string) (*model.QuizSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	// 模拟Redis的序列化往返，调用方拿到独立副本
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var clone model.QuizSession
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

func (f *fakeSessionStore) Save(ctx context.Context, session *model.QuizSession) error {
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func quizPayload(questions []model.Question) string {
	data, _ := json.Marshal(generatedQuiz{Questions: questions})
	return string(data)
}

func TestBuildQuizValidatesObjectiveQuestions(t *testing.T) {
	ai := &fakeAIClient{jsonPayload: quizPayload([]model.Question{
		{Type: model.MultipleChoice, Prompt: "p", Answer: "a", Explanation: "e"}, // 缺少options
	})}
	svc := NewQuizService(newFakeSessionStore(), nil, nil, ai, &fakeStorage{})

	_, err := svc.BuildQuiz(context.Background(), testStandard(), 1, false)
	assert.ErrorIs(t, err, util.ErrMalformedAIResponse)
}

func TestBuildQuizStripsOptionsFromFreeText(t *testing.T) {
	ai := &fakeAIClient{jsonPayload: quizPayload([]model.Question{
		{Type: model.ShortAnswer, Prompt: "p", Options: []string{"잘못 포함된 보기"}, Answer: "기준", Explanation: "e"},
	})}
	svc := NewQuizService(newFakeSessionStore(), nil, nil, ai, &fakeStorage{})

	questions, err := svc.BuildQuiz(context.Background(), testStandard(), 1, false)
	require.NoError(t, err)
	assert.Nil(t, questions[0].Options)
}

func TestBuildQuizEmptyListIsMalformed(t *testing.T) {
	ai := &fakeAIClient{jsonPayload: `{"questions":[]}`}
	svc := NewQuizService(newFakeSessionStore(), nil, nil, ai, &fakeStorage{})

	_, err := svc.BuildQuiz(context.Background(), testStandard(), 3, false)
	assert.ErrorIs(t, err, util.ErrMalformedAIResponse)
}

func TestBuildQuizIllustrationDegradation(t *testing.T) {
	questions := []model.Question{
		{Type: model.MultipleChoice, Prompt: "p1", Options: []string{"a"}, Answer: "a", Explanation: "e", WantsIllustration: true},
		{Type: model.MultipleChoice, Prompt: "p2", Options: []string{"a"}, Answer: "a", Explanation: "e", WantsIllustration: true},
		{Type: model.MultipleChoice, Prompt: "p3", Options: []string{"a"}, Answer: "a", Explanation: "e"},
	}

	t.Run("生成失败整卷不受影响", func(t *testing.T) {
		ai := &fakeAIClient{jsonPayload: quizPayload(questions), imageErr: errors.New("image backend down")}
		svc := NewQuizService(newFakeSessionStore(), nil, nil, ai, &fakeStorage{})

		got, err := svc.BuildQuiz(context.Background(), testStandard(), 3, true)
		require.NoError(t, err)
		require.Len(t, got, 3)
		for _, q := range got {
			assert.Empty(t, q.IllustrationURL)
		}
		// 只为请求插图的题发起子请求
		assert.Equal(t, 2, ai.imageCalls)
	})

	t.Run("明确无图不算失败", func(t *testing.T) {
		ai := &fakeAIClient{jsonPayload: quizPayload(questions), imageData: nil}
		svc := NewQuizService(newFakeSessionStore(), nil, nil, ai, &fakeStorage{})

		got, err := svc.BuildQuiz(context.Background(), testStandard(), 3, true)
		require.NoError(t, err)
		for _, q := range got {
			assert.Empty(t, q.IllustrationURL)
		}
	})

	t.Run("成功的题各自拿到URL", func(t *testing.T) {
		store := &fakeStorage{}
		ai := &fakeAIClient{jsonPayload: quizPayload(questions), imageData: []byte{0x89, 0x50}}
		svc := NewQuizService(newFakeSessionStore(), nil, nil, ai, store)

		got, err := svc.BuildQuiz(context.Background(), testStandard(), 3, true)
		require.NoError(t, err)
		assert.NotEmpty(t, got[0].IllustrationURL)
		assert.NotEmpty(t, got[1].IllustrationURL)
		assert.Empty(t, got[2].IllustrationURL)
		assert.Equal(t, 2, store.uploads)
	})

	t.Run("上传失败同样降级", func(t *testing.T) {
		store := &fakeStorage{uploadErr: errors.New("storage down")}
		ai := &fakeAIClient{jsonPayload: quizPayload(questions), imageData: []byte{0x89, 0x50}}
		svc := NewQuizService(newFakeSessionStore(), nil, nil, ai, store)

		got, err := svc.BuildQuiz(context.Background(), testStandard(), 3, true)
		require.NoError(t, err)
		for _, q := range got {
			assert.Empty(t, q.IllustrationURL)
		}
	})
}

func seedSession(t *testing.T, store *fakeSessionStore, questions []model.Question) *model.QuizSession {
	t.Helper()
	session := newTestSession(questions)
	require.NoError(t, store.Save(context.Background(), session))
	return session
}

func TestQuizServiceOwnership(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewQuizService(store, nil, nil, &fakeAIClient{}, &fakeStorage{})
	session := seedSession(t, store, []model.Question{mcQuestion([]string{"a"}, "a")})

	_, err := svc.GetSession(context.Background(), session.UserID+1, session.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = svc.GetSession(context.Background(), session.UserID, "no-such-session")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestQuizServiceRejectedTransitionLeavesStoreUntouched(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewQuizService(store, nil, nil, &fakeAIClient{}, &fakeStorage{})
	session := seedSession(t, store, []model.Question{freeTextQuestion()})

	// 主观题不接受选项操作，存储中的会话保持原状
	_, err := svc.SelectOption(context.Background(), session.UserID, session.ID, "a")
	assert.ErrorIs(t, err, util.ErrNotObjective)

	stored, err := store.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Answers[0])
	assert.False(t, stored.Checked[0])
}

func TestEvaluateAnswerAppliesAIGrade(t *testing.T) {
	store := newFakeSessionStore()
	ai := &fakeAIClient{jsonPayload: `{"grade":"B","feedback":"근거가 부족합니다"}`}
	svc := NewQuizService(store, nil, nil, ai, &fakeStorage{})

	session := seedSession(t, store, []model.Question{freeTextQuestion()})

	_, err := svc.EditFreeText(context.Background(), session.UserID, session.ID, "내 답안")
	require.NoError(t, err)
	_, err = svc.CheckAnswer(context.Background(), session.UserID, session.ID)
	require.NoError(t, err)

	updated, err := svc.EvaluateAnswer(context.Background(), session.UserID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Evaluations[0])
	assert.Equal(t, model.GradeB, updated.Evaluations[0].Grade)
	assert.Equal(t, "근거가 부족합니다", updated.Evaluations[0].Feedback)
}

func TestEvaluateAnswerMalformedGradeLeavesSessionUnchanged(t *testing.T) {
	store := newFakeSessionStore()
	ai := &fakeAIClient{jsonPayload: `{"grade":"S","feedback":"?"}`}
	svc := NewQuizService(store, nil, nil, ai, &fakeStorage{})

	session := seedSession(t, store, []model.Question{freeTextQuestion()})

	_, err := svc.EditFreeText(context.Background(), session.UserID, session.ID, "내 답안")
	require.NoError(t, err)
	_, err = svc.CheckAnswer(context.Background(), session.UserID, session.ID)
	require.NoError(t, err)

	_, err = svc.EvaluateAnswer(context.Background(), session.UserID, session.ID)
	assert.ErrorIs(t, err, util.ErrMalformedAIResponse)

	stored, err := store.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Evaluations[0])
}

func TestEvaluateAnswerRequiresCheckedFreeText(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewQuizService(store, nil, nil, &fakeAIClient{}, &fakeStorage{})

	session := seedSession(t, store, []model.Question{freeTextQuestion()})
	_, err := svc.EvaluateAnswer(context.Background(), session.UserID, session.ID)
	assert.ErrorIs(t, err, util.ErrQuestionNotChecked)

	mcStore := newFakeSessionStore()
	mcSvc := NewQuizService(mcStore, nil, nil, &fakeAIClient{}, &fakeStorage{})
	mcSession := seedSession(t, mcStore, []model.Question{mcQuestion([]string{"a"}, "a")})

	_, err = mcSvc.SelectOption(context.Background(), mcSession.UserID, mcSession.ID, "a")
	require.NoError(t, err)
	_, err = mcSvc.CheckAnswer(context.Background(), mcSession.UserID, mcSession.ID)
	require.NoError(t, err)
	_, err = mcSvc.EvaluateAnswer(context.Background(), mcSession.UserID, mcSession.ID)
	assert.ErrorIs(t, err, util.ErrNotFreeText)
}
