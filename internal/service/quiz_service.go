package service

import (
	"context"
	"edu_tutor_backend/internal/model"
	"edu_tutor_backend/internal/repository"
	"edu_tutor_backend/internal/util"
	"edu_tutor_backend/pkg/logger"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// SessionStore 会话存取抽象（Redis实现在repository层）
type SessionStore interface {
	Get(ctx context.Context, id string) (*model.QuizSession, error)
	Save(ctx context.Context, session *model.QuizSession) error
	Delete(ctx context.Context, id string) error
}

type QuizService struct {
	store        SessionStore
	standardRepo *repository.StandardRepository
	resultRepo   *repository.QuizResultRepository
	ai           AIClient
	storage      StorageProvider
}

func NewQuizService(store SessionStore, standardRepo *repository.StandardRepository, resultRepo *repository.QuizResultRepository, ai AIClient, storage StorageProvider) *QuizService {
	return &QuizService{
		store:        store,
		standardRepo: standardRepo,
		resultRepo:   resultRepo,
		ai:           ai,
		storage:      storage,
	}
}

type GenerateQuizRequest struct {
	StandardID        uint `json:"standardId" binding:"required"`
	Count             int  `json:"count"`
	WithIllustrations bool `json:"withIllustrations"`
}

// quizQuestionSchema 结构化输出的声明，缺失必填字段按格式错误处理
var quizQuestionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"questions": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"type":                   map[string]interface{}{"type": "string", "enum": []string{"multiple_choice", "true_false", "short_answer", "open_ended"}},
					"prompt":                 map[string]interface{}{"type": "string"},
					"promptTranslation":      map[string]interface{}{"type": "string"},
					"passage":                map[string]interface{}{"type": "string"},
					"passageTranslation":     map[string]interface{}{"type": "string"},
					"options":                map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"answer":                 map[string]interface{}{"type": "string"},
					"explanation":            map[string]interface{}{"type": "string"},
					"explanationTranslation": map[string]interface{}{"type": "string"},
					"wantsIllustration":      map[string]interface{}{"type": "boolean"},
				},
				"required": []string{"type", "prompt", "answer", "explanation"},
			},
		},
	},
	"required": []string{"questions"},
}

type generatedQuiz struct {
	Questions []model.Question `json:"questions"`
}

// GenerateQuiz 生成测验并创建新会话。旧会话不做迁移，
// 客户端持有的上一个会话ID自然失效（被新测验替换）。
func (s *QuizService) GenerateQuiz(ctx context.Context, userID uint, req GenerateQuizRequest) (*model.QuizSession, error) {
	std, err := s.standardRepo.FindByID(req.StandardID)
	if err != nil {
		return nil, util.ErrStandardNotFound
	}

	count := req.Count
	if count <= 0 {
		count = 5
	}

	questions, err := s.BuildQuiz(ctx, std, count, req.WithIllustrations)
	if err != nil {
		return nil, err
	}

	session := model.NewQuizSession(model.GenerateUUID(), userID, std, questions)
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// BuildQuiz 一次结构化请求生成全部题目，随后按题并发补插图。
// 单题插图失败只降级该题，不影响整卷。
func (s *QuizService) BuildQuiz(ctx context.Context, std *model.Standard, count int, withIllustrations bool) ([]model.Question, error) {
	system := "당신은 한국 교육과정 전문 출제위원입니다. 성취기준에 맞는 평가 문항을 출제하세요."
	prompt := fmt.Sprintf(
		"성취기준 [%s] %s (%s) 에 대한 문제 %d개를 만들어 주세요. "+
			"객관식/진위형 문항에는 반드시 보기(options)와 정답(answer)을 포함하고, "+
			"단답형/서술형 문항에는 보기 없이 채점 기준을 answer에 담아 주세요. "+
			"모든 문항에 해설(explanation)을 포함해 주세요.",
		std.Code, std.Description, std.Subject, count,
	)

	var quiz generatedQuiz
	if err := s.ai.GenerateJSON(ctx, system, prompt, "quiz_questions", quizQuestionSchema, &quiz); err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: empty question list", util.ErrMalformedAIResponse)
	}

	// 数据不变式校验：客观题必须有选项和答案，主观题不携带选项
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		if q.IsObjective() {
			if len(q.Options) == 0 || strings.TrimSpace(q.Answer) == "" {
				return nil, fmt.Errorf("%w: objective question %d missing options or answer", util.ErrMalformedAIResponse, i)
			}
		} else {
			q.Options = nil
		}
	}

	if withIllustrations {
		s.fillIllustrations(ctx, quiz.Questions)
	}

	return quiz.Questions, nil
}

// fillIllustrations 每题一个并发子请求，各自只写自己的槽位
func (s *QuizService) fillIllustrations(ctx context.Context, questions []model.Question) {
	var wg sync.WaitGroup
	for i := range questions {
		if !questions[i].WantsIllustration {
			continue
		}
		wg.Add(1)
		go func(q *model.Question) {
			defer wg.Done()

			img, err := s.ai.GenerateImage(ctx, q.Prompt)
			if err != nil || img == nil {
				if err != nil {
					logger.Log.Warn("illustration generation failed, degrading to none", zap.Error(err))
				}
				return
			}

			url, err := s.storage.UploadBytes(ctx, "illustrations/"+model.GenerateUUID()+".png", img, util.MimeImage)
			if err != nil {
				logger.Log.Warn("illustration upload failed, degrading to none", zap.Error(err))
				return
			}
			q.IllustrationURL = url
		}(&questions[i])
	}
	wg.Wait()
}

// loadOwned 会话属主校验
func (s *QuizService) loadOwned(ctx context.Context, userID uint, sessionID string) (*model.QuizSession, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return session, nil
}

func (s *QuizService) mutate(ctx context.Context, userID uint, sessionID string, fn func(*model.QuizSession) error) (*model.QuizSession, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *QuizService) GetSession(ctx context.Context, userID uint, sessionID string) (*model.QuizSession, error) {
	return s.loadOwned(ctx, userID, sessionID)
}

func (s *QuizService) SelectOption(ctx context.Context, userID uint, sessionID, option string) (*model.QuizSession, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *model.QuizSession) error {
		return SelectOption(sess, option)
	})
}

func (s *QuizService) EditFreeText(ctx context.Context, userID uint, sessionID, text string) (*model.QuizSession, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *model.QuizSession) error {
		return EditFreeText(sess, text)
	})
}

func (s *QuizService) CheckAnswer(ctx context.Context, userID uint, sessionID string) (*model.QuizSession, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *model.QuizSession) error {
		return CheckAnswer(sess)
	})
}

func (s *QuizService) SelectGrade(ctx context.Context, userID uint, sessionID string, grade model.Grade) (*model.QuizSession, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *model.QuizSession) error {
		return SelectGrade(sess, grade)
	})
}

func (s *QuizService) GoBack(ctx context.Context, userID uint, sessionID string) (*model.QuizSession, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *model.QuizSession) error {
		return GoBack(sess)
	})
}

func (s *QuizService) ToggleTranslation(ctx context.Context, userID uint, sessionID string) (*model.QuizSession, error) {
	return s.mutate(ctx, userID, sessionID, func(sess *model.QuizSession) error {
		ToggleTranslation(sess)
		return nil
	})
}

var gradingSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"grade":    map[string]interface{}{"type": "string", "enum": []string{"A", "B", "C", "D", "E"}},
		"feedback": map[string]interface{}{"type": "string"},
	},
	"required": []string{"grade", "feedback"},
}

// EvaluateAnswer 请求AI对主观题作答评级。失败时会话保持原状，
// 学生仍可只用人工评分按钮完成评分。
func (s *QuizService) EvaluateAnswer(ctx context.Context, userID uint, sessionID string) (*model.QuizSession, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	i := session.CurrentIndex
	q := session.Current()
	if !session.Checked[i] {
		return nil, util.ErrQuestionNotChecked
	}
	if !q.IsFreeText() {
		return nil, util.ErrNotFreeText
	}
	if session.Answers[i] == nil {
		return nil, util.ErrAnswerMissing
	}

	system := "당신은 학생 답안을 채점하는 교사입니다. 5단계(A~E)로 평가하고 짧은 피드백을 주세요."
	prompt := fmt.Sprintf("문제: %s\n채점 기준: %s\n학생 답안: %s", q.Prompt, q.Answer, *session.Answers[i])

	var eval model.Evaluation
	if err := s.ai.GenerateJSON(ctx, system, prompt, "answer_grading", gradingSchema, &eval); err != nil {
		return nil, err
	}
	if !eval.Grade.Valid() {
		return nil, fmt.Errorf("%w: unknown grade %q", util.ErrMalformedAIResponse, eval.Grade)
	}

	if err := ApplyEvaluation(session, &eval); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

type AdvanceResponse struct {
	Session *model.QuizSession `json:"session"`
	Summary *ScoreSummary      `json:"summary,omitempty"`
	Result  *model.QuizResult  `json:"result,omitempty"`
}

// Advance 前进；在最后一题上结算、落库快照并结束会话
func (s *QuizService) Advance(ctx context.Context, userID uint, sessionID string) (*AdvanceResponse, error) {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	summary, err := Advance(session)
	if err != nil {
		return nil, err
	}

	if summary == nil {
		if err := s.store.Save(ctx, session); err != nil {
			return nil, err
		}
		return &AdvanceResponse{Session: session}, nil
	}

	result, err := s.persistResult(session, summary)
	if err != nil {
		return nil, err
	}

	// 会话已结束，存储里的副本不再需要
	if err := s.store.Delete(ctx, sessionID); err != nil {
		logger.Log.Warn("failed to delete completed session", zap.String("session_id", sessionID), zap.Error(err))
	}

	return &AdvanceResponse{Session: session, Summary: summary, Result: result}, nil
}

func (s *QuizService) persistResult(session *model.QuizSession, summary *ScoreSummary) (*model.QuizResult, error) {
	questionsJSON, err := json.Marshal(session.Questions)
	if err != nil {
		return nil, err
	}
	answersJSON, err := json.Marshal(summary.Answers)
	if err != nil {
		return nil, err
	}
	correctnessJSON, err := json.Marshal(summary.Correctness)
	if err != nil {
		return nil, err
	}

	result := &model.QuizResult{
		UserID:       session.UserID,
		Subject:      session.Subject,
		StandardCode: session.StandardCode,
		StandardDesc: session.StandardDesc,
		Score:        summary.Score,
		CorrectCount: summary.CorrectCount,
		TotalCount:   summary.TotalCount,
		Questions:    questionsJSON,
		Answers:      answersJSON,
		Correctness:  correctnessJSON,
	}

	if err := s.resultRepo.Create(result); err != nil {
		return nil, err
	}
	return result, nil
}
