package service

import (
	"context"
	"edu_tutor_backend/internal/model"
	"edu_tutor_backend/internal/repository"
	"edu_tutor_backend/internal/util"
	"edu_tutor_backend/pkg/logger"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	SlotPending = "pending"
	SlotReady   = "ready"
	SlotFailed  = "failed"

	explanationCachePrefix = "study:explanation:"
	explanationCacheTTL    = 24 * time.Hour
)

// GenerationSlot 学习会话里一项生成内容的槽位。
// 三个槽位由三个互不依赖的任务各自填写。
type GenerationSlot struct {
	Status  string `json:"status"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StudySession 进行中的学习会话。cancel触发后视为stale，
// 迟到的生成结果在提交前检查ctx，不再写入。
type StudySession struct {
	ID         string
	UserID     uint
	Standard   *model.Standard
	CreatedAt  time.Time

	mu           sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc
	explanation  GenerationSlot
	summary      GenerationSlot
	illustration GenerationSlot
	history      []AIChatMessage
}

// commit 提交一个槽位结果，会话已关闭时丢弃
func (s *StudySession) commit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	fn()
}

type StudySessionView struct {
	ID           string         `json:"id"`
	StandardID   uint           `json:"standardId"`
	Subject      string         `json:"subject"`
	StandardCode string         `json:"standardCode"`
	StandardDesc string         `json:"standardDesc"`
	Explanation  GenerationSlot `json:"explanation"`
	Summary      GenerationSlot `json:"summary"`
	Illustration GenerationSlot `json:"illustration"`
	CreatedAt    time.Time      `json:"createdAt"`
}

type StudyService struct {
	mu       sync.Mutex
	sessions map[string]*StudySession

	standardRepo *repository.StandardRepository
	ai           AIClient
	storage      StorageProvider
	rdb          *redis.Client
}

func NewStudyService(standardRepo *repository.StandardRepository, ai AIClient, storage StorageProvider, rdb *redis.Client) *StudyService {
	return &StudyService{
		sessions:     make(map[string]*StudySession),
		standardRepo: standardRepo,
		ai:           ai,
		storage:      storage,
		rdb:          rdb,
	}
}

// Open 打开学习会话：解说、插图、要点摘要三个请求并发发出，
// 互不等待，各自完成后填入自己的槽位。
func (s *StudyService) Open(userID uint, standardID uint) (*StudySessionView, error) {
	std, err := s.standardRepo.FindByID(standardID)
	if err != nil {
		return nil, util.ErrStandardNotFound
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &StudySession{
		ID:           model.GenerateUUID(),
		UserID:       userID,
		Standard:     std,
		CreatedAt:    time.Now(),
		ctx:          ctx,
		cancel:       cancel,
		explanation:  GenerationSlot{Status: SlotPending},
		summary:      GenerationSlot{Status: SlotPending},
		illustration: GenerationSlot{Status: SlotPending},
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	go s.generateExplanation(session)
	go s.generateSummary(session)
	go s.generateIllustration(session)

	return s.snapshot(session), nil
}

func (s *StudyService) generateExplanation(session *StudySession) {
	std := session.Standard
	cacheKey := fmt.Sprintf("%s%d", explanationCachePrefix, std.ID)

	// 同一成就标准的解说可复用，先查缓存
	if cached, err := s.rdb.Get(session.ctx, cacheKey).Result(); err == nil && cached != "" {
		session.commit(func() {
			session.explanation = GenerationSlot{Status: SlotReady, Content: cached}
		})
		return
	}

	system := "당신은 친절한 선생님입니다. 성취기준을 학생 눈높이에 맞춰 마크다운으로 설명하세요. 수식은 LaTeX로 표기하세요."
	prompt := fmt.Sprintf("성취기준 [%s] %s (%s) 을(를) 자세히 설명해 주세요.", std.Code, std.Description, std.Subject)

	content, err := s.ai.Chat(session.ctx, system, prompt)
	if err != nil {
		session.commit(func() {
			session.explanation = GenerationSlot{Status: SlotFailed, Error: err.Error()}
		})
		return
	}

	if err := s.rdb.Set(context.Background(), cacheKey, content, explanationCacheTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache explanation", zap.Error(err))
	}

	session.commit(func() {
		session.explanation = GenerationSlot{Status: SlotReady, Content: content}
	})
}

func (s *StudyService) generateSummary(session *StudySession) {
	std := session.Standard
	system := "당신은 학습 내용을 요약하는 조교입니다."
	prompt := fmt.Sprintf("성취기준 [%s] %s 의 핵심 포인트를 3~5개의 불릿으로 요약해 주세요.", std.Code, std.Description)

	content, err := s.ai.Chat(session.ctx, system, prompt)
	if err != nil {
		session.commit(func() {
			session.summary = GenerationSlot{Status: SlotFailed, Error: err.Error()}
		})
		return
	}

	session.commit(func() {
		session.summary = GenerationSlot{Status: SlotReady, Content: content}
	})
}

func (s *StudyService) generateIllustration(session *StudySession) {
	std := session.Standard

	img, err := s.ai.GenerateImage(session.ctx, std.Description)
	if err != nil {
		// 插图失败降级为无图，不算会话级错误
		logger.Log.Warn("study illustration failed, degrading to none", zap.Error(err))
		session.commit(func() {
			session.illustration = GenerationSlot{Status: SlotReady}
		})
		return
	}
	if img == nil {
		session.commit(func() {
			session.illustration = GenerationSlot{Status: SlotReady}
		})
		return
	}

	url, err := s.storage.UploadBytes(session.ctx, "illustrations/"+model.GenerateUUID()+".png", img, util.MimeImage)
	if err != nil {
		logger.Log.Warn("study illustration upload failed", zap.Error(err))
		session.commit(func() {
			session.illustration = GenerationSlot{Status: SlotReady}
		})
		return
	}

	session.commit(func() {
		session.illustration = GenerationSlot{Status: SlotReady, URL: url}
	})
}

func (s *StudyService) get(userID uint, id string) (*StudySession, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return session, nil
}

func (s *StudyService) snapshot(session *StudySession) *StudySessionView {
	session.mu.Lock()
	defer session.mu.Unlock()
	return &StudySessionView{
		ID:           session.ID,
		StandardID:   session.Standard.ID,
		Subject:      session.Standard.Subject,
		StandardCode: session.Standard.Code,
		StandardDesc: session.Standard.Description,
		Explanation:  session.explanation,
		Summary:      session.summary,
		Illustration: session.illustration,
		CreatedAt:    session.CreatedAt,
	}
}

func (s *StudyService) GetSession(userID uint, id string) (*StudySessionView, error) {
	session, err := s.get(userID, id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(session), nil
}

// Ask 追问。回答以片段流返回，完整回答在流结束后计入多轮历史。
// 会话关闭会取消底层流。
func (s *StudyService) Ask(userID uint, id string, question string) (<-chan string, <-chan error, error) {
	session, err := s.get(userID, id)
	if err != nil {
		return nil, nil, err
	}

	session.mu.Lock()
	history := make([]AIChatMessage, len(session.history))
	copy(history, session.history)
	explanation := session.explanation.Content
	std := session.Standard
	session.mu.Unlock()

	system := fmt.Sprintf("당신은 친절한 선생님입니다. 학생이 성취기준 [%s] %s 을(를) 공부하는 중입니다.", std.Code, std.Description)
	if explanation != "" {
		system += "\n\n다음은 지금까지의 설명입니다:\n" + explanation
	}

	stream, errChan := s.ai.ChatStream(session.ctx, system, question, history)

	out := make(chan string)
	outErr := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(outErr)

		var buf []byte
		for chunk := range stream {
			buf = append(buf, chunk...)
			select {
			case out <- chunk:
			case <-session.ctx.Done():
				return
			}
		}
		if err := <-errChan; err != nil {
			outErr <- err
			return
		}

		// 整轮对话落入历史，供后续追问使用
		answer := string(buf)
		session.commit(func() {
			session.history = append(session.history,
				AIChatMessage{Role: "user", Content: question},
				AIChatMessage{Role: "assistant", Content: answer},
			)
		})
	}()

	return out, outErr, nil
}

// Close 关闭会话：标记stale并取消所有在途生成请求
func (s *StudyService) Close(userID uint, id string) error {
	session, err := s.get(userID, id)
	if err != nil {
		return err
	}

	session.cancel()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// CleanupExpired 清理长时间未关闭的会话，由后台任务周期调用
func (s *StudyService) CleanupExpired(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.CreatedAt.Before(cutoff) {
			session.cancel()
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
