package repository

import (
	"context"
	"edu_tutor_backend/internal/model"
	"edu_tutor_backend/internal/util"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	sessionKeyPrefix = "quiz:session:"
	sessionTTL       = 24 * time.Hour
)

// QuizSessionStore 进行中的测验会话存在Redis里，整体读-改-写。
// 单个会话只被其属主的请求串行访问，并发写采用last-write-wins语义。
type QuizSessionStore struct {
	rdb *redis.Client
}

func NewQuizSessionStore(rdb *redis.Client) *QuizSessionStore {
	return &QuizSessionStore{rdb: rdb}
}

func (s *QuizSessionStore) Get(ctx context.Context, id string) (*model.QuizSession, error) {
	data, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session model.QuizSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *QuizSessionStore) Save(ctx context.Context, session *model.QuizSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKeyPrefix+session.ID, data, sessionTTL).Err()
}

func (s *QuizSessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}
