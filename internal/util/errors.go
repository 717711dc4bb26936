package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")

	ErrStandardNotFound = errors.New("standard not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrResultNotFound   = errors.New("quiz result not found")

	// 测验会话状态迁移被拒绝时返回的错误，会话状态保持不变
	ErrSessionCompleted   = errors.New("session already completed")
	ErrQuestionChecked    = errors.New("question already checked")
	ErrQuestionNotChecked = errors.New("question not checked yet")
	ErrAnswerMissing      = errors.New("no answer recorded for current question")
	ErrGradeRequired      = errors.New("a grade must be selected before advancing")
	ErrNotFreeText        = errors.New("operation only valid for free-text questions")
	ErrNotObjective       = errors.New("operation only valid for objective questions")
	ErrAlreadyFirst       = errors.New("already on the first question")
	ErrInvalidGrade       = errors.New("invalid grade letter")
	ErrInvalidTheme       = errors.New("invalid theme")
	ErrInvalidVoice       = errors.New("invalid voice")

	// AI协作方错误分类：无效凭证是阻断性错误，
	// 响应格式错误只使该次请求失败，可重试
	ErrInvalidAPIKey       = errors.New("AI api key is invalid")
	ErrMalformedAIResponse = errors.New("AI returned a malformed response")
)
