package service

import (
	"context"
	"edu_tutor_backend/internal/util"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type speechFakeAI struct {
	fakeAIClient
	pcm        []byte
	speechErr  error
	voiceUsed  string
	speechCall int
}

func (f *speechFakeAI) SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	f.speechCall++
	f.voiceUsed = voice
	return f.pcm, f.speechErr
}

func TestSynthesizeRejectsUnknownVoice(t *testing.T) {
	ai := &speechFakeAI{}
	svc := NewSpeechService(ai, &fakeStorage{}, "aria")

	_, err := svc.Synthesize(context.Background(), "안녕하세요", "robotic")
	assert.ErrorIs(t, err, util.ErrInvalidVoice)
	// 音色校验失败不应发起合成请求
	assert.Equal(t, 0, ai.speechCall)
}

func TestSynthesizeUsesDefaultVoice(t *testing.T) {
	ai := &speechFakeAI{pcm: make([]byte, 4800)}
	svc := NewSpeechService(ai, &fakeStorage{}, "nova")

	result, err := svc.Synthesize(context.Background(), "안녕하세요", "")
	require.NoError(t, err)
	assert.Equal(t, "nova", ai.voiceUsed)
	assert.NotEmpty(t, result.URL)
	// 24kHz 16位单声道：4800字节=0.1秒
	assert.InDelta(t, 0.1, result.Duration, 1e-9)
	assert.Contains(t, []string{"wav", "mp3"}, result.Format)
	assert.True(t, strings.HasSuffix(result.URL, "."+result.Format))
}

func TestSynthesizePropagatesAIError(t *testing.T) {
	ai := &speechFakeAI{speechErr: errors.New("speech backend down")}
	svc := NewSpeechService(ai, &fakeStorage{}, "aria")

	_, err := svc.Synthesize(context.Background(), "안녕하세요", "aria")
	assert.Error(t, err)
}
