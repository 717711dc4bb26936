package service

import (
	"context"
	"edu_tutor_backend/internal/config"
	"edu_tutor_backend/internal/util"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAIService(baseURL string) *AIService {
	return NewAIService(
		config.AIConfig{BaseURL: baseURL, APIKey: "test-key", Model: "test-model", ImageModel: "test-image-model"},
		config.SpeechConfig{Model: "test-speech-model", DefaultVoice: "aria"},
	)
}

func chatCompletionBody(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestChatReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(chatCompletionBody("안녕하세요")))
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	answer, err := svc.Chat(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", answer)
}

func TestChatClassifiesInvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	_, err := svc.Chat(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, util.ErrInvalidAPIKey)
}

func TestGenerateJSONParsesStructuredOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// 请求里声明了json_schema响应格式
		rf, ok := req.ResponseFormat.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "json_schema", rf["type"])

		w.Write([]byte(chatCompletionBody(`{"grade":"A","feedback":"좋습니다"}`)))
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)

	var out struct {
		Grade    string `json:"grade"`
		Feedback string `json:"feedback"`
	}
	err := svc.GenerateJSON(context.Background(), "sys", "prompt", "grading", map[string]interface{}{"type": "object"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "A", out.Grade)
}

func TestGenerateJSONMalformedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletionBody("이건 JSON이 아닙니다")))
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)

	var out map[string]interface{}
	err := svc.GenerateJSON(context.Background(), "", "prompt", "grading", map[string]interface{}{"type": "object"}, &out)
	assert.ErrorIs(t, err, util.ErrMalformedAIResponse)
}

func TestGenerateImageDecodesPayload(t *testing.T) {
	img := []byte{0x89, 0x50, 0x4e, 0x47}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(img)}},
		})
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	got, err := svc.GenerateImage(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, img, got)
}

func TestGenerateImageAbsenceIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	got, err := svc.GenerateImage(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSynthesizeSpeechRawBody(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pcm)
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	got, err := svc.SynthesizeSpeech(context.Background(), "안녕", "aria")
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
}

func TestSynthesizeSpeechJSONWrapped(t *testing.T) {
	pcm := []byte{0x0a, 0x0b}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"data": base64.StdEncoding.EncodeToString(pcm)})
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	got, err := svc.SynthesizeSpeech(context.Background(), "안녕", "aria")
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
}

func TestValidateKeyOutcomes(t *testing.T) {
	t.Run("有效", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models", r.URL.Path)
			assert.Equal(t, "Bearer candidate-key", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		svc := newTestAIService(srv.URL)
		assert.NoError(t, svc.ValidateKey(context.Background(), "candidate-key"))
	})

	t.Run("无效凭证", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		svc := newTestAIService(srv.URL)
		err := svc.ValidateKey(context.Background(), "bad-key")
		assert.ErrorIs(t, err, util.ErrInvalidAPIKey)
	})

	t.Run("瞬时故障不判定为无效", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		svc := newTestAIService(srv.URL)
		err := svc.ValidateKey(context.Background(), "any-key")
		require.Error(t, err)
		assert.NotErrorIs(t, err, util.ErrInvalidAPIKey)
	})

	t.Run("空key回退到配置的key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		svc := newTestAIService(srv.URL)
		assert.NoError(t, svc.ValidateKey(context.Background(), "  "))
	})
}
