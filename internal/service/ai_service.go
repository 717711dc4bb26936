package service

import (
	"bufio"
	"bytes"
	"context"
	"edu_tutor_backend/internal/config"
	"edu_tutor_backend/internal/util"
	"edu_tutor_backend/pkg/monitoring"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AIClient 生成式AI协作方的抽象，便于测试时替换
type AIClient interface {
	Chat(ctx context.Context, system, prompt string) (string, error)
	ChatStream(ctx context.Context, system, prompt string, history []AIChatMessage) (<-chan string, <-chan error)
	GenerateJSON(ctx context.Context, system, prompt, schemaName string, schema map[string]interface{}, out interface{}) error
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error)
	ValidateKey(ctx context.Context, key string) error
}

// AIService OpenAI兼容接口的客户端实现。
// 凭证通过配置显式注入，不读全局状态。
type AIService struct {
	config config.AIConfig
	speech config.SpeechConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig, speechCfg config.SpeechConfig) *AIService {
	return &AIService{
		config: cfg,
		speech: speechCfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []AIChatMessage `json:"messages"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat interface{}     `json:"response_format,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
		Delta   AIChatMessage `json:"delta"` // 流式响应
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *AIService) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.config.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	return req, nil
}

// classifyStatus 凭证失效与瞬时故障要给调用方不同的错误
func classifyStatus(status int, body []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w (status %d)", util.ErrInvalidAPIKey, status)
	}
	return fmt.Errorf("AI API error (status %d): %s", status, string(body))
}

func (s *AIService) Chat(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	answer, err := s.chat(ctx, system, prompt)
	monitoring.ObserveAICall("chat", start, err)
	return answer, err
}

func (s *AIService) chat(ctx context.Context, system, prompt string) (string, error) {
	messages := []AIChatMessage{}
	if system != "" {
		messages = append(messages, AIChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, AIChatMessage{Role: "user", Content: prompt})

	reqBody := ChatCompletionRequest{
		Model:    s.config.Model,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := s.newRequest(ctx, "POST", "/chat/completions", jsonData)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, body)
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrMalformedAIResponse, err)
	}

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: no choices returned", util.ErrMalformedAIResponse)
}

// ChatStream 流式问答。片段通过channel逐个送出，消费方取消ctx即停止。
// history用于多轮追问的上下文注入。
func (s *AIService) ChatStream(ctx context.Context, system, prompt string, history []AIChatMessage) (<-chan string, <-chan error) {
	out := make(chan string)
	errChan := make(chan error, 1)

	messages := []AIChatMessage{}
	if system != "" {
		messages = append(messages, AIChatMessage{Role: "system", Content: system})
	}
	for _, h := range history {
		messages = append(messages, AIChatMessage{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, AIChatMessage{Role: "user", Content: prompt})

	reqBody := ChatCompletionRequest{
		Model:    s.config.Model,
		Messages: messages,
		Stream:   true,
	}

	jsonData, _ := json.Marshal(reqBody)

	go func() {
		defer close(out)
		defer close(errChan)

		start := time.Now()
		req, err := s.newRequest(ctx, "POST", "/chat/completions", jsonData)
		if err != nil {
			errChan <- err
			return
		}

		resp, err := s.client.Do(req)
		if err != nil {
			monitoring.ObserveAICall("chat_stream", start, err)
			errChan <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			err := classifyStatus(resp.StatusCode, body)
			monitoring.ObserveAICall("chat_stream", start, err)
			errChan <- err
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			if ctx.Err() != nil {
				monitoring.ObserveAICall("chat_stream", start, ctx.Err())
				return
			}

			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					errChan <- err
				}
				break
			}

			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				break
			}

			var streamResp ChatCompletionResponse
			if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
				continue
			}

			if len(streamResp.Choices) > 0 {
				content := streamResp.Choices[0].Delta.Content
				if content != "" {
					select {
					case out <- content:
					case <-ctx.Done():
						monitoring.ObserveAICall("chat_stream", start, ctx.Err())
						return
					}
				}
			}
		}
		monitoring.ObserveAICall("chat_stream", start, nil)
	}()

	return out, errChan
}

// GenerateJSON 结构化输出模式：声明json_schema，把回复直接反序列化到out。
// 模型返回不符合schema的内容时该次请求判为硬失败，调用方可重试。
func (s *AIService) GenerateJSON(ctx context.Context, system, prompt, schemaName string, schema map[string]interface{}, out interface{}) error {
	start := time.Now()
	err := s.generateJSON(ctx, system, prompt, schemaName, schema, out)
	monitoring.ObserveAICall("generate_json", start, err)
	return err
}

func (s *AIService) generateJSON(ctx context.Context, system, prompt, schemaName string, schema map[string]interface{}, out interface{}) error {
	messages := []AIChatMessage{}
	if system != "" {
		messages = append(messages, AIChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, AIChatMessage{Role: "user", Content: prompt})

	reqBody := ChatCompletionRequest{
		Model:    s.config.Model,
		Messages: messages,
		ResponseFormat: map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   schemaName,
				"schema": schema,
				"strict": true,
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := s.newRequest(ctx, "POST", "/chat/completions", jsonData)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp.StatusCode, body)
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("%w: %v", util.ErrMalformedAIResponse, err)
	}
	if len(result.Choices) == 0 {
		return fmt.Errorf("%w: no choices returned", util.ErrMalformedAIResponse)
	}

	content := result.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: %v", util.ErrMalformedAIResponse, err)
	}
	return nil
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateImage 生成插图。服务端明确表示无图时返回(nil, nil)，
// 由调用方降级为无插图而不是报错。
func (s *AIService) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	start := time.Now()
	img, err := s.generateImage(ctx, prompt)
	monitoring.ObserveAICall("generate_image", start, err)
	return img, err
}

func (s *AIService) generateImage(ctx context.Context, prompt string) ([]byte, error) {
	reqBody := map[string]interface{}{
		"model":           s.config.ImageModel,
		"prompt":          prompt,
		"n":               1,
		"response_format": "b64_json",
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := s.newRequest(ctx, "POST", "/images/generations", jsonData)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var result imageGenerationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedAIResponse, err)
	}

	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		// 无图不是错误
		return nil, nil
	}

	img, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedAIResponse, err)
	}
	return img, nil
}

// SynthesizeSpeech 语音合成，返回裸PCM采样（16位小端、单声道、24kHz）
func (s *AIService) SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	start := time.Now()
	pcm, err := s.synthesizeSpeech(ctx, text, voice)
	monitoring.ObserveAICall("synthesize_speech", start, err)
	return pcm, err
}

func (s *AIService) synthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	reqBody := map[string]interface{}{
		"model":           s.speech.Model,
		"input":           text,
		"voice":           voice,
		"response_format": "pcm",
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := s.newRequest(ctx, "POST", "/audio/speech", jsonData)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	// 部分兼容实现把采样包在JSON里返回
	if strings.HasPrefix(strings.TrimSpace(resp.Header.Get("Content-Type")), "application/json") {
		var wrapped struct {
			Data string `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil || wrapped.Data == "" {
			return nil, fmt.Errorf("%w: unexpected speech payload", util.ErrMalformedAIResponse)
		}
		pcm, err := base64.StdEncoding.DecodeString(wrapped.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrMalformedAIResponse, err)
		}
		return pcm, nil
	}

	return body, nil
}

// ValidateKey 用最小代价的真实调用确认凭证有效性。
// 凭证无效与网络/服务瞬时故障是两种不同的用户可见结果。
func (s *AIService) ValidateKey(ctx context.Context, key string) error {
	start := time.Now()

	if strings.TrimSpace(key) == "" {
		key = s.config.APIKey
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.config.BaseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := s.client.Do(req)
	monitoring.ObserveAICall("validate_key", start, err)
	if err != nil {
		return fmt.Errorf("AI service unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return util.ErrInvalidAPIKey
	default:
		return fmt.Errorf("AI service unavailable (status %d)", resp.StatusCode)
	}
}
