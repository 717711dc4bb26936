package service

import (
	"context"
	"edu_tutor_backend/internal/model"
	"edu_tutor_backend/internal/util"
	"edu_tutor_backend/pkg/logger"
	"os"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// 语音合成服务返回的采样规格
const speechSampleRate = 24000

// SpeechResult 一次语音合成的产物
type SpeechResult struct {
	URL      string  `json:"url"`
	Format   string  `json:"format"`
	Duration float64 `json:"duration"`
}

type SpeechService struct {
	ai           AIClient
	storage      StorageProvider
	defaultVoice string
}

func NewSpeechService(ai AIClient, storage StorageProvider, defaultVoice string) *SpeechService {
	return &SpeechService{ai: ai, storage: storage, defaultVoice: defaultVoice}
}

// Synthesize 合成朗读音频：裸PCM先封装为WAV，再尽力转码为MP3减小体积。
// 转码失败时直接上传WAV，不影响可用性。
func (s *SpeechService) Synthesize(ctx context.Context, text, voice string) (*SpeechResult, error) {
	if voice == "" {
		voice = s.defaultVoice
	}
	if !util.VoiceAllowed(voice) {
		return nil, util.ErrInvalidVoice
	}

	pcm, err := s.ai.SynthesizeSpeech(ctx, text, voice)
	if err != nil {
		return nil, err
	}

	duration := util.PCMDurationSeconds(pcm, speechSampleRate)
	wav := util.PCMToWAV(pcm, speechSampleRate, 1)
	name := model.GenerateUUID()

	if mp3, err := transcodeToMP3(wav); err == nil {
		url, err := s.storage.UploadBytes(ctx, "speech/"+name+".mp3", mp3, util.MimeMP3)
		if err != nil {
			return nil, err
		}
		return &SpeechResult{URL: url, Format: "mp3", Duration: duration}, nil
	} else {
		logger.Log.Warn("mp3 transcode failed, falling back to wav", zap.Error(err))
	}

	url, err := s.storage.UploadBytes(ctx, "speech/"+name+".wav", wav, util.MimeWAV)
	if err != nil {
		return nil, err
	}
	return &SpeechResult{URL: url, Format: "wav", Duration: duration}, nil
}

// transcodeToMP3 通过ffmpeg把WAV转码为MP3，环境中没有ffmpeg时返回错误
func transcodeToMP3(wav []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "speech")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.mp3")
	if err := os.WriteFile(in, wav, 0644); err != nil {
		return nil, err
	}

	err = ffmpeg.Input(in).
		Output(out, ffmpeg.KwArgs{"codec:a": "libmp3lame", "qscale:a": 4}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return nil, err
	}

	return os.ReadFile(out)
}
