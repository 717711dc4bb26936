package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeImage = "image/png"
	MimeWAV   = "audio/wav"
	MimeMP3   = "audio/mpeg"
)

// 语音合成的固定音色集合
var AllowedVoices = []string{"aria", "sol", "nova", "orbit", "terra", "luna"}

func VoiceAllowed(voice string) bool {
	for _, v := range AllowedVoices {
		if v == voice {
			return true
		}
	}
	return false
}
