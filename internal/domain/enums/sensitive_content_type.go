package enums

import (
	"fmt"
	"strings"
)

type SensitiveContentType string

const (
	SensitiveProfanity     SensitiveContentType = "profanity"
	SensitiveHateSpeech    SensitiveContentType = "hate_speech"
	SensitiveInappropriate SensitiveContentType = "inappropriate"
	SensitiveSpam          SensitiveContentType = "spam"
	SensitiveOther         SensitiveContentType = "other"
)

func ParseSensitiveContentType(value string) (SensitiveContentType, error) {
	switch SensitiveContentType(strings.ToLower(strings.TrimSpace(value))) {
	case SensitiveProfanity:
		return SensitiveProfanity, nil
	case SensitiveHateSpeech:
		return SensitiveHateSpeech, nil
	case SensitiveInappropriate:
		return SensitiveInappropriate, nil
	case SensitiveSpam:
		return SensitiveSpam, nil
	case SensitiveOther:
		return SensitiveOther, nil
	}
	return "", fmt.Errorf("unknown sensitive content type %q", value)
}

func (t SensitiveContentType) String() string {
	return string(t)
}
