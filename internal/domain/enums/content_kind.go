package enums

import (
	"fmt"
	"strings"
)

type ContentKind string

const (
	ContentKindTopic ContentKind = "topic"
	ContentKindPost  ContentKind = "post"
)

func ParseContentKind(value string) (ContentKind, error) {
	switch ContentKind(strings.ToLower(strings.TrimSpace(value))) {
	case ContentKindTopic:
		return ContentKindTopic, nil
	case ContentKindPost:
		return ContentKindPost, nil
	}
	return "", fmt.Errorf("unknown content kind %q", value)
}

func (k ContentKind) String() string {
	return string(k)
}
