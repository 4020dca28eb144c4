package enums

import (
	"fmt"
	"strings"
)

type ContentStatus string

const (
	ContentStatusActive   ContentStatus = "active"
	ContentStatusLocked   ContentStatus = "locked"
	ContentStatusArchived ContentStatus = "archived"
)

func ParseContentStatus(value string) (ContentStatus, error) {
	switch ContentStatus(strings.ToLower(strings.TrimSpace(value))) {
	case ContentStatusActive:
		return ContentStatusActive, nil
	case ContentStatusLocked:
		return ContentStatusLocked, nil
	case ContentStatusArchived:
		return ContentStatusArchived, nil
	}
	return "", fmt.Errorf("unknown content status %q", value)
}

func (s ContentStatus) String() string {
	return string(s)
}
