package enums

import (
	"fmt"
	"strings"
)

type RestrictionType string

const (
	RestrictionForumBan           RestrictionType = "forum_ban"
	RestrictionPostRestriction    RestrictionType = "post_restriction"
	RestrictionCommentRestriction RestrictionType = "comment_restriction"
	RestrictionFullRestriction    RestrictionType = "full_restriction"
)

func ParseRestrictionType(value string) (RestrictionType, error) {
	switch RestrictionType(strings.ToLower(strings.TrimSpace(value))) {
	case RestrictionForumBan:
		return RestrictionForumBan, nil
	case RestrictionPostRestriction:
		return RestrictionPostRestriction, nil
	case RestrictionCommentRestriction:
		return RestrictionCommentRestriction, nil
	case RestrictionFullRestriction:
		return RestrictionFullRestriction, nil
	}
	return "", fmt.Errorf("unknown restriction type %q", value)
}

func (t RestrictionType) String() string {
	return string(t)
}
