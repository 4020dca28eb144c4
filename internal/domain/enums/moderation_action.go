package enums

import (
	"fmt"
	"strings"
)

type ModerationAction string

const (
	ActionApprove       ModerationAction = "approve"
	ActionLock          ModerationAction = "lock"
	ActionUnlock        ModerationAction = "unlock"
	ActionArchive       ModerationAction = "archive"
	ActionFlag          ModerationAction = "flag"
	ActionMarkSensitive ModerationAction = "mark_sensitive"
	ActionHide          ModerationAction = "hide"
	ActionDelete        ModerationAction = "delete"
)

func ParseModerationAction(value string) (ModerationAction, error) {
	switch ModerationAction(strings.ToLower(strings.TrimSpace(value))) {
	case ActionApprove:
		return ActionApprove, nil
	case ActionLock:
		return ActionLock, nil
	case ActionUnlock:
		return ActionUnlock, nil
	case ActionArchive:
		return ActionArchive, nil
	case ActionFlag:
		return ActionFlag, nil
	case ActionMarkSensitive:
		return ActionMarkSensitive, nil
	case ActionHide:
		return ActionHide, nil
	case ActionDelete:
		return ActionDelete, nil
	}
	return "", fmt.Errorf("unknown moderation action %q", value)
}

func (a ModerationAction) String() string {
	return string(a)
}

// PostOnly reports whether the action removes content from public view and
// is therefore valid for posts but not topics.
func (a ModerationAction) PostOnly() bool {
	return a == ActionHide || a == ActionDelete
}
