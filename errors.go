package flowstate

import (
	stderrors "errors"
	"strings"

	apperrors "github.com/goliatone/go-errors"
)

const (
	ErrCodeEmptySpec      = "FLOW_EMPTY_SPEC"
	ErrCodeEmptyStateName = "FLOW_EMPTY_STATE_NAME"
	ErrCodeDuplicateState = "FLOW_DUPLICATE_STATE"
	ErrCodeDanglingTarget = "FLOW_DANGLING_TARGET"
	ErrCodeEventCollision = "FLOW_EVENT_COLLISION"
	ErrCodeUnknownState   = "FLOW_UNKNOWN_STATE"
	ErrCodeUnknownEvent   = "FLOW_UNKNOWN_EVENT"
	ErrCodeActorStopped   = "FLOW_ACTOR_STOPPED"
)

var (
	ErrEmptySpec = apperrors.New("spec list is empty", apperrors.CategoryBadInput).
			WithTextCode(ErrCodeEmptySpec)
	ErrEmptyStateName = apperrors.New("state name is empty", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeEmptyStateName)
	ErrDuplicateState = apperrors.New("duplicate state name", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeDuplicateState)
	ErrDanglingTarget = apperrors.New("transition target not declared", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeDanglingTarget)
	ErrEventCollision = apperrors.New("update event collides with edge event", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeEventCollision)
	ErrUnknownState = apperrors.New("restriction references unknown state", apperrors.CategoryBadInput).
			WithTextCode(ErrCodeUnknownState)
	ErrUnknownEvent = apperrors.New("restriction references unknown update event", apperrors.CategoryBadInput).
			WithTextCode(ErrCodeUnknownEvent)
	ErrActorStopped = apperrors.New("actor is stopped", apperrors.CategoryConflict).
			WithTextCode(ErrCodeActorStopped)
)

func cloneErr(base *apperrors.Error, message string, source error, metadata map[string]any) *apperrors.Error {
	if base == nil {
		base = ErrEmptySpec
	}
	err := base.Clone()
	if text := strings.TrimSpace(message); text != "" {
		err.Message = text
	}
	if source != nil {
		err.Source = source
	}
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

// ErrorCode extracts the text code carried by construction and runtime errors.
func ErrorCode(err error) string {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}
