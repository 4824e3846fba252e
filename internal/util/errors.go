package util

import "errors"

var (
	ErrPermissionDenied = errors.New("permission denied")

	ErrRulesNotFound             = errors.New("rules not found: parent event missing")
	ErrEventNotFound             = errors.New("event not found")
	ErrRoundNotFound             = errors.New("round not found")
	ErrRoundNotAcceptingAttempts = errors.New("round is not accepting attempts")
	ErrRoundMisconfigured        = errors.New("round has no positive duration")
	ErrParticipantNotFound       = errors.New("participant not found")
	ErrTestNotEnabled            = errors.New("test not enabled for participant")
	ErrAttemptNotFound           = errors.New("attempt not found")
	ErrAttemptForbidden          = errors.New("attempt belongs to another participant")
	ErrAttemptAlreadyTerminal    = errors.New("attempt already finished")
	ErrAttemptNotTerminal        = errors.New("attempt still in progress")
	ErrUnknownQuestion           = errors.New("unknown question for this round")
	ErrMalformedAnswer           = errors.New("malformed answer for question type")
	ErrAnswerNotPending          = errors.New("answer is not pending manual review")
	ErrInvalidViolationKind      = errors.New("invalid violation kind")
	ErrInvalidFinalizeReason     = errors.New("invalid finalize reason")
	ErrInvalidOverrideStatus     = errors.New("override status must be terminal")
	ErrInvalidRoundStatus        = errors.New("invalid round status")
	ErrInvalidScope              = errors.New("invalid leaderboard scope")
)
