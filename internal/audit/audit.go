package audit

import (
	"context"

	"github.com/meetsync/signal-server/pkg/log"
)

// Audit actions for the signaling server.
const (
	ActionCreateMeeting = "meeting.create"
	ActionJoinMeeting   = "meeting.join"
	ActionLeaveMeeting  = "meeting.leave"
	ActionEndMeeting    = "meeting.end"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, meetingID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldMeetingID, meetingID).
		Msg(msg)
}
