package notifcenter

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification does not
	// exist or is not owned by the requesting user.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrInvalidNotification is returned when create parameters fail
	// validation; nothing is persisted.
	ErrInvalidNotification = errors.New("invalid notification parameters")

	// ErrEscalationFailed wraps email escalation failures. Escalation is
	// best-effort and the error is only ever logged.
	ErrEscalationFailed = errors.New("failed to escalate notification to email")
)
