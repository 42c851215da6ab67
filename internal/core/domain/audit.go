package domain

import "time"

// AuditType names an authentication event.
type AuditType string

const (
	AuditRegistered     AuditType = "registered"
	AuditRegisterFailed AuditType = "register_failed"
	AuditLoginSucceeded AuditType = "login_succeeded"
	AuditLoginFailed    AuditType = "login_failed"
	AuditTokenRejected  AuditType = "token_rejected"
)

// AuditEvent records one authentication outcome. It never carries
// passwords or raw tokens.
type AuditEvent struct {
	Type     AuditType
	Username string
	UserID   string
	RemoteIP string
	Reason   string
	At       time.Time
}
