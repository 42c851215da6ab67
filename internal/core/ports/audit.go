package ports

import (
	"context"

	"github.com/ceasar/auth-service/internal/core/domain"
)

// AuditSink persists or forwards audit events.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// AuditRecorder accepts audit events without blocking the caller.
type AuditRecorder interface {
	Enqueue(event domain.AuditEvent)
}
