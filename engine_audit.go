package goBoard

import (
	"context"
	"errors"

	"github.com/MrEthical07/goBoard/api"
	"github.com/MrEthical07/goBoard/storage"
)

const (
	auditEventSessionRestore  = "session_restore"
	auditEventLogin           = "login"
	auditEventProfileUpdate   = "profile_update"
	auditEventLogout          = "logout"
	auditEventSessionExpired  = "session_expired"
	auditEventStorageFailure  = "storage_failure"
	auditEventGuardGranted    = "guard_granted"
	auditEventGuardDenied     = "guard_denied"
	auditEventAPIUnauthorized = "api_unauthorized"
	auditEventLoginThrottled  = "login_throttled"
)

// AuditErrorCode is the stable error string carried by failed audit events.
type AuditErrorCode string

const (
	auditErrUnauthorized AuditErrorCode = "unauthorized"
	auditErrNotFound     AuditErrorCode = "not_found"
	auditErrUnavailable  AuditErrorCode = "backend_unavailable"
	auditErrMalformed    AuditErrorCode = "malformed_record"
	auditErrExpired      AuditErrorCode = "expired"
	auditErrThrottled    AuditErrorCode = "throttled"
	auditErrInternal     AuditErrorCode = "internal_error"
)

var (
	errRecordMalformed = errors.New("malformed session record")
	errRecordExpired   = errors.New("expired session record")
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	role string,
	path string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventType: eventType,
		ContextID: ContextIDFromContext(ctx),
		RequestID: RequestIDFromContext(ctx),
		Role:      role,
		Path:      path,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, api.ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, storage.ErrUnavailable),
		errors.Is(err, ErrStorageUnavailable):
		return auditErrUnavailable
	case errors.Is(err, errRecordMalformed):
		return auditErrMalformed
	case errors.Is(err, errRecordExpired):
		return auditErrExpired
	case errors.Is(err, ErrLoginThrottled):
		return auditErrThrottled
	default:
		return auditErrInternal
	}
}
