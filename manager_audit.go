package goAttend

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLogout           = "logout"
	auditEventRestore          = "restore"
	auditEventBiometricFailure = "biometric_failure"
	auditEventRefreshRevoked   = "refresh_revoked"
	auditEventStateReset       = "state_reset"
)

const auditErrInternal = "internal_error"

func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	m.audit.Emit(ctx, AuditEvent{
		Timestamp: m.clock().UTC(),
		EventType: eventType,
		Subject:   subject,
		Success:   success,
		Error:     auditErrorCode(err),
		Metadata:  metadata,
	})
}

// auditErrorCode returns the taxonomy code for err. Sentinels already carry
// their code as the message.
func auditErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, s := range []error{
		ErrInvalidCredentials,
		ErrConnection,
		ErrBiometricUnavailable,
		ErrNoSavedCredentials,
		ErrBiometricCancelled,
		ErrValidation,
		ErrStorage,
		ErrManagerNotReady,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return auditErrInternal
}

func (m *Manager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
