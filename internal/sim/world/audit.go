package world

func (w *World) auditEvent(nowTick uint64, actor string, action string, sessionID string, reason string) {
	if w.auditLogger == nil {
		return
	}
	_ = w.auditLogger.WriteAudit(AuditEntry{
		Tick:      nowTick,
		Actor:     actor,
		Action:    action,
		SessionID: sessionID,
		Reason:    reason,
	})
}
