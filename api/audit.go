// Package api defines public API contracts for shmseg.
package api

// Audit receives segment lifecycle events such as "created", "attached",
// "unlinked", "closed" and "close_failed".
type Audit interface {
	LogEvent(event string, details map[string]interface{}) error
}

// NopAudit discards every event.
type NopAudit struct{}

func (NopAudit) LogEvent(string, map[string]interface{}) error { return nil }
