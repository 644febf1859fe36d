package proctor

import (
	"github.com/examtrack/examtrack-backend/internal/model"
)

// severityCatalog maps event types to severities. Types absent from the
// catalog are not cheating events: they are acknowledged but never
// persisted, broadcast, or counted. Severity is always derived here,
// never taken from the client.
var severityCatalog = map[string]model.EventSeverity{
	"tab_switch":        model.SeverityHigh,
	"alt_tab":           model.SeverityHigh,
	"fullscreen_lost":   model.SeverityHigh,
	"window_blur":       model.SeverityMedium,
	"visibility_hidden": model.SeverityMedium,
	"blocked_key":       model.SeverityLow,
}

// Severity looks up the severity for an event type. The second return
// value is false for types not classified as cheating.
func Severity(eventType string) (model.EventSeverity, bool) {
	sev, ok := severityCatalog[eventType]
	return sev, ok
}
