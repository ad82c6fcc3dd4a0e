package security

// Severity ranks security events for triage. It is derived from EventType,
// never taken from the caller.
type Severity string

const (
	SeverityINFO     Severity = "INFO"
	SeverityMEDIUM   Severity = "MEDIUM"
	SeverityHIGH     Severity = "HIGH"
	SeverityCRITICAL Severity = "CRITICAL"
)

// EventSeverityMap defines the fixed severity for each event type
var EventSeverityMap = map[EventType]Severity{
	EventSubmissionAccepted: SeverityINFO,
	EventValidationFailed:   SeverityINFO,
	EventRateLimitTriggered: SeverityMEDIUM,
	EventServerError:        SeverityHIGH,
	EventRateLimitStoreDown: SeverityCRITICAL,
}

// SeverityFor returns the severity of event, MEDIUM for unknown types.
func SeverityFor(event EventType) Severity {
	if s, ok := EventSeverityMap[event]; ok {
		return s
	}
	return SeverityMEDIUM
}
