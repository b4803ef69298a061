package observability

// EventEnvelope is the broker-facing shape of every emitted event. EventType
// groups related events (a routing key stem), EventName identifies the
// specific occurrence.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// TraceHeaders carries request and trace correlation ids as AMQP headers.
// Empty values are omitted so consumers can treat presence as meaningful.
func TraceHeaders(requestID, traceID string) map[string]string {
	headers := make(map[string]string, 2)
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
