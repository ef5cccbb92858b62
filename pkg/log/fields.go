package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Service
	FieldService = "service"

	// Signaling
	FieldConnectionID = "connection_id"
	FieldRoomCode     = "room_code"
	FieldMessageType  = "message_type"
	FieldTarget       = "target"
	FieldRemoteAddr   = "remote_addr"
)
