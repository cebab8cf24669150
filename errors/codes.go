package errors

// ErrorCode is the machine-readable code carried in error responses
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1005
	ErrorCode_UNAVAILABLE      ErrorCode = 1006

	// Handoff analysis
	ErrorCode_EMPTY_TRANSCRIPT  ErrorCode = 2000
	ErrorCode_PATIENT_NOT_FOUND ErrorCode = 2001
	ErrorCode_HANDOFF_NOT_FOUND ErrorCode = 2002
	ErrorCode_QUEUE_FULL        ErrorCode = 2004

	// Webhooks
	ErrorCode_INVALID_SIGNATURE ErrorCode = 3000
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:           "HTTP_OK",
	ErrorCode_INTERNAL:          "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:  "INVALID_ARGUMENT",
	ErrorCode_INVALID_PAYLOAD:   "INVALID_PAYLOAD",
	ErrorCode_UNAVAILABLE:       "UNAVAILABLE",
	ErrorCode_EMPTY_TRANSCRIPT:  "EMPTY_TRANSCRIPT",
	ErrorCode_PATIENT_NOT_FOUND: "PATIENT_NOT_FOUND",
	ErrorCode_HANDOFF_NOT_FOUND: "HANDOFF_NOT_FOUND",
	ErrorCode_QUEUE_FULL:        "QUEUE_FULL",
	ErrorCode_INVALID_SIGNATURE: "INVALID_SIGNATURE",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
