package errors

// ErrorCode là mã lỗi trả về cho client
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_FORBIDDEN        ErrorCode = 1004
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1005

	// Auth
	ErrorCode_UNAUTHENTICATED    ErrorCode = 2000
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2001
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2002

	// Calls & recordings
	ErrorCode_CALL_NOT_FOUND            ErrorCode = 3000
	ErrorCode_CALL_INVALID_STATE        ErrorCode = 3001
	ErrorCode_RECORDING_NOT_FOUND       ErrorCode = 3002
	ErrorCode_RECORDING_UPLOAD_FAILED   ErrorCode = 3003
	ErrorCode_RECORDING_DOWNLOAD_FAILED ErrorCode = 3004
	ErrorCode_MISSING_AUDIO             ErrorCode = 3005
	ErrorCode_INVALID_SPEAKER_METADATA  ErrorCode = 3006

	// AI
	ErrorCode_TRANSCRIPTION_FAILED      ErrorCode = 4000
	ErrorCode_ANALYSIS_TIMEOUT          ErrorCode = 4001
	ErrorCode_ANALYSIS_INVALID_RESPONSE ErrorCode = 4002
	ErrorCode_ANALYSIS_FAILED           ErrorCode = 4003
	ErrorCode_AI_SERVICE_UNAVAILABLE    ErrorCode = 4004

	// Reports
	ErrorCode_REPORT_NOT_FOUND      ErrorCode = 5000
	ErrorCode_REPORT_PERSIST_FAILED ErrorCode = 5001

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 6000
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 6001
	ErrorCode_WEBHOOK_SIGNATURE_INVALID  ErrorCode = 6002

	// Database
	ErrorCode_DB_QUERY_FAILED       ErrorCode = 7000
	ErrorCode_DB_TRANSACTION_FAILED ErrorCode = 7001
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:             "ALREADY_EXISTS",
	ErrorCode_FORBIDDEN:                  "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:         "AUTH_TOKEN_EXPIRED",
	ErrorCode_CALL_NOT_FOUND:             "CALL_NOT_FOUND",
	ErrorCode_CALL_INVALID_STATE:         "CALL_INVALID_STATE",
	ErrorCode_RECORDING_NOT_FOUND:        "RECORDING_NOT_FOUND",
	ErrorCode_RECORDING_UPLOAD_FAILED:    "RECORDING_UPLOAD_FAILED",
	ErrorCode_RECORDING_DOWNLOAD_FAILED:  "RECORDING_DOWNLOAD_FAILED",
	ErrorCode_MISSING_AUDIO:              "MISSING_AUDIO",
	ErrorCode_INVALID_SPEAKER_METADATA:   "INVALID_SPEAKER_METADATA",
	ErrorCode_TRANSCRIPTION_FAILED:       "TRANSCRIPTION_FAILED",
	ErrorCode_ANALYSIS_TIMEOUT:           "ANALYSIS_TIMEOUT",
	ErrorCode_ANALYSIS_INVALID_RESPONSE:  "ANALYSIS_INVALID_RESPONSE",
	ErrorCode_ANALYSIS_FAILED:            "ANALYSIS_FAILED",
	ErrorCode_AI_SERVICE_UNAVAILABLE:     "AI_SERVICE_UNAVAILABLE",
	ErrorCode_REPORT_NOT_FOUND:           "REPORT_NOT_FOUND",
	ErrorCode_REPORT_PERSIST_FAILED:      "REPORT_PERSIST_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_WEBHOOK_SIGNATURE_INVALID:  "WEBHOOK_SIGNATURE_INVALID",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
	ErrorCode_DB_TRANSACTION_FAILED:      "DB_TRANSACTION_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the code by name in JSON responses
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
