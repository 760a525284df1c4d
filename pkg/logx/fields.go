package logx

const (
	FieldAppName         = "app-name"
	FieldAppVersion      = "app-version"
	FieldAttempt         = "attempt"
	FieldBatchSize       = "batch-size"
	FieldDefinitionID    = "definition-id"
	FieldDurationMs      = "duration-ms"
	FieldError           = "error"
	FieldFilterID        = "filter-id"
	FieldHTTPMethod      = "http-method"
	FieldHTTPRequest     = "http-request"
	FieldHTTPResponse    = "http-response"
	FieldIP              = "ip"
	FieldListingID       = "listing-id"
	FieldMessageID       = "message-id"
	FieldNaturalKey      = "natural-key"
	FieldPayloadSize     = "payload-size"
	FieldRequestBody     = "request-body"
	FieldRequestID       = "request-id"
	FieldResponseBody    = "response-body"
	FieldResponseHeaders = "response-headers"
	FieldResponseStatus  = "response-status"
	FieldServerKey       = "server-key"
	FieldStack           = "stack"
	FieldTraceID         = "trace-id"
	FieldURL             = "url"
)
