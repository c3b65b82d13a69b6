package httputil

// Machine-readable error codes returned alongside error messages so
// clients can branch without parsing human-readable text.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"
	CodeInternalError      = "internal_error"

	CodeMissingAuth        = "missing_authentication"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeInvalidToken       = "invalid_token"
	CodeInvalidScope       = "invalid_token_scope"
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotConfirmed  = "email_not_confirmed"
	CodeEmailAlreadyExists = "email_already_exists"
	CodeUnprocessableToken = "unprocessable_email_token"

	CodeContactNotFound = "contact_not_found"

	CodeTooManyRequests = "too_many_requests"
)
