/*
Package errs provides the application's error registry.

These codes form the public error vocabulary of the token endpoint: every rejection
a client can observe is one of these strings, carried in the "error" field of the
JSON response body.
*/
package errs

// Client input errors (4xx, safe to show verbatim).
const (
	// CodeMethodNotAllowed indicates the request used an HTTP method the route does not accept.
	CodeMethodNotAllowed = "method_not_allowed"

	// CodeBadChannel indicates the RTC channel name failed the allow-list pattern.
	CodeBadChannel = "bad_channel"

	// CodeInvalidInput indicates a malformed body or an unknown token type.
	CodeInvalidInput = "invalid_input"

	// CodeChannelAndUIDRequired indicates a query-mode request omitted channel or uid.
	CodeChannelAndUIDRequired = "channel_and_uid_required"

	// CodeRateLimited indicates the caller exceeded the per-IP request budget.
	CodeRateLimited = "rate_limited"
)

// Authorization errors (deliberately generic; no hint about which check failed).
const (
	// CodeUnauthorized indicates a missing or mismatched room password.
	CodeUnauthorized = "unauthorized"

	// CodeForbiddenEnv indicates issuance was attempted outside a production deployment
	// while the production-only gate is enabled.
	CodeForbiddenEnv = "forbidden_env"
)

// Server-side errors (5xx, fail closed).
const (
	// CodeServerNotConfigured indicates the platform credentials are absent.
	CodeServerNotConfigured = "server_not_configured"

	// CodeTokenGenerationFailed indicates an opaque signing failure. Details are
	// logged server-side only and never returned to the client.
	CodeTokenGenerationFailed = "token_generation_failed"
)
