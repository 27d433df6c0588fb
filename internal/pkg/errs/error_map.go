/*
Package errs provides the application's error registry.

This file defines the map from error codes to the CustomError struct, used to
standardize HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every registered error code.
// Messages here are for server logs; clients only ever see the code itself.
var errorMap = map[string]CustomError{
	// Client input errors
	CodeMethodNotAllowed:      {Code: CodeMethodNotAllowed, Message: "HTTP method not accepted on this route.", Status: http.StatusMethodNotAllowed},
	CodeBadChannel:            {Code: CodeBadChannel, Message: "Channel name failed validation.", Status: http.StatusBadRequest},
	CodeInvalidInput:          {Code: CodeInvalidInput, Message: "Malformed request body or unknown token type.", Status: http.StatusBadRequest},
	CodeChannelAndUIDRequired: {Code: CodeChannelAndUIDRequired, Message: "Query-mode request must carry both channel and uid.", Status: http.StatusBadRequest},
	CodeRateLimited:           {Code: CodeRateLimited, Message: "Per-IP request budget exceeded.", Status: http.StatusTooManyRequests},

	// Authorization errors
	CodeUnauthorized: {Code: CodeUnauthorized, Message: "Room password missing or mismatched.", Status: http.StatusUnauthorized},
	CodeForbiddenEnv: {Code: CodeForbiddenEnv, Message: "Issuance refused outside production.", Status: http.StatusForbidden},

	// Server-side errors
	CodeServerNotConfigured:   {Code: CodeServerNotConfigured, Message: "Platform credentials are not configured.", Status: http.StatusInternalServerError},
	CodeTokenGenerationFailed: {Code: CodeTokenGenerationFailed, Message: "Signing primitive reported a failure.", Status: http.StatusInternalServerError},
}
