package dto

import (
	"net/http"

	"github.com/crm/backend/internal/domain/shared"
)

// errorCodeHTTPStatus maps the business error taxonomy to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:           http.StatusNotFound,
	shared.CodeConflict:           http.StatusConflict,
	shared.CodePreconditionFailed: http.StatusPreconditionFailed,
	shared.CodeBadRequest:         http.StatusBadRequest,
	shared.CodeUnauthorized:       http.StatusUnauthorized,
	shared.CodeInternal:           http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for a business error code,
// 500 for anything unknown.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
