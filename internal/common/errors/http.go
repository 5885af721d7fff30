// internal/common/errors/http.go
package errors

import "net/http"

// HTTPStatus maps an error to the status code the API layer should return.
// All mapping lives here so individual handlers stay concise.
func HTTPStatus(err error) int {
	stdErr, ok := err.(*StandardError)
	if !ok {
		return http.StatusInternalServerError
	}

	switch stdErr.Code {
	case ErrCodeUserNotFound, ErrCodeAquariumNotFound, ErrCodeDiseaseNotFound, ErrCodeTemplateNotFound:
		return http.StatusNotFound
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeKeycloakAuthError, ErrCodeKeycloakAPIError:
		return http.StatusBadGateway
	case ErrCodeQueryTimeout, ErrCodeSearchTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is a not-found StandardError.
func IsNotFound(err error) bool {
	stdErr, ok := err.(*StandardError)
	if !ok {
		return false
	}
	switch stdErr.Code {
	case ErrCodeUserNotFound, ErrCodeAquariumNotFound, ErrCodeDiseaseNotFound:
		return true
	}
	return false
}
