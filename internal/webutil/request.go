// internal/webutil/request.go
package webutil

import (
	"encoding/json"
	"net/http"

	"eliza_tutor/internal/model"
)

// DecodeJSONBody decodes and validates a JSON request body.
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.ErrInvalidInput
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return model.NewAppError("INVALID_BODY", "request body is not valid JSON", "", model.ErrInvalidInput)
	}
	return Validate(dst)
}
