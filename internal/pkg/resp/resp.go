/*
Package resp provides helper functions for constructing and sending API JSON responses.

Every response carries a top-level "success" flag. Errors are reported in-body as
{success:false, message} over HTTP 200: clients read the flag, not the status code.
That contract is part of the public API surface and must not be "fixed".
*/
package resp

import (
	"encoding/json"
	"net/http"

	"duochat/internal/pkg/errs"
	"duochat/internal/pkg/logx"
)

// ErrorResponse is the envelope returned for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RespondJSON sets the Content-Type and sends the JSON payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess sends the given payload with HTTP 200 OK. The payload struct is
// expected to carry its own `success:true` field alongside the endpoint data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, payload any) {
	RespondJSON(w, r, http.StatusOK, payload)
}

// RespondError sends the {success:false, message} envelope. The business code is
// logged server-side but never exposed to clients.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	logx.Warn("Request failed", "code", customErr.Code, "message", customErr.Message)

	RespondJSON(w, r, http.StatusOK, ErrorResponse{
		Success: false,
		Message: customErr.Message,
	})
}
