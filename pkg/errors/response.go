package errors

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON envelope for error responses. Every error body
// has the shape:
//
//	{
//	    "error": {
//	        "code": "AUTH_002",
//	        "message": "access token has expired",
//	        "request_id": "1f6f8c54-...",
//	        "detail": {...}          // omitted in production
//	    }
//	}
//
// The code and message are always safe to expose. Detail carries the
// structured Details map and is included only when the caller opts in
// (non-production environments), since details may reference claim names
// and internal identifiers that aid attackers probing the edge.
type Response struct {
	Error ResponseBody `json:"error"`
}

// ResponseBody is the inner error object of a [Response].
type ResponseBody struct {
	Code      Code           `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// NewResponse builds the response envelope for an error. Non-*Error
// values are first normalized via [FromError], so foreign error types
// surface as a generic internal error rather than leaking their text.
func NewResponse(err error, requestID string, includeDetail bool) Response {
	e := FromError(err)
	body := ResponseBody{
		Code:      e.Code,
		Message:   e.Message,
		RequestID: requestID,
	}
	if includeDetail && len(e.Details) > 0 {
		body.Detail = e.Details
	}
	return Response{Error: body}
}

// WriteHTTP writes the error to w as a JSON response with the status
// implied by the error code. Authentication failures additionally get a
// WWW-Authenticate challenge header per RFC 6750.
func WriteHTTP(w http.ResponseWriter, err error, requestID string, includeDetail bool) {
	e := FromError(err)

	w.Header().Set("Content-Type", "application/json")
	if e.Code.Category() == "AUTH" {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(e.HTTPStatus())

	// Encoding a Response cannot fail for the field types used, but the
	// write itself can; nothing useful remains to do if it does.
	_ = json.NewEncoder(w).Encode(NewResponse(e, requestID, includeDetail))
}
