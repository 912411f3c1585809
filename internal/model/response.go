package model

// ListResult is one page of rows returned by a backend list endpoint.
// A nil Rows slice means the backend omitted the collection entirely, which
// callers treat differently from an empty page.
type ListResult[T any] struct {
	Rows      []T `json:"rows"`
	PageCount int `json:"pageCount"`
}

// PageResponse is the envelope the dashboard API returns for list views.
type PageResponse[T any] struct {
	Rows      []T `json:"rows"`
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
}

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error    ErrorDetail `json:"error"`
	Redirect string      `json:"redirect,omitempty"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// MessageResponse is the body shape the moderation backend uses to explain
// a rejected mutation.
type MessageResponse struct {
	Message string `json:"message"`
}
