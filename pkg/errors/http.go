package errors

// HTTPError is the JSON error envelope the REST edge returns. Code mirrors
// the HTTP status so clients reading the body alone can branch on it.
type HTTPError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

func (e HTTPError) Error() string {
	return e.Message
}
