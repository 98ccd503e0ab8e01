package serverutils

// Response is the envelope every endpoint answers with.
type Response[T any] struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message,omitempty"`
	Data      T        `json:"data,omitempty"`
	ErrorCode string   `json:"error_code,omitempty"`
	Details   []string `json:"details,omitempty"`
}

func SuccessResponse[T any](message string, data T) *Response[T] {
	return &Response[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code, message string, details ...string) *Response[any] {
	return &Response[any]{
		Success:   false,
		Message:   message,
		ErrorCode: code,
		Details:   details,
	}
}
