package serverutils

// BaseResponse is the envelope of every JSON reply.
type BaseResponse[T any] struct {
	Success   bool   `json:"success"`
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
	Data      T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) BaseResponse[any] {
	return BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// CodedErrorResponse carries a stable machine-readable error code next to
// the HTTP status.
func CodedErrorResponse(code int, errorCode, message string) BaseResponse[any] {
	res := ErrorResponse(code, message)
	res.ErrorCode = errorCode
	return res
}
